package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/classify"
	"github.com/litescript/ls-exoplanets/internal/export"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
	"github.com/litescript/ls-exoplanets/internal/version"
)

const defaultEventLimit = 20

var errNoModel = echo.NewHTTPError(http.StatusServiceUnavailable, "no classifier model loaded")

// AddRequest is the body of POST /api/exoplanets. When Features is set the
// record is classified before it is added.
type AddRequest struct {
	catalog.Record
	Features *classify.Features `json:"features,omitempty"`
}

// AddResponse reports the outcome of adding a record.
type AddResponse struct {
	Added      bool                 `json:"added"`
	Selected   string               `json:"selected"`
	Prediction *classify.Prediction `json:"prediction,omitempty"`
	Version    uint64               `json:"version"`
}

// Health is the body of GET /api/healthz.
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Records   int    `json:"records"`
	Model     bool   `json:"model"`
	Revision  uint64 `json:"revision"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) listExoplanets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state.Records())
}

func (s *Server) addExoplanet(c echo.Context) error {
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	rec := req.Record
	var pred *classify.Prediction
	if req.Features != nil {
		if s.model == nil {
			return errNoModel
		}
		p, err := s.model.Predict(*req.Features)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.metrics.RecordPrediction(p.Label)
		rec = rec.WithPrediction(p.Label)
		pred = &p
	}

	added, err := s.state.AddRecord(rec)
	if err != nil {
		if errors.Is(err, state.ErrEmptyName) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
		s.log.Info("added %q", strings.TrimSpace(rec.Name))
	}
	return c.JSON(status, AddResponse{
		Added:      added,
		Selected:   s.state.Selected(),
		Prediction: pred,
		Version:    s.state.Version(),
	})
}

// projection renders the current figure. Query parameters override the
// shared view for this request only.
func (s *Server) projection(c echo.Context) error {
	var o state.Overrides
	if v := c.QueryParam("unit"); v != "" {
		u, err := astro.ParseUnit(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		o.Unit = &u
	}
	if v := c.QueryParam("color"); v != "" {
		mode, err := projector.ParseColorMode(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		o.ColorMode = &mode
	}
	if _, ok := c.QueryParams()["select"]; ok {
		sel := c.QueryParam("select")
		o.Selected = &sel
	}
	return c.JSON(http.StatusOK, export.FromSnapshot(s.state.SnapshotWith(o)))
}

func (s *Server) predict(c echo.Context) error {
	if s.model == nil {
		return errNoModel
	}
	var body map[string]float64
	if err := c.Bind(&body); err != nil {
		return err
	}
	f, err := classify.FeaturesFromMap(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := s.model.Predict(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.metrics.RecordPrediction(p.Label)
	return c.JSON(http.StatusOK, p)
}

func (s *Server) events(c echo.Context) error {
	n := defaultEventLimit
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		n = parsed
	}
	events := s.state.RecentEvents(n)
	if events == nil {
		events = []state.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

// healthz reports load state only; it never projects.
func (s *Server) healthz(c echo.Context) error {
	st := s.state.Status()
	h := Health{
		Status:   "ok",
		Version:  version.Version,
		Records:  st.Records,
		Model:    s.model != nil,
		Revision: st.Version,
	}
	if st.LastError != nil {
		h.Status = "degraded"
		h.LastError = st.LastError.Error()
	}
	return c.JSON(http.StatusOK, h)
}
