package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

func scrape(t *testing.T, m *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestCollector_Observe(t *testing.T) {
	m := New(nil)

	records := []catalog.Record{
		{Name: "a", RADeg: catalog.Some(1), DecDeg: catalog.Some(1), DistancePc: catalog.Some(10)},
		{Name: "b", RADeg: catalog.Some(1), DecDeg: catalog.Some(1), DistancePc: catalog.Some(0.001)},
	}
	p := projector.Project(records, astro.Parsec, projector.DefaultPolicy())
	m.ObserveProjection(p, 3*time.Millisecond)
	m.ObserveCamera(camera.NotFound)
	m.RecordPrediction("CONFIRMED")
	m.RecordRequest("/api/projection", "GET", 200, 5*time.Millisecond)
	m.ClientConnected(1)

	out := scrape(t, m)
	for _, want := range []string{
		"lsexo_projections_total 1",
		"lsexo_points_included 1",
		`lsexo_points_excluded{reason="too_close"} 1`,
		`lsexo_points_excluded{reason="missing_field"} 0`,
		`lsexo_camera_lookups_total{status="not_found"} 1`,
		`lsexo_predictions_total{label="CONFIRMED"} 1`,
		`lsexo_http_requests_total{method="GET",route="/api/projection",status="200"} 1`,
		"lsexo_websocket_clients 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	a := New(nil)
	b := New(nil)
	a.RecordPrediction("CANDIDATE")
	if strings.Contains(scrape(t, b), "CANDIDATE") {
		t.Error("registries should be independent")
	}
}
