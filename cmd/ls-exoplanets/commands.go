package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/classify"
	"github.com/litescript/ls-exoplanets/internal/config"
	"github.com/litescript/ls-exoplanets/internal/export"
	"github.com/litescript/ls-exoplanets/internal/metrics"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/server"
	"github.com/litescript/ls-exoplanets/internal/version"
)

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func (a *app) newProjectCmd() *cobra.Command {
	var (
		format   string
		selected string
		out      string
		events   bool
		method   string
		minR     float64
		maxR     float64
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the catalog and print it as a table, JSON or YAML",
		Long: `Load the catalog, project it in the configured unit and write the result.

Examples:
  ls-exoplanets project --unit ly
  ls-exoplanets project --select "Kepler-442 b" --format json --out figure.json
  ls-exoplanets project --method Transit --min-radius 1.5 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := a.newState(nil)
			records, source, took, err := a.loadCatalog(cmd.Context())
			st.SetCatalog(records, source, took, err)
			if err != nil {
				return err
			}

			filter := catalog.Characteristics{DiscoveryMethod: method}
			if cmd.Flags().Changed("min-radius") {
				filter.RadiusMin = catalog.Some(minR)
			}
			if cmd.Flags().Changed("max-radius") {
				filter.RadiusMax = catalog.Some(maxR)
			}
			st.SetFilter(filter)
			st.Select(selected)

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer closeOut()

			snap := st.Snapshot()
			switch strings.ToLower(format) {
			case "table", "":
				export.WriteSummaryTable(w, snap.Projection, snap.Camera, snap.LastLoad)
				if events {
					fmt.Fprintln(w)
					export.WriteEvents(w, snap.Events)
				}
			case "json":
				err = export.FromSnapshot(snap).WriteJSON(w)
			case "yaml", "yml":
				err = export.FromSnapshot(snap).WriteYAML(w)
			case "csv":
				err = catalog.WriteCSV(w, projectedRecords(snap.Projection.Points))
			default:
				return fmt.Errorf("unknown format %q (table, json, yaml, csv)", format)
			}
			if err != nil {
				return err
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml, csv)")
	cmd.Flags().StringVarP(&selected, "select", "s", "", "planet to focus the camera on")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file (- for stdout)")
	cmd.Flags().BoolVar(&events, "events", false, "append the event log to table output")
	cmd.Flags().StringVar(&method, "method", "", "only planets found by this discovery method")
	cmd.Flags().Float64Var(&minR, "min-radius", 0, "minimum planet radius in Earth radii")
	cmd.Flags().Float64Var(&maxR, "max-radius", 0, "maximum planet radius in Earth radii")
	return cmd
}

// projectedRecords returns the records that survived filtering.
func projectedRecords(points []projector.Point) []catalog.Record {
	out := make([]catalog.Record, len(points))
	for i, pt := range points {
		out[i] = pt.Record
	}
	return out
}

func (a *app) newFetchCmd() *cobra.Command {
	var (
		out string
		raw bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the catalog from the NASA Exoplanet Archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := a.newFetcher()
			a.log.Info("query: %s", f.Query())

			result := f.Fetch(cmd.Context())
			if result.Error != nil {
				return result.Error
			}
			logStats(a.log, result.Stats)
			a.log.Info("fetched in %v", result.Duration)

			if out == "" {
				out = a.cfg.Catalog.Path
			}
			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer closeOut()

			if raw {
				_, err = w.Write(result.RawBytes)
			} else {
				err = catalog.WriteCSV(w, result.Records)
			}
			if err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV (default catalog.path, - for stdout)")
	cmd.Flags().BoolVar(&raw, "raw", false, "write the archive response unmodified")
	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection over HTTP with a websocket feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			model, err := a.loadModel()
			if err != nil {
				return err
			}

			m := metrics.New(nil)
			st := a.newState(m)
			records, source, took, err := a.loadCatalog(ctx)
			st.SetCatalog(records, source, took, err)
			if err != nil {
				// Serve anyway; records can be added over the API.
				a.log.Error("catalog load failed: %v", err)
			}

			srv := server.New(st, model, m, a.log, server.Config{
				Addr:         a.cfg.Server.Addr,
				RateLimit:    a.cfg.Server.RateLimit,
				Burst:        a.cfg.Server.Burst,
				PushInterval: a.cfg.Server.PushInterval,
				LogLevel:     a.cfg.Log.Level,
			})
			return srv.Start(ctx)
		},
	}

	v := a.loader.Viper()
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Float64("rate-limit", 0, "requests per second per client IP (0 disables)")
	cmd.Flags().Duration("push-interval", 0, "websocket version poll interval")
	_ = v.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag(config.KeyServerRateLimit, cmd.Flags().Lookup("rate-limit"))
	_ = v.BindPFlag(config.KeyServerPushInterval, cmd.Flags().Lookup("push-interval"))
	return cmd
}

// loadModel reads the classifier when one is configured.
func (a *app) loadModel() (*classify.Model, error) {
	if a.cfg.Model.Path == "" {
		a.log.Info("no classifier model configured; predictions disabled")
		return nil, nil
	}
	model, err := classify.Load(a.cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	a.log.Info("loaded classifier %s (%d trees)", a.cfg.Model.Path, len(model.Trees))
	return model, nil
}

func (a *app) newPredictCmd() *cobra.Command {
	var f classify.Features

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one candidate as CONFIRMED, CANDIDATE or FALSE POSITIVE",
		Long: `Classify a transit candidate from its eleven KOI features.

Example:
  ls-exoplanets predict --model model.json --snr 35 --radius 1.2 --sma 0.05 \
    --temp 800 --period 3.2 --duration 2.5 --depth 500 --steff 5700 \
    --slogg 4.4 --sr 1.0 --time0bk 134.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range featureFlags {
				if !cmd.Flags().Changed(name) {
					return fmt.Errorf("%w: --%s", classify.ErrMissingFeature, name)
				}
			}

			model, err := a.loadModel()
			if err != nil {
				return err
			}
			if model == nil {
				return errors.New("predict needs --model or model.path")
			}

			p, err := model.Predict(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.2f)\n", p.Label, p.Confidence)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.SNR, "snr", 0, "model signal-to-noise ratio")
	fl.Float64Var(&f.Radius, "radius", 0, "planet radius, Earth radii")
	fl.Float64Var(&f.SMA, "sma", 0, "semi-major axis, AU")
	fl.Float64Var(&f.Temp, "temp", 0, "equilibrium temperature, K")
	fl.Float64Var(&f.Period, "period", 0, "orbital period, days")
	fl.Float64Var(&f.Duration, "duration", 0, "transit duration, hours")
	fl.Float64Var(&f.Depth, "depth", 0, "transit depth, ppm")
	fl.Float64Var(&f.StellarTeff, "steff", 0, "stellar effective temperature, K")
	fl.Float64Var(&f.StellarLogG, "slogg", 0, "stellar surface gravity, log10(cm/s²)")
	fl.Float64Var(&f.StellarRad, "sr", 0, "stellar radius, solar radii")
	fl.Float64Var(&f.TransitEpoch, "time0bk", 0, "transit epoch, BKJD")
	return cmd
}

var featureFlags = []string{
	"snr", "radius", "sma", "temp", "period", "duration",
	"depth", "steff", "slogg", "sr", "time0bk",
}

func (a *app) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [csv]",
		Short: "Check a CSV for catalog and classifier columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			w := cmd.OutOrStdout()

			header, err := readHeader(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %d columns\n", path, len(header))

			have := make(map[string]bool, len(header))
			for _, h := range header {
				have[strings.ToLower(strings.TrimSpace(h))] = true
			}
			var missingCatalog []string
			for _, col := range []string{catalog.ColName, catalog.ColRA, catalog.ColDec, catalog.ColDistance} {
				if !have[col] {
					missingCatalog = append(missingCatalog, col)
				}
			}
			if len(missingCatalog) == 0 {
				fmt.Fprintln(w, "projection: ok")
			} else {
				fmt.Fprintf(w, "projection: missing %s\n", strings.Join(missingCatalog, ", "))
			}

			if missing := classify.MissingColumns(header); len(missing) == 0 {
				fmt.Fprintln(w, "classifier: ok")
			} else {
				fmt.Fprintf(w, "classifier: missing %d of %d features: %s\n",
					len(missing), classify.NumFeatures, strings.Join(missing, ", "))
			}

			_, stats, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "rows: %d, loaded: %d, malformed: %d, duplicates: %d\n",
				stats.Rows, stats.Loaded, stats.Malformed, stats.Duplicates)
			return nil
		},
	}
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, catalog.ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return header, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
