// Command ls-exoplanets projects exoplanet catalogs into 3D space and
// explores them from the terminal, the command line or over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/config"
	"github.com/litescript/ls-exoplanets/internal/export"
	"github.com/litescript/ls-exoplanets/internal/logging"
	"github.com/litescript/ls-exoplanets/internal/state"
	"github.com/litescript/ls-exoplanets/internal/ui"
)

// app holds what every command needs once flags and config are resolved.
type app struct {
	loader *config.Loader
	cfg    *config.Config
	log    *logging.Logger

	configFile string
	envFile    string
	fetch      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "ls-exoplanets",
		Short: "3D exoplanet catalog projector",
		Long: `Project an exoplanet catalog into 3D Cartesian space around the Sun and
explore it: an interactive terminal scene, headless table/JSON/YAML output,
or an HTTP API with a live websocket feed.

Without a subcommand the terminal explorer starts when stdout is a TTY;
otherwise a summary table is printed.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runExplorer,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./ls-exoplanets.yaml or ~/.config/ls-exoplanets/)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.BoolVar(&a.fetch, "fetch", false, "load the catalog from the archive instead of a file")
	flags.String("catalog", "", "catalog CSV path")
	flags.String("unit", "", "distance unit (pc, ly, au)")
	flags.String("color", "", "colour mode (temperature, class)")
	flags.Bool("stellar-filter", false, "exclude planets whose host star is outside 1000-10000 K")
	flags.String("model", "", "classifier model JSON")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	v := a.loader.Viper()
	for key, flag := range map[string]string{
		config.KeyCatalogPath:    "catalog",
		config.KeyViewUnit:       "unit",
		config.KeyViewColorMode:  "color",
		config.KeyViewTeffFilter: "stellar-filter",
		config.KeyModelPath:      "model",
		config.KeyLogLevel:       "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.newProjectCmd(),
		a.newFetchCmd(),
		a.newServeCmd(),
		a.newPredictCmd(),
		a.newDoctorCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := a.loader.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(logging.ParseLevel(cfg.Log.Level))
	if cfg.File != "" {
		a.log.Debug("using config %s", cfg.File)
	}
	return nil
}

// newState creates a manager configured from the resolved settings.
func (a *app) newState(observer state.Observer) *state.Manager {
	sc := state.DefaultConfig()
	sc.Unit = a.cfg.View.Unit
	sc.Policy = a.cfg.View.Policy()
	sc.Camera = a.cfg.Camera
	sc.Observer = observer
	return state.NewManager(sc)
}

// loadCatalog reads the configured CSV, or queries the archive when
// --fetch is set or no path is configured.
func (a *app) loadCatalog(ctx context.Context) ([]catalog.Record, string, time.Duration, error) {
	log := a.log.With("catalog")

	if a.fetch || a.cfg.Catalog.Path == "" {
		f := a.newFetcher()
		log.Info("fetching %s", f.URL())
		result := f.Fetch(ctx)
		if result.Error != nil {
			return nil, f.URL(), result.Duration, result.Error
		}
		logStats(log, result.Stats)
		return result.Records, f.URL(), result.Duration, nil
	}

	start := time.Now()
	records, stats, err := catalog.LoadFile(a.cfg.Catalog.Path)
	took := time.Since(start)
	if err != nil {
		return nil, a.cfg.Catalog.Path, took, err
	}
	logStats(log, stats)
	return records, a.cfg.Catalog.Path, took, nil
}

func (a *app) newFetcher() *catalog.Fetcher {
	return catalog.NewFetcher(
		catalog.WithURL(a.cfg.Catalog.URL),
		catalog.WithTable(a.cfg.Catalog.Table),
		catalog.WithTimeout(a.cfg.Catalog.Timeout),
	)
}

func logStats(log *logging.Logger, s catalog.LoadStats) {
	log.Info("loaded %d of %d rows", s.Loaded, s.Rows)
	if s.Malformed > 0 || s.Duplicates > 0 {
		log.Warn("skipped %d malformed and %d duplicate rows", s.Malformed, s.Duplicates)
	}
}

// runExplorer starts the TUI, or prints a summary when stdout is not a
// terminal.
func (a *app) runExplorer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	st := a.newState(nil)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		records, source, took, err := a.loadCatalog(ctx)
		st.SetCatalog(records, source, took, err)
		if err != nil {
			return err
		}
		snap := st.Snapshot()
		export.WriteSummaryTable(cmd.OutOrStdout(), snap.Projection, snap.Camera, snap.LastLoad)
		return nil
	}

	// Keep log lines from tearing the alt screen.
	a.log.SetLevel(logging.LevelError)

	p := tea.NewProgram(ui.New(st), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		records, source, took, err := a.loadCatalog(ctx)
		st.SetCatalog(records, source, took, err)
		if err != nil {
			p.Send(ui.ErrorMsg{Error: err})
			return
		}
		p.Send(ui.DataUpdateMsg{Snapshot: st.Snapshot()})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
