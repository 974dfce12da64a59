// Package wire provides dependency injection for the pinpoint application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cliadapter "github.com/example/pinpoint/internal/adapters/cli"
	"github.com/example/pinpoint/internal/adapters/coords"
	"github.com/example/pinpoint/internal/adapters/dialog"
	"github.com/example/pinpoint/internal/adapters/link"
	"github.com/example/pinpoint/internal/adapters/metrics"
	"github.com/example/pinpoint/internal/adapters/sqlite"
	"github.com/example/pinpoint/internal/app"
	"github.com/example/pinpoint/internal/config"
	"github.com/example/pinpoint/internal/db"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// Options are set by the root command before the first service is requested.
type Options struct {
	// ConfigPath overrides ~/.pinpoint/config.yaml.
	ConfigPath string

	// Answer, when set, answers every operator prompt without asking.
	Answer *bool

	// MetricsAddr overrides the configured metrics listen address.
	MetricsAddr string
}

var (
	opts Options
	cfg  *config.Config

	probeService       primary.ProbeService
	automationService  primary.AutomationService
	calibrationService primary.CalibrationService
	drivePanelService  primary.DrivePanelService
	eventService       primary.EventService

	manipulatorLink secondary.ManipulatorLink
	registry        *prometheus.Registry

	once sync.Once
)

// Configure records the options used by the lazy initialization. It must be
// called before any service accessor.
func Configure(o Options) {
	opts = o
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// ProbeService returns the singleton ProbeService instance.
func ProbeService() primary.ProbeService {
	once.Do(initServices)
	return probeService
}

// AutomationService returns the singleton AutomationService instance.
func AutomationService() primary.AutomationService {
	once.Do(initServices)
	return automationService
}

// CalibrationService returns the singleton CalibrationService instance.
func CalibrationService() primary.CalibrationService {
	once.Do(initServices)
	return calibrationService
}

// DrivePanelService returns the singleton DrivePanelService instance.
func DrivePanelService() primary.DrivePanelService {
	once.Do(initServices)
	return drivePanelService
}

// EventService returns the singleton EventService instance.
func EventService() primary.EventService {
	once.Do(initServices)
	return eventService
}

// MetricsHandler returns the /metrics handler, or nil when metrics are off.
func MetricsHandler() http.Handler {
	once.Do(initServices)
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// MetricsAddr returns the address metrics should be served on.
func MetricsAddr() string {
	once.Do(initServices)
	if opts.MetricsAddr != "" {
		return opts.MetricsAddr
	}
	return cfg.Metrics.Addr
}

// Close releases the manipulator link and the database.
func Close() error {
	var errs []error
	if c, ok := manipulatorLink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, db.Close())
	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	c, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.Default(), nil
	}
	return c, err
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db.SetPath(cfg.Database)
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Secondary adapters
	probeRepo := sqlite.NewProbeRepository(database)
	targetRepo := sqlite.NewTargetRepository(database)
	panelRepo := sqlite.NewDrivePanelRepository(database)
	eventRepo := sqlite.NewEventRepository(database)
	eventWriter := sqlite.NewEventWriterAdapter(eventRepo)

	manipulatorLink, err = newLink(cfg, probeRepo)
	if err != nil {
		log.Fatalf("failed to open manipulator link: %v", err)
	}

	var recorder secondary.MetricsRecorder = metrics.Nop()
	if opts.MetricsAddr != "" || cfg.Metrics.Addr != "" {
		registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	probeRegistry := app.NewProbeRegistry(probeRepo)
	deps := app.Deps{
		Registry:       probeRegistry,
		Targets:        targetRepo,
		Link:           manipulatorLink,
		Converter:      coords.NewAxisConverter(cfg.Converter.SurfaceDV),
		Executor:       app.NewEffectExecutor(manipulatorLink),
		Dialog:         newDialog(),
		Events:         eventWriter,
		Errors:         cliadapter.NewConsoleErrorSink(os.Stderr, eventWriter),
		Metrics:        recorder,
		AutomaticSpeed: cfg.Automation.Speed,
		Travel:         cfg.Automation.Travel,
	}

	// Primary services
	probeService = app.NewProbeService(probeRegistry, probeRepo, targetRepo, eventWriter)
	automationService = app.NewAutomationService(deps)
	calibrationService = app.NewCalibrationService(deps)
	drivePanelService = app.NewDrivePanelService(deps, panelRepo)
	eventService = app.NewEventService(eventRepo)
}

func newDialog() secondary.Dialog {
	if opts.Answer != nil {
		return dialog.NewStaticDialog(*opts.Answer, os.Stderr)
	}
	return dialog.NewTerminalDialog()
}

// newLink opens the configured transport. A simulated rig resumes every
// manipulator at the position its probe last reported.
func newLink(cfg *config.Config, probes secondary.ProbeRepository) (secondary.ManipulatorLink, error) {
	switch cfg.Link.Kind {
	case config.LinkSerial:
		portCfg := link.DefaultPortConfig(cfg.Link.Device)
		portCfg.Baud = cfg.Link.Baud
		port, err := link.OpenSerial(portCfg)
		if err != nil {
			return nil, err
		}
		return link.NewSerialLink(port), nil

	case config.LinkSimulated:
		sim := link.NewSimulatedLink(link.SimulatedConfig{
			MoveDelay: cfg.Link.SimMoveDelay,
			Travel:    cfg.Automation.Travel,
		})
		home := models.Vector4{
			X: cfg.Automation.Travel.X / 2,
			Y: cfg.Automation.Travel.Y / 2,
			Z: cfg.Automation.Travel.Z / 2,
		}
		for _, id := range cfg.Link.SimManipulators {
			start := home
			rec, err := probes.GetByManipulator(context.Background(), id)
			if err != nil {
				return nil, err
			}
			if rec != nil && !rec.Data.Position.IsNaN() {
				start = rec.Data.Position
			}
			sim.AddManipulator(id, start)
		}
		return sim, nil
	}
	return nil, fmt.Errorf("unknown link kind %q", cfg.Link.Kind)
}

// ProbeAdapter returns a new ProbeAdapter writing to stdout.
func ProbeAdapter() *cliadapter.ProbeAdapter {
	return ProbeAdapterWithOutput(os.Stdout)
}

// ProbeAdapterWithOutput returns a new ProbeAdapter writing to the given output.
func ProbeAdapterWithOutput(out io.Writer) *cliadapter.ProbeAdapter {
	once.Do(initServices)
	return cliadapter.NewProbeAdapter(probeService, out)
}

// AutomationAdapter returns a new AutomationAdapter writing to stdout.
func AutomationAdapter() *cliadapter.AutomationAdapter {
	return AutomationAdapterWithOutput(os.Stdout)
}

// AutomationAdapterWithOutput returns a new AutomationAdapter writing to the
// given output.
func AutomationAdapterWithOutput(out io.Writer) *cliadapter.AutomationAdapter {
	once.Do(initServices)
	return cliadapter.NewAutomationAdapter(automationService, calibrationService, out)
}

// PanelAdapter returns a new PanelAdapter writing to stdout.
func PanelAdapter() *cliadapter.PanelAdapter {
	once.Do(initServices)
	return cliadapter.NewPanelAdapter(drivePanelService, os.Stdout)
}

// EventAdapter returns a new EventAdapter writing to stdout.
func EventAdapter() *cliadapter.EventAdapter {
	once.Do(initServices)
	return cliadapter.NewEventAdapter(eventService, os.Stdout)
}
