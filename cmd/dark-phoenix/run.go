package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dark-phoenix/internal/admin"
	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/config"
	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/guardian"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/scenario"
	"dark-phoenix/internal/sim"
	"dark-phoenix/internal/telemetry"
)

var (
	runPrintOnly  bool
	runTUI        bool
	runConfigPath string
	runSchemaPath string
	runLogFile    string
	runAdminAddr  string
	runScenario   string
	runStep       time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the protection unit with simulated sensors",
	Long:  "run starts the protection cycle with simulated sensors and actuators, the admin API and the configured telemetry writers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var logOut io.Writer = os.Stderr
		if runTUI && isTerminal() {
			logOut = io.Discard
		}
		ctx, err := withLogger(ctx, logOut)
		if err != nil {
			return err
		}
		log := logging.FromContext(ctx)

		cfg, err := config.Load(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}
		env, err := config.ParseEnv()
		if err != nil {
			return err
		}
		cfg.ApplyEnv(env)

		var sc *scenario.Scenario
		if runScenario != "" {
			if sc, err = loadScenario(runScenario); err != nil {
				return err
			}
		}

		events, status, cleanup, err := newWriters(ctx, env, writerOptions{
			printOnly: runPrintOnly,
			tui:       runTUI,
			unitName:  cfg.Unit.Name,
			logFile:   runLogFile,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		unit, err := assemble(cfg, events, status)
		if err != nil {
			return err
		}

		srv := admin.NewServer(unit.engine)
		go func() {
			log.Info("admin API listening", "addr", runAdminAddr)
			setAdminStatus(events, true)
			if err := srv.Start(ctx, runAdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin server failed", "err", err)
			}
			setAdminStatus(events, false)
		}()

		if sc != nil {
			driver := sim.NewDriver(sc, unit.clock, unit.detector, unit.env, unit.engine)
			go driver.Run(ctx, runStep)
		}

		unit.engine.Run(ctx)
		if unit.engine.Landed() {
			log.Warn("unit landed", "report", unit.engine.Status().Report())
		}
		log.Info("dark phoenix stopped")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the terminal monitor (requires a terminal)")
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/phoenix.yaml", "Path to unit configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "schemas/phoenix.cue", "Path to CUE schema file")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to export mission events (JSONL); status goes to <path>.status")
	runCmd.Flags().StringVar(&runAdminAddr, "admin-addr", ":8080", "Admin API listen address")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Built-in drill name (intruder, wildfire, mob) or scenario YAML path")
	runCmd.Flags().DurationVar(&runStep, "scenario-step", time.Second, "How often scenario triggers are checked")
}

// simUnit is an engine wired to simulated collaborators.
type simUnit struct {
	engine   *guardian.Engine
	detector *sim.Detector
	env      *sim.Environment
	clock    clock.Clock
}

func assemble(cfg *config.Config, events telemetry.EventWriter, status telemetry.StatusWriter) (*simUnit, error) {
	clk := clock.Real{}
	throttle := logging.NewThrottle(cfg.Scheduler.WarnEvery.Std())

	envCfg := sim.DefaultEnvironmentConfig()
	envCfg.AmbientTemp = cfg.Simulation.AmbientTemp
	envCfg.Noise = cfg.Simulation.SensorNoise
	envCfg.Dropout = cfg.Simulation.Dropout
	envCfg.Seed = cfg.Simulation.Seed
	env := sim.NewEnvironment(envCfg)

	act := sim.NewActuators()
	hover := sim.NewHover(cfg.Home(), cfg.Simulation.OrbitRadiusM, cfg.Simulation.OrbitPeriod.Std(), clk)
	det := sim.NewDetector(clk, hover)
	det.SetSensitivity(cfg.Detection.Sensitivity)

	dcfg, err := cfg.DeterrenceConfig()
	if err != nil {
		return nil, err
	}
	engine := guardian.New(cfg.GuardianConfig(), guardian.Deps{
		Detector:   det,
		Position:   hover,
		Deterrence: deterrence.NewController(dcfg, act.Siren(), act.Strobe(), act.Voice(), clk),
		Fire:       firesuppression.NewController(cfg.FireConfig(), env, env, act.Nozzle(), clk, throttle),
		Clock:      clk,
		Throttle:   throttle,
		Events:     events,
		Status:     status,
	})
	return &simUnit{engine: engine, detector: det, env: env, clock: clk}, nil
}

// loadScenario resolves a built-in drill name or a YAML path.
func loadScenario(name string) (*scenario.Scenario, error) {
	if sc, ok := scenario.BuiltIn()[name]; ok {
		return &sc, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return scenario.Load(name)
}

func setAdminStatus(w telemetry.EventWriter, active bool) {
	if aw, ok := w.(telemetry.AdminStatusWriter); ok {
		aw.SetAdminStatus(active)
	}
}
