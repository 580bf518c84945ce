package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/wrenvik/dutymond/internal/capture"
	"codeberg.org/wrenvik/dutymond/internal/config"
	"codeberg.org/wrenvik/dutymond/internal/gpio"
	"codeberg.org/wrenvik/dutymond/internal/logger"
	"codeberg.org/wrenvik/dutymond/internal/monitor"
	"codeberg.org/wrenvik/dutymond/internal/pid"
	"codeberg.org/wrenvik/dutymond/internal/protocol"
	"codeberg.org/wrenvik/dutymond/internal/queue"
	"codeberg.org/wrenvik/dutymond/internal/settings"
	"codeberg.org/wrenvik/dutymond/internal/telemetry"
)

type app struct {
	cfg       *config.Config
	deviceCfg settings.Settings
	store     settings.Store
	watcher   gpio.Watcher
	primary   gpio.OutputPin
	errOut    gpio.OutputPin
	ring      *queue.Ring[capture.Sample]
	mon       *monitor.Monitor
	transport *protocol.Transport
	handler   *protocol.Handler
	collector telemetry.Collector
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	a, err := initApp(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	a.cleanup()
}

func initApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.store = settings.NewFileStore(cfg.SettingsPath)
	deviceCfg, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	a.deviceCfg = deviceCfg

	watcher, err := gpio.NewRealWatcher(cfg.GPIOChip, cfg.InputLine)
	if err != nil {
		return nil, err
	}
	a.watcher = watcher

	primary, err := gpio.NewRealOutput(cfg.GPIOChip, cfg.OutputLine)
	if err != nil {
		return nil, err
	}
	a.primary = primary

	errOut, err := gpio.NewRealOutput(cfg.GPIOChip, cfg.ErrorLine)
	if err != nil {
		return nil, err
	}
	a.errOut = errOut

	a.ring = queue.New[capture.Sample](cfg.QueueCapacity)
	capt := capture.New(a.ring)
	if err := a.watcher.Watch(capt.HandleEdge); err != nil {
		return nil, err
	}

	a.mon = monitor.New(&a.deviceCfg, a.ring, a.primary, a.errOut, time.Now())

	transport, err := protocol.OpenTransport(cfg.SerialDevice, a.deviceCfg.BaudRate)
	if err != nil {
		return nil, err
	}
	a.transport = transport

	a.handler = protocol.NewHandler(&a.deviceCfg, a.store, a.mon, a.transport)
	a.handler.OnBaudChange(a.transport.Reopen)

	if cfg.Telemetry {
		collector, err := telemetry.NewService(telemetry.Config{DBPath: cfg.TelemetryDB})
		if err != nil {
			return nil, err
		}
		a.collector = collector
	}

	logger.Info().
		Str("serial", cfg.SerialDevice).
		Int("input_line", cfg.InputLine).
		Int("baud", a.deviceCfg.BaudRate).
		Msg("dutymond started")

	return a, nil
}

func (a *app) loop(ctx context.Context) error {
	interval := time.Duration(a.cfg.IntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-a.transport.Lines():
			if !ok {
				return nil
			}
			a.handler.HandleLine(line)
		case <-ticker.C:
			snapshot, evaluated := a.mon.Tick(time.Now())
			if evaluated && a.collector != nil {
				a.record(ctx, snapshot)
			}
		}
	}
}

func (a *app) record(ctx context.Context, s monitor.Snapshot) {
	err := a.collector.Record(ctx, &telemetry.Snapshot{
		Timestamp: s.Timestamp,
		Signal: telemetry.SignalMetrics{
			PeriodUs:     int(s.PeriodUs),
			HighUs:       int(s.HighUs),
			DutyPermille: s.DutyPermille,
			FoldedDuty:   s.FoldedDuty,
		},
		Tolerance: telemetry.ToleranceMetrics{
			DutyErrors:   s.DutyErrors,
			PeriodErrors: s.PeriodErrors,
		},
		OutputStates: telemetry.OutputMetrics{
			PrimaryActive: s.PrimaryActive,
			ErrorActive:   s.ErrorActive,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record telemetry snapshot")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func (a *app) cleanup() {
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close serial transport")
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close input line")
		}
	}
	if a.primary != nil {
		if err := a.primary.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release primary output")
		}
	}
	if a.errOut != nil {
		if err := a.errOut.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release error output")
		}
	}
	if a.collector != nil {
		if err := a.collector.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close telemetry")
		}
	}
	logger.Info().Msg("Exiting...")
}
