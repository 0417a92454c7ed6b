// Command berthd is the berth watch daemon: it polls the mailbox and
// the vessel schedule on a cron cadence, keeps arrival checklists up to
// date and pushes the run summary to the configured chat channels.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/berthwatch-io/berthwatch/internal/agent"
	apiPkg "github.com/berthwatch-io/berthwatch/internal/api"
	"github.com/berthwatch-io/berthwatch/internal/checklist"
	"github.com/berthwatch-io/berthwatch/internal/config"
	"github.com/berthwatch-io/berthwatch/internal/logbuf"
	"github.com/berthwatch-io/berthwatch/internal/notify"
	"github.com/berthwatch-io/berthwatch/internal/report"
	"github.com/berthwatch-io/berthwatch/internal/scheduler"
	"github.com/berthwatch-io/berthwatch/internal/source"
	"github.com/berthwatch-io/berthwatch/internal/store"
	"github.com/berthwatch-io/berthwatch/internal/timeline"
	"github.com/berthwatch-io/berthwatch/internal/vessel"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("berthd starting", "data_dir", cfg.Agent.DataDir, "cron", cfg.Agent.CronSpec)

	os.MkdirAll(cfg.Agent.DataDir, 0o755)
	st, err := store.Open(filepath.Join(cfg.Agent.DataDir, "berthwatch.db"), logger.With("component", "store"))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	fleet := vessel.DefaultFleet
	if len(cfg.Fleet) > 0 {
		fleet = make(map[string]string, len(vessel.DefaultFleet)+len(cfg.Fleet))
		for name, id := range vessel.DefaultFleet {
			fleet[name] = id
		}
		for name, id := range cfg.Fleet {
			fleet[name] = id
		}
	}
	reg := vessel.NewRegistry(fleet)

	jetties := timeline.DefaultJetties
	if len(cfg.Jetties) > 0 {
		jetties = make(map[string]timeline.Jetty, len(timeline.DefaultJetties)+len(cfg.Jetties))
		for code, j := range timeline.DefaultJetties {
			jetties[code] = j
		}
		for code, j := range cfg.Jetties {
			jetties[code] = j
		}
	}

	retry := source.DefaultRetry
	mail := source.NewMailbox(cfg.Mailbox.GatewayURL, cfg.Mailbox.Token, retry, logger.With("component", "mailbox"))
	sched := source.NewSchedule(cfg.Schedule.FeedURL, cfg.Schedule.Token, retry, st, logger.With("component", "schedule"))

	var weather agent.WeatherSource
	if cfg.Weather.APIKey != "" {
		weather = source.NewWeather(cfg.Weather.APIKey, cfg.Weather.Location, retry, logger.With("component", "weather"))
	}

	var sinks []notify.Notifier
	if cfg.Notify.TeamsWebhookURL != "" {
		sinks = append(sinks, notify.NewTeams(cfg.Notify.TeamsWebhookURL, logger.With("sink", "teams")))
	}
	if cfg.Notify.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlack(cfg.Notify.SlackWebhookURL, logger.With("sink", "slack")))
	}
	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, logger.With("sink", "telegram"))
		if err != nil {
			logger.Error("failed to init telegram", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, tg)
	}

	runner := &agent.Runner{
		Mail:     mail,
		Schedule: sched,
		Weather:  weather,
		Store:    st,
		Reconciler: &checklist.Reconciler{
			Store:    st,
			Registry: reg,
			Logger:   logger.With("component", "checklist"),
		},
		Assembler: &report.Assembler{
			Registry:    reg,
			Jetties:     jetties,
			VisibleDays: cfg.Agent.VisibleDays,
		},
		Notifier: &notify.Multi{Sinks: sinks, Logger: logger.With("component", "notify")},
		Registry: reg,
		Logger:   logger.With("component", "runner"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sch, err := scheduler.New(cfg.Agent.CronSpec, cfg.Agent.WorkHours,
		func(runCtx context.Context) {
			if err := runner.Run(runCtx); err != nil && err != agent.ErrRunInProgress {
				logger.Error("scheduled run failed", "error", err)
			}
		}, logger.With("component", "scheduler"))
	if err != nil {
		logger.Error("invalid cron schedule", "error", err)
		os.Exit(1)
	}
	go safeGo(logger, "scheduler", func() { sch.Start(ctx) })

	apiSrv := apiPkg.NewServer(runner, st, logBuf, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"))
	go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
	logger.Info("api server started", "port", cfg.API.Port)

	if cfg.Agent.RunAtStart {
		go safeGo(logger, "initial-run", func() {
			if err := runner.Run(ctx); err != nil {
				logger.Error("initial run failed", "error", err)
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	logger.Info("berthd stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
