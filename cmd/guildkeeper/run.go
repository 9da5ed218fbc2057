package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xela07ax/guildkeeper/internal/activity"
	"github.com/xela07ax/guildkeeper/internal/assistant"
	"github.com/xela07ax/guildkeeper/internal/audit"
	"github.com/xela07ax/guildkeeper/internal/backup"
	"github.com/xela07ax/guildkeeper/internal/commands"
	"github.com/xela07ax/guildkeeper/internal/console/handler"
	"github.com/xela07ax/guildkeeper/internal/console/server"
	"github.com/xela07ax/guildkeeper/internal/gate"
	"github.com/xela07ax/guildkeeper/internal/health"
	"github.com/xela07ax/guildkeeper/internal/infra"
	"github.com/xela07ax/guildkeeper/internal/infra/auth"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"github.com/xela07ax/guildkeeper/internal/operations"
	"github.com/xela07ax/guildkeeper/internal/platform/discord"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and start all subsystems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runBot(ctx, cfg, logger)
	},
}

func newGateStore(ctx context.Context, cfg *infra.Config) (gate.Store, *redis.Client, error) {
	switch cfg.Gate.Backend {
	case "", "memory":
		return gate.NewMemoryStore(), nil, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := gate.NewRedisStore(rdb)
		if err := store.Ping(ctx); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return store, rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown gate backend %q", cfg.Gate.Backend)
	}
}

func runBot(ctx context.Context, cfg *infra.Config, logger *zap.Logger) error {
	// 1. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	// 2. Гейт ручной инициализации
	store, rdb, err := newGateStore(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	g := gate.New(store, logger)
	if err := g.Init(ctx); err != nil {
		return err
	}

	// 3. Платформа
	client, err := discord.NewClient(cfg.Discord.Token, logger)
	if err != nil {
		return err
	}
	notifier := discord.NewNotifier(client.Session(), discord.NotifierConfig{
		Rate:        cfg.Discord.NotifyRate,
		Burst:       cfg.Discord.NotifyBurst,
		MaxRequests: cfg.Discord.CBMaxRequests,
		Interval:    cfg.Discord.CBInterval,
		Timeout:     cfg.Discord.CBTimeout,
	})

	// 4. Здоровье каналов
	recorder := activity.NewRecorder(cfg.Health.MaxTrackedChannels)
	scorer := health.NewScorer(recorder, client, client, cfg.Health.InactivityThreshold)
	dispatcher := health.NewDispatcher(client, notifier, cfg.Health.AdminMarkers, logger)
	scheduler := health.NewScheduler(client, scorer, dispatcher, g, m,
		cfg.Health.InitialDelay, cfg.Health.Interval, logger)

	// 5. Журнал аудита: Stop дописывает буфер на диск
	auditStore, err := audit.NewFileStore(cfg.Audit.Dir)
	if err != nil {
		return err
	}
	journal := audit.NewJournal(auditStore, audit.Options{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
		RecentSize:    cfg.Audit.RecentSize,
	}, m, logger)
	journal.Start()
	defer journal.Stop()

	// 6. Бэкапы
	backupStore, err := backup.NewStore(cfg.Backup.Dir)
	if err != nil {
		return err
	}
	backups := backup.NewService(client, backupStore, g, m,
		cfg.Backup.InitialDelay, cfg.Backup.Interval, cfg.Backup.Retention, logger)

	// 7. Операции, ассистент, команды
	activityLog := operations.NewActivityLog(cfg.Operations.ActivityLogSize)
	welcomer := operations.NewWelcomer(client, notifier, g, cfg.Operations.WelcomeMarkers, m, logger)
	monitor := operations.NewMonitor(activityLog, g, cfg.Operations.ReportInterval, logger)
	asst := assistant.New(cfg.Assistant.Prefix, cfg.Assistant.ModerationKeywords,
		client, notifier, activityLog, recorder, logger)
	registry := commands.NewRegistry(logger,
		commands.CompleteInitialSetup(g, logger),
		commands.HealthStatus(scheduler),
	)

	router := &discord.Router{
		Recorder:  recorder,
		Journal:   journal,
		Activity:  activityLog,
		Welcomer:  welcomer,
		Assistant: asst,
		Commands:  registry,
		Metrics:   m,
		Logger:    logger.Named("events"),
	}
	router.Attach(ctx, client)

	if err := client.Open(ctx); err != nil {
		return err
	}
	defer client.Close()

	// 8. Операторская консоль
	var validator auth.TokenValidator
	if len(cfg.Console.PublicKey) > 0 {
		key, err := auth.ParseRSAPublicKey(cfg.Console.PublicKey)
		if err != nil {
			return err
		}
		validator = auth.NewOperatorValidator(key, cfg.Console.TokenIssuer, cfg.Console.TokenAudience)
	}
	console := server.NewConsoleServer(cfg.Console, logger, validator, reg, server.Handlers{
		Health:   handler.NewHealthHandler(scheduler),
		Activity: handler.NewActivityHandler(activityLog, recorder),
		Audit:    handler.NewAuditHandler(journal),
		Backup:   handler.NewBackupHandler(backupStore),
		Gate:     handler.NewGateHandler(g),
	})

	printBanner(g)

	// 9. Фоновые циклы живут до сигнала; ошибка консоли гасит остальные
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { scheduler.Start(ctx); return nil })
	eg.Go(func() error { backups.Start(ctx); return nil })
	eg.Go(func() error { monitor.Start(ctx); return nil })
	eg.Go(func() error { return console.Run(ctx) })
	if rdb != nil {
		eg.Go(func() error { g.Watch(ctx, rdb); return nil })
	}

	err = eg.Wait()
	logger.Info("shutting down")
	return err
}

func printBanner(g *gate.Gate) {
	green := color.New(color.FgGreen).SprintFunc()
	status := color.New(color.FgYellow).SprintFunc()
	if g.Ready() {
		status = color.New(color.FgGreen, color.Bold).SprintFunc()
	}
	fmt.Printf("%s guildkeeper is running\n", green("✓"))
	fmt.Printf("  Automated systems: %s\n", status(g.Status()))
	if !g.Ready() {
		fmt.Println("  Run /complete-initial-setup as the server owner to enable automation.")
	}
}
