package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/horde-survival/internal/api"
	"github.com/annel0/horde-survival/internal/auth"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/eventbus"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/metrics"
	"github.com/annel0/horde-survival/internal/observability"
	"github.com/annel0/horde-survival/internal/runner"
	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML конфигурация раннера (ENV HORDE_CONFIG)")
		balancePath = flag.String("balance", "", "YAML таблицы баланса (ENV HORDE_BALANCE)")
		runs        = flag.Int("runs", 1, "Число забегов")
		seed        = flag.Int64("seed", 0, "Начальное зерно, 0: из баланса")
		maxTicks    = flag.Uint64("max-ticks", 0, "Предел тиков на забег, 0: без предела")
		tickRate    = flag.Int("tick-rate", 60, "Тиков на игровую секунду")
		mode        = flag.String("mode", "", "Режим победы: time, waves или endless")
		metricsAddr = flag.String("metrics-addr", "", "Адрес /metrics, например :2112")
		redisAddr   = flag.String("redis", "", "Адрес Redis для итогов забегов")
		badgerDir   = flag.String("badger", "", "Каталог BadgerDB для итогов забегов")
		mariaDSN    = flag.String("maria", "", "DSN MariaDB для итогов забегов")
		mongoURI    = flag.String("mongo", "", "URI MongoDB для итогов забегов")
		natsURL     = flag.String("nats", "", "NATS JetStream для событий забегов")
		apiAddr     = flag.String("api", "", "Адрес REST API итогов, например :8088")
		serve       = flag.Bool("serve", false, "Не выходить после забегов, пока работает REST API")
		withOtel    = flag.Bool("otel", false, "Включить трассировку тиков через OTLP")
		logLevel    = flag.String("log-level", "", "Уровень логирования")
		history     = flag.Int("history", 0, "Показать последние N сохранённых забегов и выйти")
		hashPass    = flag.String("hash-password", "", "Вывести bcrypt-хеш пароля оператора и выйти")
	)
	flag.Parse()

	if *hashPass != "" {
		hash, err := auth.HashPassword(*hashPass)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println(hash)
		return
	}

	if err := logging.InitDefaultLogger("simrun"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := applyLogging(cfg.Logging, *logLevel); err != nil {
		log.Fatalf("❌ %v", err)
	}

	balance, err := config.LoadBalance(*balancePath)
	if err != nil {
		log.Fatalf("❌ Баланс отклонён: %v", err)
	}
	if *mode != "" {
		balance.Run.WinMode = *mode
		if err := balance.Validate(); err != nil {
			log.Fatalf("❌ Баланс отклонён: %v", err)
		}
	}
	if *seed == 0 {
		*seed = balance.Seed
	}
	if *tickRate <= 0 {
		log.Fatalf("❌ tick-rate должен быть положительным")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *badgerDir != "" {
		cfg.Storage.BadgerDir = *badgerDir
	}
	if *mariaDSN != "" {
		cfg.Storage.MariaDSN = *mariaDSN
	}
	if *mongoURI != "" {
		cfg.Storage.MongoURI = *mongoURI
	}
	repo, err := openRepo(ctx, cfg, *redisAddr)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer repo.Close()

	if *history > 0 {
		printHistory(ctx, repo, *history)
		return
	}

	if *withOtel || cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Config{
			ServiceName: cfg.Telemetry.GetServiceName(),
			Version:     "dev",
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Warn("трассировка отключена: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.NATS, *natsURL)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	eventbus.Init(bus)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		log.Fatalf("❌ %v", err)
	}

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	simMetrics := metrics.NewSimMetrics(reg)
	procMetrics, err := metrics.NewProcessMetrics(reg)
	if err != nil {
		logging.Warn("метрики процесса недоступны: %v", err)
	}
	addr := *metricsAddr
	if addr == "" && cfg.Metrics.Port > 0 {
		addr = fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort())
	}
	if addr != "" {
		busMetrics.StartHTTP(addr)
	} else {
		busMetrics.Start()
	}
	defer busMetrics.Stop()

	// === REST API ===
	restAddr := *apiAddr
	if restAddr == "" && cfg.API.GetAPIPort() > 0 {
		restAddr = fmt.Sprintf(":%d", cfg.API.GetAPIPort())
	}
	var rest *api.RestServer
	if restAddr != "" {
		var authenticator *auth.Authenticator
		if len(cfg.API.Operators) > 0 {
			authenticator, err = auth.NewAuthenticator(cfg.API.Secret, cfg.API.Operators, 12*time.Hour)
			if err != nil {
				log.Fatalf("❌ Ключ API: %v", err)
			}
		}
		rest = api.NewRestServer(api.Config{
			Port:     restAddr,
			Repo:     repo,
			Balance:  balance,
			Registry: reg,
			Process:  procMetrics,
			Auth:     authenticator,
		})
		rest.Start()
		defer rest.Stop(context.Background())
	}

	r, err := runner.New(runner.Options{
		Balance:   balance,
		DeltaTime: 1 / float64(*tickRate),
		MaxTicks:  *maxTicks,
		Repo:      repo,
		Publisher: eventbus.NewBridge(ctx, nil),
		Observers: []sim.Observer{simMetrics},
	})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	started := time.Now()
	results, err := r.RunMany(ctx, *seed, *runs)
	if err != nil {
		logging.Error("❌ %v", err)
	}

	summary(results)
	if procMetrics != nil {
		cpu, _ := procMetrics.CPUUsage()
		logging.Info("⏱️ Готово за %v (аптайм %s, CPU %.1f%%, куча %.1f MB)",
			time.Since(started).Round(time.Millisecond), procMetrics.Uptime(), cpu, procMetrics.MemoryUsage())
	}
	if *serve && rest != nil && ctx.Err() == nil {
		logging.Info("🌐 Забеги завершены, REST API работает до Ctrl+C")
		<-ctx.Done()
	}
	if err != nil {
		os.Exit(1)
	}
}

func applyLogging(lc config.LoggingConfig, override string) error {
	level := lc.Level
	if override != "" {
		level = override
	}
	if level != "" {
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		logging.GetLoggerManager().SetAllLevels(lvl)
	}
	for component, name := range lc.Components {
		lvl, err := logging.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
		logging.GetLoggerManager().Override(component, lvl)
	}
	if lc.Dir != "" {
		return logging.EnableFileLogging(lc.Dir)
	}
	return nil
}

// openRepo выбирает хранилище: Redis, MariaDB, MongoDB, BadgerDB, иначе память
func openRepo(ctx context.Context, cfg *config.Config, flagAddr string) (storage.RunRepo, error) {
	rc := cfg.Redis
	addr := flagAddr
	if addr == "" {
		addr = rc.GetAddr()
	}
	switch {
	case addr != "":
		redisCfg := storage.DefaultRedisConfig()
		redisCfg.Addr = addr
		redisCfg.Password = rc.Password
		redisCfg.DB = rc.DB
		if rc.KeyPrefix != "" {
			redisCfg.KeyPrefix = rc.KeyPrefix
		}
		logging.Info("💾 Итоги забегов в Redis %s", addr)
		return storage.NewRedisRunRepo(ctx, redisCfg)
	case cfg.Storage.MariaDSN != "":
		logging.Info("💾 Итоги забегов в MariaDB")
		return storage.NewMariaRunRepo(cfg.Storage.MariaDSN)
	case cfg.Storage.MongoURI != "":
		logging.Info("💾 Итоги забегов в MongoDB")
		return storage.NewMongoRunRepo(ctx, storage.MongoConfig{URI: cfg.Storage.MongoURI})
	case cfg.Storage.BadgerDir != "":
		logging.Info("💾 Итоги забегов в BadgerDB %s", cfg.Storage.BadgerDir)
		return storage.NewBadgerRunRepo(cfg.Storage.BadgerDir)
	}
	logging.Info("💾 Итоги забегов хранятся в памяти")
	return storage.NewMemoryRunRepo(), nil
}

func openBus(nc config.NATSConfig, flagURL string) (eventbus.EventBus, error) {
	url := flagURL
	if url == "" {
		url = nc.GetURL()
	}
	if url == "" {
		return eventbus.NewMemoryBus(4096), nil
	}
	bus, err := eventbus.NewJetStreamBus(url, nc.Stream, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	logging.Info("📨 События забегов публикуются в NATS %s", url)
	return bus, nil
}

func summary(results []storage.RunResult) {
	if len(results) == 0 {
		return
	}
	sum := storage.Summarize(results)
	parts := make([]string, 0, len(sum.Outcomes))
	for _, o := range []string{"victory", "game_over", "aborted"} {
		if sum.Outcomes[o] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", o, sum.Outcomes[o]))
		}
	}
	logging.Info("📊 Забегов %d: %s; в среднем %.1fс, %.1f убийств, уровень %.1f, точность %.0f%%",
		sum.Runs, strings.Join(parts, " "), sum.AvgElapsed, sum.AvgKills, sum.AvgLevel, sum.AvgAccuracy*100)
}

func printHistory(ctx context.Context, repo storage.RunRepo, n int) {
	recent, err := repo.Recent(ctx, n)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	for _, res := range recent {
		fmt.Printf("%s  %-36s  seed=%-6d %-9s %6.1fs  kills=%-5d level=%d\n",
			res.FinishedAt.Format(time.RFC3339), res.RunID, res.Seed, res.Outcome,
			res.Elapsed, res.Stats.Kills, res.Stats.LevelReached)
	}
}
