package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/config"
	"github.com/dyoh/upbitwatch/internal/domain"
	"github.com/dyoh/upbitwatch/internal/infrastructure/exchange"
	"github.com/dyoh/upbitwatch/internal/infrastructure/logger"
	"github.com/dyoh/upbitwatch/internal/infrastructure/metrics"
	"github.com/dyoh/upbitwatch/internal/infrastructure/notify"
	"github.com/dyoh/upbitwatch/internal/infrastructure/sheet"
	"github.com/dyoh/upbitwatch/internal/infrastructure/storage"
	"github.com/dyoh/upbitwatch/internal/usecase"
	"github.com/dyoh/upbitwatch/internal/web"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	watchFile := flag.String("watch", "", "watch list path (overrides config)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *watchFile != "" {
		cfg.Watch.File = *watchFile
	}

	secrets, err := config.SecretsFromEnv(cfg.Notify.Channel)
	if err != nil {
		fmt.Printf("Missing credentials: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	journal, err := storage.NewSQLiteJournal(cfg.Journal.Path)
	if err != nil {
		log.Fatal("Failed to init journal", zap.Error(err))
	}
	defer journal.Close()

	upbit, err := exchange.NewUpbitAdapter(secrets.UpbitAccessKey, secrets.UpbitSecretKey, cfg.Exchange.RESTEndpoint, log)
	if err != nil {
		log.Fatal("Failed to init exchange", zap.Error(err))
	}

	var notifier domain.Notifier
	switch cfg.Notify.Channel {
	case "slack":
		notifier = notify.NewSlackNotifier(secrets.SlackWebhookURL, log)
	case "telegram":
		notifier, err = notify.NewTelegramNotifier(secrets.TelegramToken, secrets.TelegramChatID, log)
		if err != nil {
			log.Fatal("Failed to init telegram", zap.Error(err))
		}
	default:
		notifier = notify.NewLogNotifier(log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rows, err := sheet.NewXLSXSource(cfg.Watch.File, log).Load()
	if err != nil {
		log.Fatal("Failed to load watch list", zap.Error(err))
	}
	log.Info("Watch list loaded", zap.String("file", cfg.Watch.File), zap.Int("rows", len(rows)))

	marketList, err := upbit.ListMarkets(ctx)
	if err != nil {
		log.Fatal("Failed to list markets", zap.Error(err))
	}
	index := usecase.NewMarketIndex(marketList)
	log.Info("Market index built", zap.Int("markets", index.Len()))

	if cfg.Watch.UseTickStream {
		codes := watchedMarkets(rows, index)
		if len(codes) > 0 {
			stream := exchange.NewTickerStream(cfg.Exchange.WSEndpoint, codes, log)
			upbit.AttachStream(stream)
			go stream.Run(ctx)
		}
	}

	rec := metrics.NewPromRecorder()
	normalizer := usecase.NewNormalizer(cfg.Exchange.MinOrderKRW)
	service := usecase.NewWatchService(upbit, notifier, journal, index, normalizer, cfg.Watch.CandleWindow, rec, log)
	driver := usecase.NewPollDriver(service, upbit, notifier, journal, rows, cfg.Interval(), cfg.Watch.HourlyStatus, rec, log)

	driver.ApplyJournal(ctx)
	driver.AnnounceStart(ctx)

	server := web.NewServer(cfg.Server.Port, driver, metrics.Handler(), log)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("Web server failed", zap.Error(err))
		}
	}()
	defer server.Shutdown(context.Background())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info("Shutting down...", zap.String("signal", sig.String()))
		driver.NotifyShutdown(context.Background(), sig.String())
		cancel()
	}()

	if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
		driver.NotifyShutdown(context.Background(), err.Error())
		log.Fatal("Poll loop failed", zap.Error(err))
	}
	driver.NotifyShutdown(context.Background(), "poll loop exited")
}

// watchedMarkets resolves the market codes of the active rows for the
// ticker stream subscription.
func watchedMarkets(rows []*domain.WatchRow, index *usecase.MarketIndex) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, r := range rows {
		if !r.Active {
			continue
		}
		code, ok := index.Resolve(r.Name)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}
