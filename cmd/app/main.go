package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fulfillment/cmd"
	paymentamqp "fulfillment/internal/adapters/in/amqp"
	httpadapter "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/postgres/migrations"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configs, loaded, err := cmd.LoadConfig(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := newLogger(configs)
	if !loaded {
		logger.Info().Msg(".env not found, using the process environment")
	}

	if err := run(configs, logger); err != nil {
		logger.Fatal().Err(err).Msg("fulfillment service stopped")
	}
}

func run(configs cmd.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := openDatabase(configs)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if configs.DBMigrate {
		if err := migrations.Up(sqlDB, logger.With().Str("component", "migrations").Logger()); err != nil {
			return err
		}
	}

	var publisher ports.EventPublisher
	if brokers := kafka.ParseBrokers(configs.KafkaBrokers); len(brokers) > 0 {
		stagePublisher := kafka.NewStageEventPublisher(kafka.NewWriter(brokers, configs.KafkaStageTopic), logger)
		defer stagePublisher.Close()
		publisher = stagePublisher
		logger.Info().Strs("brokers", brokers).Str("topic", configs.KafkaStageTopic).Msg("publishing stage events")
	}

	m := metrics.New()
	app, err := cmd.NewCompositionRoot(configs, gormDB, publisher, m, logger)
	if err != nil {
		return err
	}

	server, err := app.CreateHTTPServer()
	if err != nil {
		return err
	}
	router, err := httpadapter.NewRouter(server, m, logger)
	if err != nil {
		return err
	}

	jobManager, err := app.CreateJobManager()
	if err != nil {
		return err
	}
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	g, ctx := errgroup.WithContext(ctx)

	if configs.AMQPURL != "" {
		consumer, err := app.CreatePaymentConsumer()
		if err != nil {
			return err
		}
		if err := startPaymentConsumer(ctx, g, consumer, configs, logger); err != nil {
			return err
		}
	}

	startWebServer(ctx, g, router, configs.HTTPPort, logger)

	return g.Wait()
}

func newLogger(configs cmd.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(configs.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if configs.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "fulfillment").Logger()
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dialector := gormpostgres.Open(configs.DSN())
	if configs.DBDriver == cmd.DriverPQ {
		dialector = gormpostgres.New(gormpostgres.Config{
			DriverName: "postgres",
			DSN:        configs.DSN(),
		})
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return gormDB, nil
}

func startPaymentConsumer(
	ctx context.Context,
	g *errgroup.Group,
	consumer *paymentamqp.PaymentConsumer,
	configs cmd.Config,
	logger zerolog.Logger,
) error {
	conn, err := amqp.Dial(configs.AMQPURL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	deliveries, err := paymentamqp.Subscribe(ch, configs.AMQPPaymentExchange, configs.AMQPPaymentQueue)
	if err != nil {
		_ = conn.Close()
		return err
	}

	logger.Info().
		Str("exchange", configs.AMQPPaymentExchange).
		Str("queue", configs.AMQPPaymentQueue).
		Msg("consuming payment events")

	g.Go(func() error {
		defer conn.Close()
		return consumer.Consume(ctx, deliveries)
	})
	return nil
}

func startWebServer(ctx context.Context, g *errgroup.Group, e *echo.Echo, port string, logger zerolog.Logger) {
	g.Go(func() error {
		logger.Info().Str("port", port).Msg("http server listening")
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
}
