package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	cfgman "NotifyDispatcher/internal/config"
	"NotifyDispatcher/internal/delivery/handlers"
	"NotifyDispatcher/internal/delivery/middleware"
	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/internal/repository/rabbit"
	"NotifyDispatcher/internal/resolver"
	emailsender "NotifyDispatcher/internal/sender/email"
	pushsender "NotifyDispatcher/internal/sender/push"
	"NotifyDispatcher/internal/service"
	"NotifyDispatcher/internal/status"
	"NotifyDispatcher/internal/worker"
	"NotifyDispatcher/pkg/rabbitmq"
	"NotifyDispatcher/pkg/retry"
)

// Application основная структура приложения.
type Application struct {
	config    *cfgman.Config
	server    *ginext.Engine
	redis     *redis.Client
	rabbit    *rabbitmq.RabbitClient
	publisher *rabbit.Publisher
	tracker   *status.Tracker
	consumer  *worker.Consumer
}

// New создает новое приложение.
func New() (*Application, error) {
	// Загружаем конфигурацию
	cfg, err := cfgman.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализируем логгер
	if err := initLogger(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	app := &Application{
		config: cfg,
	}

	return app, nil
}

// Run запускает приложение в зависимости от команды.
func (a *Application) Run() error {
	if len(os.Args) < 2 {
		a.printUsage()
		return fmt.Errorf("no command specified")
	}

	command := os.Args[1]

	switch command {
	case "serve":
		return a.runServe()
	case "consume":
		return a.runConsume()
	case "health":
		return a.runHealthCheck()
	default:
		a.printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage печатает инструкции по использованию.
func (a *Application) printUsage() {
	fmt.Println("NotifyDispatcher - система доставки уведомлений")
	fmt.Println()
	fmt.Println("Доступные команды:")
	fmt.Println("  serve              - запуск HTTP шлюза (постановка в очередь, поллинг статуса)")
	fmt.Println("  consume email|push - запуск воркера канала")
	fmt.Println("  health             - проверка состояния сервисов")
	fmt.Println()
	fmt.Println("Примеры:")
	fmt.Println("  <appname> serve")
	fmt.Println("  <appname> consume email")
	fmt.Println("  <appname> consume push")
	fmt.Println("  <appname> health")
}

// initLogger инициализирует логгер.
func initLogger(level string) error {
	zlog.Init()

	zerologLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	err = zlog.SetLevel(zerologLevel.String())
	if err != nil {
		return err
	}

	return nil
}

// runServe запускает HTTP шлюз.
func (a *Application) runServe() error {
	zlog.Logger.Info().Msg("Starting NotifyDispatcher gateway...")

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	a.redis, err = initRedis(a.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to init redis: %w", err)
	}
	a.rabbit, err = initRabbitMQ(a.config.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to init rabbitmq: %w", err)
	}
	defer a.cleanup()

	a.tracker = status.NewTracker(a.redis, a.config.Status.TTL)
	a.publisher = rabbit.NewPublisher(
		a.rabbit,
		a.config.RabbitMQ.ExchangeName,
		"application/json",
		retry.Strategy{
			Attempts: a.config.RabbitMQ.PublishRetry.Attempts,
			Delay:    a.config.RabbitMQ.PublishRetry.Delay,
			Backoff:  float64(a.config.RabbitMQ.PublishRetry.Backoff),
		})

	a.setupHTTPServer()

	zlog.Logger.Info().Str("address", a.config.HTTP.GetConnectionString()).Msg("HTTP server starting")
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Run(a.config.HTTP.GetConnectionString())
	}()
	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		zlog.Logger.Info().Msg("Received shutdown signal")
		return nil
	}
}

// runConsume запускает воркер указанного канала. Воркер обрабатывает
// сообщения строго последовательно и блокирует до сигнала завершения.
func (a *Application) runConsume() error {
	if len(os.Args) < 3 {
		a.printUsage()
		return fmt.Errorf("consume command requires a channel (email/push)")
	}

	channel := domain.Channel(os.Args[2])
	if !channel.IsValid() {
		return fmt.Errorf("unknown channel: %s (use email/push)", os.Args[2])
	}

	zlog.Logger.Info().Str("channel", channel.String()).Msg("Starting NotifyDispatcher worker...")

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	a.redis, err = initRedis(a.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to init redis: %w", err)
	}

	a.tracker = status.NewTracker(a.redis, a.config.Status.TTL)

	sender, err := a.initSender(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to init sender: %w", err)
	}

	resolverClient := resolver.NewClient(
		a.config.Resolver.UserServiceURL,
		a.config.Resolver.TemplateServiceURL,
		a.config.Resolver.Timeout,
	)

	dispatchService := service.NewDispatchService(resolverClient, a.tracker, sender)
	a.consumer = worker.NewConsumer(dispatchService, a.tracker, a.config.RabbitMQ)

	a.consumer.Start(ctx, channel)
	return nil
}

// initSender создает канал доставки для запущенного воркера.
func (a *Application) initSender(ctx context.Context, channel domain.Channel) (domain.DeliveryChannel, error) {
	switch channel {
	case domain.ChannelEmail:
		return emailsender.NewSMTPSender(
			a.config.Email.Host,
			a.config.Email.Port,
			a.config.Email.Username,
			a.config.Email.Password,
			a.config.Email.From,
			a.config.Email.UseTLS,
		), nil
	case domain.ChannelPush:
		return pushsender.NewFCMSender(ctx, a.config.Push.CredentialsJSON)
	default:
		return nil, domain.ErrUnknownChannel
	}
}

// runHealthCheck проверяет состояние всех подключений.
func (a *Application) runHealthCheck() error {
	fmt.Println("Running health check...")

	// Проверяем подключение к Redis
	if err := a.checkRedis(); err != nil {
		return fmt.Errorf("redis check failed: %w", err)
	}
	fmt.Println("✅ Redis connection: OK")

	// Проверяем подключение к RabbitMQ
	if err := a.checkRabbitMQ(); err != nil {
		return fmt.Errorf("rabbitmq check failed: %w", err)
	}
	fmt.Println("✅ RabbitMQ connection: OK")

	fmt.Println("🎉 All health checks passed!")
	return nil
}

// checkRedis проверяет подключение к Redis.
func (a *Application) checkRedis() error {
	client := redis.New(a.config.Redis.Addr, a.config.Redis.Password, a.config.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

// checkRabbitMQ проверяет подключение к RabbitMQ.
func (a *Application) checkRabbitMQ() error {
	client, err := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            a.config.RabbitMQ.URL,
		ConnectionName: a.config.RabbitMQ.ConnectionName + "-health",
		ConnectTimeout: 5 * time.Second,
		Heartbeat:      5 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	return client.Ping()
}

// initRedis инициализирует подключение к Redis.
func initRedis(cfg cfgman.RedisConfig) (*redis.Client, error) {
	client := redis.New(cfg.Addr, cfg.Password, cfg.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	zlog.Logger.Info().Msg("Redis connection established")
	return client, nil
}

// initRabbitMQ инициализирует подключение к RabbitMQ на стороне шлюза и
// идемпотентно объявляет exchange, в который публикуются запросы.
func initRabbitMQ(cfg cfgman.RabbitMQConfig) (*rabbitmq.RabbitClient, error) {
	client, err := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            cfg.URL,
		ConnectionName: cfg.ConnectionName + "-gateway",
		ConnectTimeout: cfg.ConnectTimeout,
		Heartbeat:      cfg.Heartbeat,
	})
	if err != nil {
		return nil, err
	}

	if err := client.DeclareExchange(cfg.ExchangeName, false); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to declare exchange")
		_ = client.Close()
		return nil, err
	}

	zlog.Logger.Info().Msg("RabbitMQ connection established")
	return client, nil
}

// setupHTTPServer настраивает HTTP сервер шлюза.
func (a *Application) setupHTTPServer() {
	a.server = ginext.New(gin.ReleaseMode)
	a.server.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	}))

	a.server.Use(middleware.RequestIDMiddleware())
	a.server.Use(middleware.LoggingMiddleware())

	h := handlers.NewHandlersSet(a.publisher, a.tracker)
	a.server.GET("/health", h.HealthHandler)
	group := a.server.RouterGroup.Group("notify")
	group.POST("/", h.CreateNotificationHandler)
	group.GET("/:id/status", h.GetStatusHandler)
}

// cleanup освобождает ресурсы.
func (a *Application) cleanup() {
	zlog.Logger.Info().Msg("Cleaning up resources...")

	if a.rabbit != nil {
		_ = a.rabbit.Close()
	}

	zlog.Logger.Info().Msg("Cleanup completed")
}
