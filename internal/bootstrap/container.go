package bootstrap

import (
	"fmt"

	"career-counselor-be/internal/config"
	"career-counselor-be/internal/controller"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/pkg/mailer"
	"career-counselor-be/internal/pkg/ratelimit"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/internal/repository/memory"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/internal/service"
	"career-counselor-be/pkg/events"
	"career-counselor-be/pkg/events/inproc"
	"career-counselor-be/pkg/llm"
	"career-counselor-be/pkg/llm/factory"
	pktNats "career-counselor-be/pkg/nats"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	UserController  controller.IUserController
	AuthController  controller.IAuthController
	OAuthController controller.IOAuthController
	ChatController  controller.IChatController

	// Background Services (Exposed for main.go to run)
	ActivityService *service.ActivityService

	Logger logger.ILogger

	closers []func()
}

// Option overrides a dependency the container would otherwise build from
// configuration.
type Option func(*options)

type options struct {
	llmProvider    llm.LLMProvider
	logger         logger.ILogger
	activityLogger logger.ILogger
	counter        ratelimit.Counter
}

func WithLLMProvider(p llm.LLMProvider) Option {
	return func(o *options) { o.llmProvider = p }
}

func WithLogger(l logger.ILogger) Option {
	return func(o *options) { o.logger = l }
}

func WithActivityLogger(l logger.ILogger) Option {
	return func(o *options) { o.activityLogger = l }
}

func WithRateLimitCounter(c ratelimit.Counter) Option {
	return func(o *options) { o.counter = c }
}

func NewContainer(db *gorm.DB, cfg *config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{}

	// 1. Core Facades
	sysLogger := o.logger
	if sysLogger == nil {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}
	activityLogger := o.activityLogger
	if activityLogger == nil {
		activityLogger = logger.NewIsolatedLogger(cfg.App.ActivityLogFilePath)
	}
	c.Logger = sysLogger

	uowFactory := unitofwork.NewRepositoryFactory(db)

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
			cfg.App.ClientURL,
			sysLogger,
		)
	} else {
		emailService = mailer.NewNoopEmailService(sysLogger)
	}

	// 2. Event Bus
	publisher, subscriber := c.newEventBus(cfg, sysLogger)

	// 3. LLM
	llmProvider := o.llmProvider
	if llmProvider == nil {
		p, err := factory.NewLLMProvider(factory.Config{
			Provider: cfg.Ai.LLMProvider,
			Model:    cfg.Ai.LLMModel,
			BaseURL:  cfg.Ai.LLMBaseURL,
			APIKey:   cfg.Ai.LLMAPIKey,
			Timeout:  cfg.Ai.RequestTimeout,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
		}
		llmProvider = p
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    llmProvider.ModelName(),
	})

	// 4. Rate Limiting
	counter := o.counter
	if counter == nil {
		counter = c.newRateLimitCounter(cfg, sysLogger)
	}
	sendLimiter := ratelimit.NewLimiter(counter, cfg.RateLimit.SendMessages, cfg.RateLimit.Window)

	// 5. Services
	tokens, err := service.NewTokenIssuer(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)
	if err != nil {
		c.Close()
		return nil, err
	}
	historyFetcher := service.NewHistoryFetcher(uowFactory)
	completionClient := service.NewCompletionClient(llmProvider, sysLogger)
	summaryCache := memory.NewSummaryCache(cfg.Ai.SummaryCacheTTL)

	userService := service.NewUserService(uowFactory)
	authService := service.NewAuthService(uowFactory, tokens, emailService, publisher, sysLogger)
	oauthService := service.NewOAuthService(cfg.Auth, uowFactory, tokens, publisher, sysLogger)
	chatSessionService := service.NewChatSessionService(uowFactory, publisher, sysLogger)
	chatMessageService := service.NewChatMessageService(
		uowFactory,
		historyFetcher,
		completionClient,
		summaryCache,
		publisher,
		sysLogger,
		service.ChatOptions{
			HistoryLimit:        cfg.Ai.HistoryLimit,
			SummaryHistoryLimit: cfg.Ai.SummaryHistoryLimit,
		},
	)

	c.ActivityService = service.NewActivityService(subscriber, activityLogger, sysLogger)

	// 6. Controllers
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	sendLimit := serverutils.NewRateLimitMiddleware(sendLimiter, "send", sysLogger)

	c.UserController = controller.NewUserController(userService, jwtMiddleware)
	c.AuthController = controller.NewAuthController(authService)
	c.OAuthController = controller.NewOAuthController(oauthService, cfg.App.ClientURL)
	c.ChatController = controller.NewChatController(chatSessionService, chatMessageService, jwtMiddleware, sendLimit)

	return c, nil
}

// newEventBus prefers NATS when configured and falls back to the in-process
// bus, so a missing broker never blocks startup.
func (c *Container) newEventBus(cfg *config.Config, log logger.ILogger) (events.Publisher, events.Subscriber) {
	if cfg.App.EventBus == "nats" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err == nil {
			natsSub, subErr := pktNats.NewSubscriber(cfg.App.NatsURL)
			if subErr == nil {
				c.closers = append(c.closers, natsSub.Close, natsPub.Close)
				log.Info("BOOTSTRAP", "Using NATS event bus", map[string]interface{}{"url": cfg.App.NatsURL})
				return natsPub, natsSub
			}
			natsPub.Close()
			err = subErr
		}
		log.Warn("BOOTSTRAP", "NATS unavailable, using in-process event bus", map[string]interface{}{"error": err.Error()})
	}

	bus := inproc.NewBus()
	c.closers = append(c.closers, bus.Close)
	return bus, bus
}

func (c *Container) newRateLimitCounter(cfg *config.Config, log logger.ILogger) ratelimit.Counter {
	if cfg.App.RedisURL == "" {
		return ratelimit.NewMemoryCounter()
	}

	counter, err := ratelimit.NewRedisCounter(cfg.App.RedisURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Redis unavailable, rate limiting in process", map[string]interface{}{"error": err.Error()})
		return ratelimit.NewMemoryCounter()
	}
	c.closers = append(c.closers, func() { _ = counter.Close() })
	return counter
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
