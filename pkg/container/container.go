package container

import (
	"github.com/northpeakit/site/config"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/api/handlers"
	"github.com/northpeakit/site/pkg/billing"
	"github.com/northpeakit/site/pkg/cache"
	"github.com/northpeakit/site/pkg/contact"
	"github.com/northpeakit/site/pkg/crm"
	"github.com/northpeakit/site/pkg/email"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/metrics"
	"github.com/northpeakit/site/pkg/plans"
	"github.com/northpeakit/site/pkg/slack"
	"github.com/northpeakit/site/pkg/stripeclient"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Infrastructure. Cache is nil when REDIS_URL is unset or unreachable.
	Cache   *cache.Client
	Catalog *plans.Catalog

	// Services
	Processor      billing.Processor
	BillingService *billing.Service
	ContactService *contact.Service
	EmailService   *email.Service
	SlackService   *slack.Service

	// Handlers
	PaymentHandler    *handlers.PaymentHandler
	PlanHandler       *handlers.PlanHandler
	ContactHandler    *handlers.ContactHandler
	OnboardingHandler *handlers.OnboardingHandler
	WebVitalsHandler  *handlers.WebVitalsHandler
	PhoneHandler      *handlers.PhoneHandler
	HealthHandler     *handlers.HealthHandler

	contactStore contact.Store
}

// Option customizes a Container before services are built.
type Option func(*Container)

// WithProcessor replaces the Stripe processor.
func WithProcessor(p billing.Processor) Option {
	return func(c *Container) { c.Processor = p }
}

// WithCache uses an existing cache instead of dialing REDIS_URL.
func WithCache(cc *cache.Client) Option {
	return func(c *Container) { c.Cache = cc }
}

// WithContactStore replaces the HubSpot client.
func WithContactStore(s contact.Store) Option {
	return func(c *Container) { c.contactStore = s }
}

// New creates and initializes all application dependencies.
// Missing third-party credentials never fail construction.
func New(cfg *config.Config, log logger.Logger, m *metrics.Metrics, opts ...Option) *Container {
	if log == nil {
		log = logger.New(cfg.LogLevel, cfg.LogFormat)
	}
	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Catalog: plans.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	apierrors.SetLogger(log)

	c.initInfrastructure()
	c.initServices()
	c.initHandlers()

	c.Logger.Info("container initialized",
		"environment", cfg.APIEnvironment,
		"stripe", c.stripeMode(),
		"crm", cfg.HubSpotAccessToken != "",
		"redis", c.Cache != nil,
		"slack", c.SlackService.IsEnabled())

	return c
}

// initInfrastructure connects to Redis when configured. Redis is optional.
func (c *Container) initInfrastructure() {
	if c.Cache != nil || c.Config.RedisURL == "" {
		return
	}

	cacheClient, err := cache.NewClient(c.Config.RedisURL, c.Logger)
	if err != nil {
		c.Logger.Warn("redis unavailable, intent budget disabled", "error", err)
		return
	}
	c.Cache = cacheClient
}

// initServices initializes all domain services
func (c *Container) initServices() {
	if c.Processor == nil {
		c.Processor = billing.NewStripeProcessor(billing.StripeConfig{
			SecretKey:         c.Config.StripeSecretKey,
			APIURL:            c.Config.StripeAPIURL,
			MaxNetworkRetries: int64(c.Config.StripeMaxRetries),
		})
	}
	c.BillingService = billing.NewService(c.Processor, billing.ServiceConfig{
		DefaultCurrency: c.Config.DefaultCurrency,
	}, c.Logger)

	c.EmailService = email.NewService(email.Config{
		FromEmail:   c.Config.EmailFrom,
		FromName:    c.Config.EmailFromName,
		SiteURL:     c.Config.SiteURL,
		SalesInbox:  c.Config.SalesInbox,
		SendGridKey: c.Config.SendGridAPIKey,
	}, c.Logger)

	var slackClient slack.SlackClient
	if c.Config.SlackWebhookURL != "" {
		slackClient = slack.NewWebhookClient(c.Config.SlackWebhookURL)
	}
	c.SlackService = slack.NewService(slackClient)

	store := c.contactStore
	if store == nil {
		store = crm.NewClient(crm.Config{
			AccessToken: c.Config.HubSpotAccessToken,
			BaseURL:     c.Config.HubSpotAPIURL,
		})
	}
	c.ContactService = contact.NewService(store, c.SlackService, c.EmailService, c.Logger)

	if c.Metrics != nil {
		c.BillingService.SetMetrics(c.Metrics)
		c.ContactService.SetMetrics(c.Metrics)
	}
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	c.PaymentHandler = handlers.NewPaymentHandler(c.BillingService, c.Config.StripePublishableKey)
	c.PlanHandler = handlers.NewPlanHandler(c.Catalog, c.Config.DefaultCurrency)
	c.ContactHandler = handlers.NewContactHandler(c.ContactService)
	c.PhoneHandler = handlers.NewPhoneHandler()

	var onboardingMetrics handlers.OnboardingRecorder
	var vitalsMetrics handlers.VitalsRecorder
	if c.Metrics != nil {
		onboardingMetrics = c.Metrics
		vitalsMetrics = c.Metrics
	}
	c.OnboardingHandler = handlers.NewOnboardingHandler(c.SlackService, c.EmailService, onboardingMetrics, c.Logger)
	c.WebVitalsHandler = handlers.NewWebVitalsHandler(vitalsMetrics, c.Logger)

	var pinger handlers.Pinger
	if c.Cache != nil {
		pinger = c.Cache
	}
	c.HealthHandler = handlers.NewHealthHandler(pinger)
}

func (c *Container) stripeMode() string {
	if mode := stripeclient.KeyMode(c.Config.StripeSecretKey); mode != "" {
		return mode
	}
	if c.Config.StripeSecretKey == "" {
		return "unconfigured"
	}
	return "unknown"
}

// Close closes all resources
func (c *Container) Close() error {
	if c.ContactService != nil {
		c.ContactService.Wait()
	}
	if c.OnboardingHandler != nil {
		c.OnboardingHandler.Wait()
	}
	if c.Cache == nil {
		return nil
	}
	if err := c.Cache.Close(); err != nil {
		c.Logger.Error("failed to close cache", "error", err)
		return err
	}
	return nil
}
