package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"surveydash/adapters/kobo"
	"surveydash/adapters/nominatim"
	"surveydash/adapters/postgres"
	"surveydash/app"
	"surveydash/internal"
	"surveydash/internal/config"
	"surveydash/internal/geo"
	"surveydash/internal/retry"
	"surveydash/internal/session"
	"surveydash/ports"
)

var logger = internal.DefaultLogger.WithComponent("Container")

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Registry   *kobo.Registry
	KoboClient *kobo.Client
	Source     ports.SurveySource
	Geocoder   *nominatim.Client
	Reports    ports.ReportRepository

	// Services
	Resolver *geo.Resolver
	Sessions *session.Manager
	Service  *app.DashboardService
}

// New creates a new dependency injection container. The report archive is
// attached later by InitWithDatabase.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{Config: cfg}
	c.initAdapters()
	c.Sessions = session.NewManager(cfg.Session.TTL)
	c.buildService()
	return c, nil
}

func (c *Container) initAdapters() {
	cfg := c.Config

	c.Registry = kobo.NewRegistry(cfg.Kobo.Assets)
	c.KoboClient = kobo.NewClient(kobo.Config{
		BaseURL:  cfg.Kobo.BaseURL,
		Token:    cfg.Kobo.Token,
		Timeout:  cfg.Kobo.Timeout,
		PageSize: cfg.Kobo.PageSize,
	})
	c.Source = c.KoboClient
	if cfg.Kobo.CacheTTL > 0 {
		c.Source = kobo.NewCachedSource(c.KoboClient, cfg.Kobo.CacheTTL)
	}

	c.Geocoder = nominatim.NewClient(nominatim.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		RateLimit: cfg.Geocoder.RateLimit,
	})
	var geocoder ports.ReverseGeocoder = c.Geocoder
	if cfg.Geocoder.CacheTTL > 0 {
		geocoder = nominatim.NewCachedGeocoder(c.Geocoder, cfg.Geocoder.CacheTTL)
	}
	c.Resolver = geo.NewResolver(geocoder, geo.ResolverConfig{
		Policy: retry.Policy{
			MaxAttempts: cfg.Geocoder.Retries,
			Delay:       cfg.Geocoder.RetryDelay,
			Multiplier:  cfg.Geocoder.RetryBackoff,
			Sleeper:     retry.TimerSleeper{},
		},
		Workers: cfg.Geocoder.Workers,
	})
}

func (c *Container) buildService() {
	c.Service = app.NewDashboardService(app.Dependencies{
		Registry:                 c.Registry,
		Source:                   c.Source,
		Sessions:                 c.Sessions,
		Resolver:                 c.Resolver,
		Reports:                  c.Reports,
		Regions:                  c.Config.Analysis.Regions,
		DurationThresholdMinutes: c.Config.Analysis.DurationThresholdMinutes,
	})
}

// InitWithDatabase attaches the report archive
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db
	c.Reports = postgres.NewReportRepository(db)
	c.buildService()
	logger.Info("Report archive enabled")
	return nil
}

// ConnectDatabase opens the configured database, when there is one, and
// attaches it
func (c *Container) ConnectDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		logger.Info("DATABASE_URL not set, report archive disabled")
		return nil
	}
	db, err := postgres.Connect(ctx, c.Config.Database.URL)
	if err != nil {
		return err
	}
	return c.InitWithDatabase(db)
}

// Shutdown releases adapters and the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	c.KoboClient.Close()
	c.Geocoder.Close()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
