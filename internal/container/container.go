package container

import (
	"context"
	"fmt"
	"time"

	"surveytab/adapters/api"
	"surveytab/adapters/excel"
	"surveytab/adapters/postgres"
	"surveytab/app"
	"surveytab/internal"
	"surveytab/internal/codebook"
	"surveytab/internal/config"
	"surveytab/internal/dataset"
	"surveytab/internal/errors"
	"surveytab/internal/migration"
	"surveytab/internal/render"
	"surveytab/internal/testkit"
	"surveytab/ports"

	"github.com/jmoiron/sqlx"
)

// loadGrace covers schema inference on top of the source fetch.
const loadGrace = 5 * time.Second

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config   *config.Config
	Codebook *codebook.Codebook

	// Infrastructure, set only for the sql source
	DB        *sqlx.DB
	Responses *postgres.ResponseRepository

	Source ports.DatasetSource
	Cache  *dataset.Cache

	Tables    *app.TableService
	Variables *app.VariableService

	logger *internal.Logger
}

// New creates a container: loads the codebook, opens the configured dataset
// source and wires the services over one snapshot cache
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		logger: internal.DefaultLogger.With("container"),
	}

	if err := c.initCodebook(); err != nil {
		return nil, err
	}
	if err := c.initSource(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	renderer := render.New()
	c.Cache = dataset.NewCache(c.Source, c.Codebook.Ordinal)
	c.Cache.SetLoadTimeout(cfg.Source.FetchTimeout + loadGrace)
	c.Tables = app.NewTableService(c.Cache, c.Codebook, renderer)
	c.Variables = app.NewVariableService(c.Cache, c.Codebook, renderer)
	return c, nil
}

func (c *Container) initCodebook() error {
	if c.Config.Codebook == "" {
		c.Codebook = codebook.Default()
		return nil
	}
	cb, err := codebook.Load(c.Config.Codebook)
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("codebook %s: %v", c.Config.Codebook, err))
	}
	c.Codebook = cb
	return nil
}

func (c *Container) initSource(ctx context.Context) error {
	src := c.Config.Source
	switch src.Kind {
	case config.SourceAPI:
		dc := api.DefaultDashboardConfig(src.DashboardURL)
		dc.Timeout = src.FetchTimeout
		c.Source = api.NewDashboardSource(dc)
	case config.SourceFile:
		fc := excel.DefaultFileConfig(src.File)
		fc.Sheet = src.Sheet
		fc.MultiSelect = c.Codebook.MultiSelect
		if err := fc.Validate(); err != nil {
			return errors.ConfigInvalid(err.Error())
		}
		c.Source = excel.NewFileSource(fc)
	case config.SourceSQL:
		if err := c.initDatabase(ctx); err != nil {
			return err
		}
		c.Source = postgres.NewResponseSource(c.Responses, c.Config.Database.Driver)
	default:
		gen := testkit.DefaultSurveyConfig()
		gen.Rows = c.Config.Mock.Rows
		gen.Seed = c.Config.Mock.Seed
		c.Source = testkit.NewMockSource(gen, c.Codebook)
	}
	c.logger.Info("dataset source: %s", c.Source.Name())
	return nil
}

// initDatabase connects and migrates the responses store
func (c *Container) initDatabase(ctx context.Context) error {
	db, err := postgres.Connect(c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}
	c.DB = db
	c.Responses = postgres.NewResponseRepository(db)
	return nil
}

// Warm loads the first snapshot. A failure is logged, not fatal: the cache
// retries on the next request.
func (c *Container) Warm(ctx context.Context) {
	snap, err := c.Cache.Refresh(ctx)
	if err != nil {
		c.logger.Warn("initial dataset load failed: %v", err)
		return
	}
	c.logger.Info("loaded %d records from %s (%s)", snap.Len(), snap.Source, snap.Fingerprint.Short())
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
