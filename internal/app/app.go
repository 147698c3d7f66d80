package app

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/db"
	"github.com/matteworks/matte-server/internal/db/drivers"
	"github.com/matteworks/matte-server/internal/db/models"
	"github.com/matteworks/matte-server/internal/db/repository"
	"github.com/matteworks/matte-server/internal/mq"
	"github.com/matteworks/matte-server/internal/segmentation"
	"github.com/matteworks/matte-server/internal/segmentation/onnx"
	"github.com/matteworks/matte-server/internal/services/filestorage"
	"github.com/matteworks/matte-server/internal/services/fileuploader"
	"github.com/matteworks/matte-server/internal/services/modeldownloader"
	"github.com/matteworks/matte-server/internal/services/safetyfilter"
	"github.com/matteworks/matte-server/pkg/logger"
)

type App struct {
	mq           mq.MQ
	db           *bun.DB
	config       *config.Config
	ctx          context.Context
	cancelFunc   context.CancelFunc
	fileuploader *fileuploader.Uploader
	engine       *segmentation.Engine
	downloader   *modeldownloader.Manager

	SafetyFilter *safetyfilter.Filter
	Logger       *zap.Logger

	APIKeyRepository repository.IAPIKeyRepository
	ImageRepository  repository.IImageRepository
	JobRepository    repository.IJobRepository
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithDB(driver drivers.Driver) OptionFunc {
	return func(app *App) error {
		app.db = driver.GetDB()
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

func WithMQ() OptionFunc {
	return func(app *App) error {
		mq, err := mq.NewMQ(app.config)
		if err != nil {
			return err
		}
		app.mq = mq
		return nil
	}
}

func WithDBInitialization() OptionFunc {
	return func(app *App) error {
		dbConn, err := db.NewConnection(app.ctx, app.config)
		if err != nil {
			return err
		}
		app.db = dbConn.GetDB()

		// Ensure tables exist
		err = app.db.RunInTx(app.ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			tables := []interface{}{
				(*models.APIKey)(nil),
				(*models.Job)(nil),
				(*models.Image)(nil),
			}

			for _, table := range tables {
				if _, err := tx.NewCreateTable().
					Model(table).
					IfNotExists().
					Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		app.APIKeyRepository = repository.NewAPIKeyRepository(app.db)
		app.ImageRepository = repository.NewImageRepository(app.db)
		app.JobRepository = repository.NewJobRepository(app.db)

		return nil
	}
}

func WithFileUploader() OptionFunc {
	return func(app *App) error {
		filestorage, err := filestorage.NewFileStorage(app.Config())
		if err != nil {
			return err
		}
		app.fileuploader = fileuploader.NewFileUploader(filestorage, 10, app.Logger)
		return nil
	}
}

func WithSafetyFilter() OptionFunc {
	return func(app *App) error {
		if app.config.OpenAI == nil || app.config.OpenAI.APIKey == "" {
			return fmt.Errorf("openAI API-key is not set. Cannot enable safety filter")
		}

		app.SafetyFilter = safetyfilter.NewFilter(app.config, app.Logger)
		return nil
	}
}

func WithEngine() OptionFunc {
	return func(app *App) error {
		predictor := onnx.NewPredictor(app.config.ModelsDir, app.config.OrtLibraryPath, app.Logger)
		app.engine = segmentation.NewEngine(predictor, app.Logger)
		return nil
	}
}

func WithModelDownloader() OptionFunc {
	return func(app *App) error {
		app.downloader = modeldownloader.NewManager(app.config, app.Logger)
		return nil
	}
}

func NewApp(config *config.Config, options ...OptionFunc) (*App, error) {
	logger, err := logger.NewLogger(config)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     config,
		Logger:     logger,
		cancelFunc: cancel,
	}

	for _, opt := range options {
		if err := opt(app); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.engine != nil {
		app.engine.Close()
	}

	if app.fileuploader != nil {
		app.fileuploader.Stop()
	}

	if app.mq != nil {
		app.mq.Close()
	}

	if app.db != nil {
		app.db.Close()
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) MQ() mq.MQ {
	return app.mq
}

func (app *App) DB() *bun.DB {
	return app.db
}

func (app *App) Uploader() *fileuploader.Uploader {
	return app.fileuploader
}

func (app *App) Engine() *segmentation.Engine {
	return app.engine
}

func (app *App) Downloader() *modeldownloader.Manager {
	return app.downloader
}
