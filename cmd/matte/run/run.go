package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matteworks/matte-server/internal/app"
	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/segmentation"
	"github.com/matteworks/matte-server/internal/server"
	"github.com/matteworks/matte-server/internal/services/jobs"
)

var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Start the matte server",
	RunE:  runApp,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("port", 8881, "Port to run the server on")
	flags.String("host", "localhost", "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.Bool("disable-auth", false, "Disable authentication when receiving requests")
	flags.String("filesystem-type", "local", "Filesystem type: 'local' or 's3'")
	flags.String("public-dir", "", "Path where static files should be served from. Relative paths are relative to the current working directory, not the location of the matte executable.")
	flags.Int64("max-upload-mb", 25, "Maximum request body size in megabytes. 0 disables the limit")

	flags.String("device", "cpu", "Device to run inference on: 'cpu' or 'gpu'")
	flags.String("default-model", "u2netp", "Model variant used when a request doesn't name one")
	flags.StringSlice("enabled-models", []string{}, "Model variants downloaded on startup")
	flags.Bool("warmup-model", false, "Load the default model on startup")
	flags.String("ort-library-path", "", "Path to the onnxruntime shared library")

	flags.String("db-dsn", "file:./data/main.db", "Database DSN (Connection URL or Path)")
	flags.String("pulsar-url", "", "URL of the pulsar broker. Example: pulsar+ssl://my-cluster.streamnative.cloud:6651")

	flags.String("s3-access-key", "", "S3 access key")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("s3-region-name", "", "S3 region name")
	flags.String("s3-bucket-name", "", "S3 bucket name")
	flags.String("s3-folder", "", "S3 folder")
	flags.String("s3-public-url", "", "Public URL for S3 files")
	flags.String("s3-endpoint-url", "", "S3 endpoint URL")

	viper.BindPFlags(flags)

	bindEnvs()
}

func bindEnvs() {
	// Core settings (will use MATTE_ prefix)
	// Example: MATTE_PORT
	viper.BindEnv("port")
	viper.BindEnv("host")
	viper.BindEnv("environment")
	viper.BindEnv("disable_auth")
	viper.BindEnv("filesystem_type")
	viper.BindEnv("public_dir")
	viper.BindEnv("max_upload_mb")

	viper.BindEnv("device")
	viper.BindEnv("default_model")
	viper.BindEnv("enabled_models")
	viper.BindEnv("warmup_model")
	viper.BindEnv("ort_library_path")

	viper.BindEnv("db.dsn")
	viper.BindEnv("pulsar.url")

	// S3 environment bindings (will automatically use MATTE_ prefix)
	// example: MATTE_S3_ACCESS_KEY
	viper.BindEnv("s3.access_key")
	viper.BindEnv("s3.secret_key")
	viper.BindEnv("s3.region_name")
	viper.BindEnv("s3.bucket_name")
	viper.BindEnv("s3.folder")
	viper.BindEnv("s3.public_url")
	viper.BindEnv("s3.endpoint_url")

	// External API services (does NOT use MATTE_ prefix)
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

func runApp(_ *cobra.Command, _ []string) error {
	errc := make(chan error, 2)
	signalc := make(chan os.Signal, 1)

	app, err := createNewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config()
	ctx := app.Context()

	if err := app.Downloader().EnsureModels(enabledVariants(cfg)); err != nil {
		return err
	}

	if cfg.WarmupModel {
		warmup := segmentation.Config{
			Model:  segmentation.ModelVariant(cfg.DefaultModel),
			Device: segmentation.Device(cfg.Device),
		}
		if err := app.Engine().Load(ctx, warmup); err != nil {
			return err
		}
	}

	server, err := runServer(app)
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			fmt.Println("Server stopped successfully")
		}

		return err
	}

	runner := jobs.NewRunner(
		app.MQ(),
		app.Engine(),
		app.Uploader(),
		app.JobRepository,
		app.ImageRepository,
		app.Logger,
		config.DefaultSegmentTopic,
	)

	go func() {
		if err := runner.Start(ctx); err != nil {
			errc <- err
		}
	}()

	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		server.Stop(ctx)
		return err
	case <-signalc:
		server.Stop(ctx)
		return nil
	}
}

func createNewApp() (*app.App, error) {
	options := []app.OptionFunc{
		app.WithMQ(),
		app.WithDBInitialization(),
		app.WithFileUploader(),
		app.WithEngine(),
		app.WithModelDownloader(),
	}

	cfg := config.MustGetConfig()
	if cfg.OpenAI != nil && cfg.OpenAI.APIKey != "" {
		options = append(options, app.WithSafetyFilter())
	}

	return app.NewApp(cfg, options...)
}

func enabledVariants(cfg *config.Config) []segmentation.ModelVariant {
	if len(cfg.EnabledModels) == 0 {
		if cfg.DefaultModel == "" {
			return []segmentation.ModelVariant{segmentation.ModelU2NetP}
		}
		return []segmentation.ModelVariant{segmentation.ModelVariant(cfg.DefaultModel)}
	}

	variants := make([]segmentation.ModelVariant, 0, len(cfg.EnabledModels))
	for _, name := range cfg.EnabledModels {
		variants = append(variants, segmentation.ModelVariant(name))
	}

	return variants
}

func runServer(app *app.App) (*server.Server, error) {
	server, err := server.NewServer(app.Config())
	if err != nil {
		return nil, err
	}

	// Setup the server routes
	server.SetupRoutes(app)

	errc := make(chan error, 1)
	go func() {
		fmt.Printf("Matte server started on port %v\n", app.Config().Port)
		errc <- server.Start()
	}()

	select {
	case err := <-errc:
		return nil, err
	default:
		return server, nil
	}
}
