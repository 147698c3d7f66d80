package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matteworks/matte-server/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const mattePrefix = "MATTE"

type Config struct {
	Port           int       `mapstructure:"port"`
	Host           string    `mapstructure:"host"`
	Environment    string    `mapstructure:"environment"`
	MatteHome      string    `mapstructure:"matte_home"`
	AssetsDir      string    `mapstructure:"assets_dir"`
	ModelsDir      string    `mapstructure:"models_dir"`
	TempDir        string    `mapstructure:"temp_dir"`
	PublicDir      string    `mapstructure:"public_dir"`
	FilesystemType string    `mapstructure:"filesystem_type"`
	DisableAuth    bool      `mapstructure:"disable_auth"`
	MaxUploadMB    int64     `mapstructure:"max_upload_mb"`

	// Segmentation defaults; individual requests may override them.
	Device        string   `mapstructure:"device"`
	DefaultModel  string   `mapstructure:"default_model"`
	EnabledModels []string `mapstructure:"enabled_models"`
	WarmupModel   bool     `mapstructure:"warmup_model"`

	// Path to the onnxruntime shared library. Empty means the
	// platform default search path.
	OrtLibraryPath string `mapstructure:"ort_library_path"`

	S3     *S3Config     `mapstructure:"s3"`
	DB     *DBConfig     `mapstructure:"db"`
	Pulsar *PulsarConfig `mapstructure:"pulsar"`
	OpenAI *OpenAIConfig `mapstructure:"openai"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	PublicUrl   string `mapstructure:"public_url"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type PulsarConfig struct {
	URL string `mapstructure:"url"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the matte home directory, loads the
// .env and config.yaml files that live there and unmarshals the final
// viper state into the package-level config.
func LoadEnvAndConfigFiles() error {
	matteHome, err := getMatteHome()
	if err != nil {
		return err
	}

	if err := createMatteHomeDirs(matteHome); err != nil {
		return err
	}

	viper.Set("matte_home", matteHome)
	viper.Set("assets_dir", getSubdir(matteHome, "assets_dir", "assets"))
	viper.Set("models_dir", getSubdir(matteHome, "models_dir", "models"))
	viper.Set("temp_dir", getSubdir(matteHome, "temp_dir", "temp"))

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(matteHome, ".env")
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	viper.SetEnvPrefix(mattePrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	viper.AutomaticEnv()

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(matteHome)
	}

	if err := loadConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			fmt.Println("No config file found. Using default config.")
			config = &Config{}
			return viper.Unmarshal(config)
		}
		return err
	}

	return nil
}

func loadConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func IsLoaded() bool {
	return config != nil
}

func GetConfig() *Config {
	return config
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

// Returns the matte home directory path, in order of precedence:
// the `matte_home` viper key, the `MATTE_HOME` environment variable,
// then the default home directory.
func getMatteHome() (string, error) {
	matteHome := viper.GetString("matte_home")
	if matteHome == "" {
		matteHome = os.Getenv("MATTE_HOME")
		if matteHome == "" {
			matteHome = DefaultMatteHome
		}
	}

	matteHome, err := pathutil.ExpandPath(matteHome)
	if err != nil {
		return "", ErrMatteHomeExpandFailed
	}

	return matteHome, nil
}

func getSubdir(matteHome, key, name string) string {
	dir := viper.GetString(key)
	if dir == "" {
		dir = filepath.Join(matteHome, name)
	}

	dir, err := pathutil.ExpandPath(dir)
	if err != nil {
		return filepath.Join(matteHome, name)
	}

	return dir
}

func createMatteHomeDirs(matteHome string) error {
	if err := os.MkdirAll(matteHome, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create matte home directory: %w", err)
	}

	for _, subdir := range []string{"assets", "models", "temp"} {
		dir := filepath.Join(matteHome, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}
