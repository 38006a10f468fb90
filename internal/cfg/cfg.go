package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	InputPath      string
	TrainPath      string
	TestPath       string
	SourceURL      string
	Threshold      float64
	TrainFraction  float64
	TestFraction   float64
	TrainerURL     string
	TrainerTimeout time.Duration
	FetchTimeout   time.Duration
	DataPath       string
	MetricsPort    int
	LogLevel       string
}

type ConfigFile struct {
	Dataset struct {
		Input       string `yaml:"input"`
		TrainOutput string `yaml:"trainOutput"`
		TestOutput  string `yaml:"testOutput"`
		SourceURL   string `yaml:"sourceURL"`
	} `yaml:"dataset"`

	Split struct {
		RatingThreshold float64 `yaml:"ratingThreshold"`
		TrainFraction   float64 `yaml:"trainFraction"`
		TestFraction    float64 `yaml:"testFraction"`
	} `yaml:"split"`

	Trainer struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"trainer"`

	System struct {
		DataPath     string `yaml:"dataPath"`
		MetricsPort  int    `yaml:"metricsPort"`
		LogLevel     string `yaml:"logLevel"`
		FetchTimeout string `yaml:"fetchTimeout"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Parse durations
	trainerTimeout, err := time.ParseDuration(config.Trainer.Timeout)
	if err != nil {
		trainerTimeout = 30 * time.Second
	}

	fetchTimeout, err := time.ParseDuration(config.System.FetchTimeout)
	if err != nil {
		fetchTimeout = 60 * time.Second
	}

	settings := Settings{
		InputPath:      getEnvOrDefault("INPUT_PATH", withDefault(config.Dataset.Input, "data/ratings.csv")),
		TrainPath:      getEnvOrDefault("TRAIN_OUTPUT", withDefault(config.Dataset.TrainOutput, "data/ratings-train.csv")),
		TestPath:       getEnvOrDefault("TEST_OUTPUT", withDefault(config.Dataset.TestOutput, "data/ratings-test.csv")),
		SourceURL:      getEnvOrDefault("SOURCE_URL", config.Dataset.SourceURL),
		Threshold:      getFloatFromEnvOrConfig("RATING_THRESHOLD", config.Split.RatingThreshold, 3.0),
		TrainFraction:  getFloatFromEnvOrConfig("TRAIN_FRACTION", config.Split.TrainFraction, 0.9),
		TestFraction:   getFloatFromEnvOrConfig("TEST_FRACTION", config.Split.TestFraction, 0.1),
		TrainerURL:     getEnvOrDefault("TRAINER_URL", config.Trainer.BaseURL),
		TrainerTimeout: trainerTimeout,
		FetchTimeout:   fetchTimeout,
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", withDefault(config.System.LogLevel, "info")),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		InputPath:      getEnvOrDefault("INPUT_PATH", "data/ratings.csv"),
		TrainPath:      getEnvOrDefault("TRAIN_OUTPUT", "data/ratings-train.csv"),
		TestPath:       getEnvOrDefault("TEST_OUTPUT", "data/ratings-test.csv"),
		SourceURL:      os.Getenv("SOURCE_URL"), // optional
		Threshold:      getFloatOrDefault("RATING_THRESHOLD", 3.0),
		TrainFraction:  getFloatOrDefault("TRAIN_FRACTION", 0.9),
		TestFraction:   getFloatOrDefault("TEST_FRACTION", 0.1),
		TrainerURL:     os.Getenv("TRAINER_URL"), // optional
		TrainerTimeout: getDurationOrDefault("TRAINER_TIMEOUT", 30*time.Second),
		FetchTimeout:   getDurationOrDefault("FETCH_TIMEOUT", 60*time.Second),
		DataPath:       os.Getenv("DATA_PATH"), // optional
		MetricsPort:    getIntOrDefault("METRICS_PORT", 0),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func withDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.InputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if settings.TrainPath == "" || settings.TestPath == "" {
		return fmt.Errorf("both output paths must be specified")
	}
	if settings.TrainPath == settings.TestPath {
		return fmt.Errorf("training and test outputs must be distinct paths")
	}

	if settings.Threshold < 0 || settings.Threshold > 10 {
		return fmt.Errorf("rating threshold must be between 0 and 10, got %f", settings.Threshold)
	}
	if settings.TrainFraction <= 0 || settings.TrainFraction > 1 {
		return fmt.Errorf("train fraction must be in (0,1], got %f", settings.TrainFraction)
	}
	if settings.TestFraction < 0 || settings.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in [0,1), got %f", settings.TestFraction)
	}
	if settings.TrainFraction+settings.TestFraction > 1.0 {
		return fmt.Errorf("train and test fractions must not sum above 1, got %f",
			settings.TrainFraction+settings.TestFraction)
	}

	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between 1024 and 65535, got %d", settings.MetricsPort)
	}

	if settings.TrainerTimeout < time.Second || settings.TrainerTimeout > 10*time.Minute {
		return fmt.Errorf("trainer timeout must be between 1s and 10m, got %v", settings.TrainerTimeout)
	}
	if settings.FetchTimeout < time.Second || settings.FetchTimeout > 10*time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 10m, got %v", settings.FetchTimeout)
	}

	return nil
}
