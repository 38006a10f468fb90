package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults with no env set",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.InputPath != "data/ratings.csv" {
					t.Errorf("expected default InputPath, got %s", settings.InputPath)
				}
				if settings.TrainPath != "data/ratings-train.csv" {
					t.Errorf("expected default TrainPath, got %s", settings.TrainPath)
				}
				if settings.TestPath != "data/ratings-test.csv" {
					t.Errorf("expected default TestPath, got %s", settings.TestPath)
				}
				if settings.Threshold != 3.0 {
					t.Errorf("expected default Threshold 3.0, got %f", settings.Threshold)
				}
				if settings.TrainFraction != 0.9 {
					t.Errorf("expected default TrainFraction 0.9, got %f", settings.TrainFraction)
				}
				if settings.TestFraction != 0.1 {
					t.Errorf("expected default TestFraction 0.1, got %f", settings.TestFraction)
				}
				if settings.TrainerTimeout != 30*time.Second {
					t.Errorf("expected default TrainerTimeout 30s, got %v", settings.TrainerTimeout)
				}
				if settings.MetricsPort != 0 {
					t.Errorf("expected metrics disabled by default, got port %d", settings.MetricsPort)
				}
				if settings.LogLevel != "info" {
					t.Errorf("expected default LogLevel info, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "custom paths and split",
			envVars: map[string]string{
				"INPUT_PATH":       "/tmp/in.csv",
				"TRAIN_OUTPUT":     "/tmp/train.csv",
				"TEST_OUTPUT":      "/tmp/test.csv",
				"RATING_THRESHOLD": "2.5",
				"TRAIN_FRACTION":   "0.8",
				"TEST_FRACTION":    "0.2",
				"METRICS_PORT":     "9090",
				"TRAINER_URL":      "http://localhost:5000",
				"TRAINER_TIMEOUT":  "45s",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.InputPath != "/tmp/in.csv" {
					t.Errorf("expected InputPath /tmp/in.csv, got %s", settings.InputPath)
				}
				if settings.Threshold != 2.5 {
					t.Errorf("expected Threshold 2.5, got %f", settings.Threshold)
				}
				if settings.TrainFraction != 0.8 {
					t.Errorf("expected TrainFraction 0.8, got %f", settings.TrainFraction)
				}
				if settings.TestFraction != 0.2 {
					t.Errorf("expected TestFraction 0.2, got %f", settings.TestFraction)
				}
				if settings.MetricsPort != 9090 {
					t.Errorf("expected MetricsPort 9090, got %d", settings.MetricsPort)
				}
				if settings.TrainerURL != "http://localhost:5000" {
					t.Errorf("expected TrainerURL set, got %s", settings.TrainerURL)
				}
				if settings.TrainerTimeout != 45*time.Second {
					t.Errorf("expected TrainerTimeout 45s, got %v", settings.TrainerTimeout)
				}
			},
		},
		{
			name: "fractions summing above one rejected",
			envVars: map[string]string{
				"TRAIN_FRACTION": "0.9",
				"TEST_FRACTION":  "0.2",
			},
			wantErr: true,
		},
		{
			name: "train fraction out of range rejected",
			envVars: map[string]string{
				"TRAIN_FRACTION": "0",
			},
			wantErr: true,
		},
		{
			name: "identical output paths rejected",
			envVars: map[string]string{
				"TRAIN_OUTPUT": "/tmp/same.csv",
				"TEST_OUTPUT":  "/tmp/same.csv",
			},
			wantErr: true,
		},
		{
			name: "privileged metrics port rejected",
			envVars: map[string]string{
				"METRICS_PORT": "80",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			settings, err := loadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `dataset:
  input: data/ml-latest/ratings.csv
  trainOutput: data/train.csv
  testOutput: data/test.csv
  sourceURL: https://example.com/ratings.csv
split:
  ratingThreshold: 3.5
  trainFraction: 0.85
  testFraction: 0.15
trainer:
  baseURL: http://trainer:5000
  timeout: 2m
system:
  dataPath: data
  metricsPort: 9100
  logLevel: debug
  fetchTimeout: 90s
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", configPath)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.InputPath != "data/ml-latest/ratings.csv" {
		t.Errorf("expected yaml InputPath, got %s", settings.InputPath)
	}
	if settings.SourceURL != "https://example.com/ratings.csv" {
		t.Errorf("expected yaml SourceURL, got %s", settings.SourceURL)
	}
	if settings.Threshold != 3.5 {
		t.Errorf("expected Threshold 3.5, got %f", settings.Threshold)
	}
	if settings.TrainFraction != 0.85 {
		t.Errorf("expected TrainFraction 0.85, got %f", settings.TrainFraction)
	}
	if settings.TestFraction != 0.15 {
		t.Errorf("expected TestFraction 0.15, got %f", settings.TestFraction)
	}
	if settings.TrainerURL != "http://trainer:5000" {
		t.Errorf("expected yaml TrainerURL, got %s", settings.TrainerURL)
	}
	if settings.TrainerTimeout != 2*time.Minute {
		t.Errorf("expected TrainerTimeout 2m, got %v", settings.TrainerTimeout)
	}
	if settings.FetchTimeout != 90*time.Second {
		t.Errorf("expected FetchTimeout 90s, got %v", settings.FetchTimeout)
	}
	if settings.MetricsPort != 9100 {
		t.Errorf("expected MetricsPort 9100, got %d", settings.MetricsPort)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("expected LogLevel debug, got %s", settings.LogLevel)
	}
	if settings.DataPath != "data" {
		t.Errorf("expected DataPath data, got %s", settings.DataPath)
	}
}

func TestLoadFromYAML_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `split:
  ratingThreshold: 3.5
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", configPath)
	t.Setenv("RATING_THRESHOLD", "4")
	t.Setenv("INPUT_PATH", "/override/in.csv")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Threshold != 4.0 {
		t.Errorf("env override should win, got threshold %f", settings.Threshold)
	}
	if settings.InputPath != "/override/in.csv" {
		t.Errorf("env override should win, got input %s", settings.InputPath)
	}
	// Defaults still applied for unspecified values.
	if settings.TrainFraction != 0.9 {
		t.Errorf("expected default TrainFraction, got %f", settings.TrainFraction)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromYAML_Malformed(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("dataset: [not a mapping"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", configPath)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
