package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"recprep/internal/cfg"
	"recprep/internal/dataprep"
	"recprep/internal/fetch"
	"recprep/internal/metrics"
	"recprep/internal/storage"
	"recprep/internal/trainer"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		configPath   = flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
		input        = flag.String("input", "", "Path to the raw ratings CSV (overrides config)")
		trainOut     = flag.String("train-out", "", "Training output path (overrides config)")
		testOut      = flag.String("test-out", "", "Test output path (overrides config)")
		sourceURL    = flag.String("source-url", "", "Download the ratings CSV from this URL first (overrides config)")
		trainerURL   = flag.String("trainer-url", "", "Base URL of the external training service (overrides config)")
		predictUser  = flag.String("predict-user", "", "User ID for a sample prediction after training")
		predictMovie = flag.String("predict-movie", "", "Movie ID for a sample prediction after training")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// A .env file is optional; ignore a missing one.
	_ = godotenv.Load()

	if *configPath != "" {
		os.Setenv("CONFIG_FILE", *configPath)
	}

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Override config with command line arguments
	if *input != "" {
		c.InputPath = *input
	}
	if *trainOut != "" {
		c.TrainPath = *trainOut
	}
	if *testOut != "" {
		c.TestPath = *testOut
	}
	if *sourceURL != "" {
		c.SourceURL = *sourceURL
	}
	if *trainerURL != "" {
		c.TrainerURL = *trainerURL
	}

	// Initialize components
	m := metrics.New()
	mw := metrics.NewWrapper(m)
	startMetricsServer(c)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	// Download the dataset first when a source URL is configured
	if c.SourceURL != "" {
		fetcher := fetch.New(c.FetchTimeout)
		if err := fetcher.DownloadWithMetrics(c.SourceURL, c.InputPath, mw); err != nil {
			log.Fatal().Err(err).Msg("dataset download failed")
		}
	}

	// Run the preparation
	opts := dataprep.Options{
		InputPath:     c.InputPath,
		TrainPath:     c.TrainPath,
		TestPath:      c.TestPath,
		Threshold:     c.Threshold,
		TrainFraction: c.TrainFraction,
		TestFraction:  c.TestFraction,
	}

	res, err := dataprep.PrepareWithMetrics(opts, mw)
	if err != nil {
		m.PrepareFailures.Inc()
		log.Fatal().Err(err).Msg("dataset preparation failed")
	}

	recordRun(store, c, res)
	runTrainer(c, mw, *predictUser, *predictMovie)
}

// initializeStorage opens the run-history store if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without run history")
			return nil
		}
		return store
	}
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server when a
// metrics port is configured. For a one-shot batch run the server
// lives only as long as the process; scraping it matters for long
// fetch-and-prepare jobs.
func startMetricsServer(c cfg.Settings) {
	if c.MetricsPort == 0 {
		return
	}

	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		}

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// recordRun appends the run to the history store when one is open
func recordRun(store *storage.Store, c cfg.Settings, res *dataprep.Result) {
	if store == nil {
		return
	}

	sha, err := storage.HashFile(c.InputPath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to hash input, recording run without checksum")
	}

	run := storage.Run{
		Ts:           time.Now(),
		InputPath:    c.InputPath,
		InputSHA256:  sha,
		TrainPath:    c.TrainPath,
		TestPath:     c.TestPath,
		BodyRows:     res.BodyRows,
		TrainRows:    res.TrainRows,
		TestRows:     res.TestRows,
		PositiveRows: res.PositiveRows,
		DurationMs:   res.Duration.Milliseconds(),
	}
	if err := store.StoreRun(run); err != nil {
		log.Warn().Err(err).Msg("failed to record run history")
	}
}

// runTrainer drives the external pipeline when a trainer URL is set:
// submit the prepared pair, log the evaluation, and optionally request
// one sample prediction.
func runTrainer(c cfg.Settings, mw *metrics.Wrapper, predictUser, predictMovie string) {
	if c.TrainerURL == "" {
		return
	}

	var pipeline trainer.Pipeline = trainer.NewClient(c.TrainerURL, c.TrainerTimeout, mw)

	eval, err := pipeline.Train(c.TrainPath, c.TestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("external training failed")
	}
	log.Info().
		Float64("accuracy", eval.Accuracy).
		Float64("auc", eval.AUC).
		Str("model", eval.ModelURI).
		Msg("model trained and evaluated")

	if predictUser == "" || predictMovie == "" {
		return
	}

	pred, err := pipeline.Predict(predictUser, predictMovie)
	if err != nil {
		log.Fatal().Err(err).Msg("sample prediction failed")
	}
	log.Info().
		Str("user", predictUser).
		Str("movie", predictMovie).
		Bool("recommend", pred.Label).
		Float64("probability", pred.Probability).
		Float64("score", pred.Score).
		Msg("sample prediction")
}
