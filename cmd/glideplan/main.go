package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yegors/glideplan/internal/api"
	"github.com/yegors/glideplan/internal/config"
	"github.com/yegors/glideplan/internal/polar"
	"github.com/yegors/glideplan/internal/storage/sqlite"
	"github.com/yegors/glideplan/internal/thermals"
	"github.com/yegors/glideplan/internal/weglide"
	"github.com/yegors/glideplan/internal/wx"
	"github.com/yegors/glideplan/pkg/logger"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting glideplan",
		logger.String("config", *configPath),
		logger.String("weather_provider", cfg.Weather.Provider),
	)

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open database", logger.Error(err))
	}
	defer db.Close()

	thermalStorage, err := sqlite.NewThermalStorage(db, log)
	if err != nil {
		log.Fatal("Failed to initialize thermal storage", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weglideClient := weglide.NewClient(
		cfg.WeGlide.BaseURL,
		cfg.WeGlide.Token,
		time.Duration(cfg.WeGlide.RequestTimeoutSecs)*time.Second,
		log,
	)
	syncThermals(ctx, weglideClient, thermalStorage, log)

	var weather thermals.WeatherSource
	if cfg.Weather.Provider == "meteomatics" {
		user := os.Getenv("METEO_USER")
		pass := os.Getenv("METEO_PASS")
		if user == "" || pass == "" {
			log.Fatal("Weather provider meteomatics requires METEO_USER and METEO_PASS")
		}
		weather = wx.NewMeteomaticsClient(
			cfg.Weather.BaseURL,
			user,
			pass,
			time.Duration(cfg.Weather.RequestTimeoutSecs)*time.Second,
			log,
		)
	}

	thermalService, err := thermals.NewService(thermals.Options{
		BBox:             cfg.Area.BBox,
		GridResM:         cfg.Area.GridResM,
		MinScore:         cfg.Area.MinThermalScore,
		MaxCandidates:    cfg.Area.MaxCandidates,
		CandidateSepM:    cfg.Area.CandidateSepM,
		PriorBandwidthKm: cfg.WeGlide.PriorBandwidthKm,
		PriorMinSamples:  cfg.WeGlide.PriorMinSamples,
		FallbackWind: wx.Constant{
			WindSpeedMS: cfg.Weather.WindSpeedMS,
			WindFromDeg: cfg.Weather.WindDirFromDeg,
			VerticalMS:  cfg.Weather.VerticalMS,
		},
	}, weather, thermalStorage, log)
	if err != nil {
		log.Fatal("Failed to create thermal service", logger.Error(err))
	}

	gliderPolar, err := polar.New(
		cfg.Glider.PolarA,
		cfg.Glider.PolarB,
		cfg.Glider.PolarC,
		cfg.Glider.Degradation,
	)
	if err != nil {
		log.Fatal("Failed to create glider polar", logger.Error(err))
	}

	router := api.NewRouter(thermalService, gliderPolar, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		log.Error("HTTP server failed", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server cleanly", logger.Error(err))
	}

	log.Info("Shutdown complete")
}

// syncThermals pulls the thermal replay for the last few hours into local
// storage so the prior has data on a cold start. Failures are logged and
// tolerated; the planner degrades to weather-only scoring.
func syncThermals(ctx context.Context, client *weglide.Client, storage *sqlite.ThermalStorage, log *logger.Logger) {
	now := time.Now().UTC().Truncate(time.Hour)
	var stored int64
	for i := 0; i < 6; i++ {
		at := now.Add(-time.Duration(i) * time.Hour)

		obs, err := client.GetThermals(ctx, at)
		if err != nil {
			log.Warn("Failed to fetch thermal replay",
				logger.Time("at", at),
				logger.Error(err),
			)
			continue
		}

		n, err := storage.StoreObservations(obs)
		if err != nil {
			log.Warn("Failed to store thermal replay", logger.Error(err))
			continue
		}
		stored += n
	}

	total, err := storage.Count()
	if err != nil {
		log.Warn("Failed to count stored thermals", logger.Error(err))
		return
	}
	log.Info("Thermal replay sync complete",
		logger.Int64("new_observations", stored),
		logger.Int64("total_observations", total),
	)
}
