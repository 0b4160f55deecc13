package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/adapters/cartography"
	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/adapters/solver"
	"fleet-route-service/internal/api"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/db"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, the cartography provider, the
// native solver engine) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	metrics.Register()

	var runRepo ports.RunRepository
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		sqlDB, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer sqlDB.Close()

		// Schema init is idempotent; running it on startup keeps local runs simple.
		if err := repositories.InitSchema(sqlDB); err != nil {
			log.Fatal(err)
		}
		runRepo = repositories.NewPostgresRunRepository(sqlDB)
	} else {
		log.Println("DATABASE_URL not set; optimization runs will not be persisted")
	}

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}

	gatewayOpts := []cartography.GatewayOption{
		cartography.WithRateLimit(cfg.CartographyRateLimit),
	}
	if matrixCache := newMatrixCache(cfg, sqlDB); matrixCache != nil {
		gatewayOpts = append(gatewayOpts, cartography.WithMatrixCache(matrixCache))
	}

	gateway, err := cartography.NewGateway(provider, cfg.MaxRouteStops, cfg.MaxMatrixElements, gatewayOpts...)
	if err != nil {
		log.Fatal(err)
	}

	router := api.NewRouter(api.Deps{
		Cartographer:        gateway,
		Solver:              solver.NewEngine(),
		Runs:                runRepo,
		VehiclePenalty:      cfg.VehiclePenalty,
		GridSearchTimeLimit: time.Duration(cfg.GridSearchTimeLimit) * time.Second,
	})

	// Timeouts are tuned for cold-cache matrix assembly (external API latency).
	log.Printf("Server listening addr=:%s provider=%s", cfg.Port, provider.Name())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func newProvider(cfg config.Config) (cartography.Provider, error) {
	metric := domain.DistanceMetric(cfg.DistanceMetric)
	switch cfg.Provider {
	case "valhalla":
		return cartography.NewValhallaClient(cfg.ValhallaURL, metric)
	default:
		return cartography.NewGoogleClient(cfg.GoogleAPIKey, metric)
	}
}

// newMatrixCache prefers Redis when configured and falls back to the SQL
// cache when only Postgres is available.
func newMatrixCache(cfg config.Config, sqlDB *sql.DB) ports.MatrixCache {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("invalid REDIS_URL, matrix cache disabled: %v", err)
			return nil
		}
		redisCache, err := cache.NewRedisMatrixCache(
			redis.NewClient(opts),
			time.Duration(cfg.CacheTTLSeconds)*time.Second,
		)
		if err != nil {
			log.Printf("redis matrix cache disabled: %v", err)
			return nil
		}
		return redisCache
	}
	if sqlDB != nil {
		return cache.NewSQLMatrixCache(sqlDB)
	}
	return nil
}
