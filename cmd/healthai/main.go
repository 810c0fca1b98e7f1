package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"healthai/internal/buckets"
	"healthai/internal/cache"
	"healthai/internal/database"
	"healthai/internal/handlers/assistant"
	"healthai/internal/iam"
	"healthai/internal/middleware"
	"healthai/internal/routers"
	"healthai/internal/shared"
	"healthai/internal/watsonx"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Flags / ENV Variables
	apiKey := flag.String("watsonx-api-key", "", "IBM Cloud API key")
	projectID := flag.String("watsonx-project-id", "", "watsonx.ai project id")
	watsonxURL := flag.String("watsonx-url", shared.DefaultWatsonxURL, "watsonx.ai regional endpoint")
	variant := flag.String("watsonx-variant", watsonx.PresetInference, "Request shape: inference, text-generation or chat")
	modelID := flag.String("model-id", shared.DefaultModelID, "Model to query")
	maxNewTokens := flag.Int("max-new-tokens", shared.DefaultMaxNewTokens, "Maximum tokens generated per answer")
	iamURL := flag.String("iam-url", shared.DefaultIAMURL, "IBM Cloud IAM token endpoint")
	dsn := flag.String("dsn", "", "MySQL DSN for inference logs (optional)")
	redisAddr := flag.String("redis-addr", "", "Redis host:port for the answer cache (optional)")
	metricsAPIKey := flag.String("metrics-api-key", "", "Metrics api key")
	port := flag.Int("port", shared.DefaultPort, "Port to listen on")
	debug := flag.Bool("debug", false, "Debug enabled")

	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	if err := shared.RequireValues(map[string]string{
		"watsonx-api-key":    *apiKey,
		"watsonx-project-id": *projectID,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	// Optional inference log store
	var store buckets.LogStore
	var writeDB *sql.DB
	if *dsn != "" {
		writeDB, err = sql.Open("mysql", *dsn)
		if err != nil {
			panic(fmt.Sprintf("failed initializing sqlClient: %s", err))
		}
		if err = writeDB.Ping(); err != nil {
			panic(fmt.Sprintf("failed ping to sql db: %s", err))
		}
		store = database.NewStore(writeDB)
		log.Info("Inference log enabled")
	}

	// Optional answer cache
	var redisClient redis.Cmdable
	var closeRedis func() error
	if *redisAddr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     *redisAddr,
			Password: "",
			DB:       0,
		})
		if err := rc.Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("failed ping to redis db: %s", err))
		}
		redisClient = rc
		closeRedis = rc.Close
		log.Info("Answer cache enabled")
	}

	defer func() {
		if closeRedis != nil {
			_ = closeRedis()
		}
		if writeDB != nil {
			_ = writeDB.Close()
		}
	}()

	cfg, err := watsonx.ConfigForPreset(*variant)
	if err != nil {
		panic(err)
	}
	cfg.BaseURL = *watsonxURL
	cfg.ModelID = *modelID
	cfg.ProjectID = *projectID
	cfg.Decoding.MaxNewTokens = *maxNewTokens

	httpClient := &http.Client{Timeout: shared.DefaultHTTPTimeout}
	tokens := iam.NewTokenCache(iam.Config{URL: *iamURL, APIKey: *apiKey}, httpClient, log)
	client, err := watsonx.NewClient(cfg, tokens, httpClient, log)
	if err != nil {
		panic(err)
	}

	logBuffer := buckets.NewLogBuffer(store, log)
	answers := cache.NewAnswerCache(redisClient, shared.AnswerCacheTTL, log)
	ah := assistant.NewAssistantHandler(client, client.ModelID(), answers, logBuffer, log)

	e := echo.New()
	e.HideBanner = true
	e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.RequireKey(*metricsAPIKey))

	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewRecoverMiddleware(log))
	base.Use(middleware.NewTrackMiddleware(log))
	routers.RegisterSectionRoutes(base, ah)

	log.Infow("Starting server", "port", *port, "model_id", cfg.ModelID, "variant", *variant)
	go func() {
		if err := e.Start(fmt.Sprintf(":%d", *port)); err != nil && err != http.ErrServerClosed {
			log.Fatalw("shutting down the server", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorw("Failed graceful shutdown", "error", err)
	}
	logBuffer.Shutdown(ctx)
}
