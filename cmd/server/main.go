package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/career-assessment/internal/catalog"
	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/domain/fiber/handler"
	applog "github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/middleware"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/service"
	"github.com/fadilmartias/career-assessment/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	appLog, err := applog.New(appConfig.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(120, 1*time.Minute))

	db, err := repository.ConnectPostgres(config.LoadDBConfig(), appConfig)
	if err != nil {
		appLog.Fatal("connect database", "error", err)
	}
	if err := repository.Migrate(db); err != nil {
		appLog.Fatal("migrate database", "error", err)
	}

	matchConfig := config.LoadMatchConfig()
	questions, err := loadCatalog(matchConfig.CatalogPath)
	if err != nil {
		appLog.Fatal("load question catalog", "error", err, "path", matchConfig.CatalogPath)
	}
	appLog.Info("question catalog loaded", "version", questions.Version())

	interviewRepo := repository.NewInterviewRepository(db, appLog)
	resultRepo := repository.NewResultRepository(db, appLog)
	careerRepo := repository.NewCareerRepository(db, appLog)

	gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), appLog)
	if err != nil {
		appLog.Fatal("init gemini", "error", err)
	}
	var llm service.TextGenerator = gemini
	if matchConfig.Provider == config.ProviderOpenRouter {
		openRouter, err := service.NewOpenRouterService(config.LoadOpenRouterConfig(), appLog)
		if err != nil {
			appLog.Fatal("init openrouter", "error", err)
		}
		llm = openRouter
	}
	appLog.Info("match provider selected", "provider", matchConfig.Provider)

	generator := service.NewMatchGenerator(service.MatchGeneratorDeps{
		Interviews:   interviewRepo,
		Questions:    questions,
		LLM:          llm,
		Embedder:     gemini,
		Careers:      careerRepo,
		Completeness: usecase.DataCompleteness,
		TopK:         matchConfig.TopK,
	}, appLog)

	var hot usecase.HotResultCache
	if redisConfig := config.LoadRedisConfig(); redisConfig.Addr != "" {
		redisCache, err := repository.NewRedisResultCache(redisConfig, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, serving results from database only", "error", err)
		} else {
			defer redisCache.Close()
			hot = redisCache
		}
	}

	interviewUC := usecase.NewInterviewUsecase(interviewRepo, questions, appLog)
	resultUC := usecase.NewResultUsecase(resultRepo, interviewRepo, generator, hot, appLog)
	careerUC := usecase.NewCareerUsecase(careerRepo, gemini, appLog)

	handler.NewInterviewHandler(interviewUC).RegisterRoutes(app)
	handler.NewResultHandler(resultUC).RegisterRoutes(app)
	handler.NewCatalogHandler(questions).RegisterRoutes(app)
	handler.NewCareerHandler(careerUC).RegisterRoutes(app)

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			appLog.Debug("runtime stats", "goroutines", runtime.NumGoroutine())
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLog.Error("shutdown", "error", err)
		}
	}()

	appLog.Info("server running", "port", appConfig.Port, "env", appConfig.Env)
	if err := app.Listen(appConfig.Port); err != nil {
		appLog.Fatal("listen", "error", err)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
