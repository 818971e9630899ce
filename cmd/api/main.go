package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Procesamiento-api/internal/application/auth"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	infrapdf "github.com/jhoicas/Procesamiento-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Procesamiento-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Procesamiento-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Procesamiento-api/internal/interfaces/http"
	"github.com/jhoicas/Procesamiento-api/pkg/config"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Dur("tx_timeout", cfg.DB.TxTimeout).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	// Cantidades como números JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := infraredis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de Redis")
	}
	defer redisClient.Close()
	cacheStore := infraredis.NewStore(redisClient)
	if err := cacheStore.Ping(ctx); err != nil {
		// La caché es opcional: sin Redis cada lectura va a la DB.
		log.Warn().Err(err).Msg("Redis no disponible al iniciar, se continúa sin caché")
	}

	batchRepo := postgres.NewProcessingBatchRepository(pool)
	stageRepo := postgres.NewProcessingStageRepository(pool)
	dryingRepo := postgres.NewDryingEntryRepository(pool)
	procurementRepo := postgres.NewProcurementRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.DB.TxTimeout)
	codes := postgres.NewBatchCodeGenerator(pool)

	cache := processing.NewCacheManager(cacheStore, cfg.Cache.TTL, log.Named("cache"))
	batchUC := processing.NewBatchUseCase(txRunner, batchRepo, procurementRepo, codes, cache)
	queryUC := processing.NewQueryUseCase(batchRepo, cache)
	stageUC := processing.NewStageUseCase(txRunner, stageRepo, dryingRepo, cache)
	saleUC := processing.NewSaleUseCase(txRunner, cache)
	reportUC := processing.NewReportUseCase(queryUC, infrapdf.NewMarotoBatchReport())
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	userUC := auth.NewUserUseCase(userRepo)

	created, err := authUC.EnsureAdmin(ctx, auth.AdminSeed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("administrador inicial")
	}
	if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("administrador inicial creado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Procesamiento API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:   authUC,
		UserUC:   userUC,
		BatchUC:  batchUC,
		QueryUC:  queryUC,
		StageUC:  stageUC,
		SaleUC:   saleUC,
		ReportUC: reportUC,
		DB:       pool,
		Cache:    cacheStore,
		Cookie: httpRouter.SessionCookie{
			Name:   cfg.Cookie.Name,
			Secure: cfg.Cookie.Secure,
			MaxAge: time.Duration(cfg.JWT.Expiration) * time.Minute,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
