package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jhoicas/Procesamiento-api/internal/application/auth"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *auth.UserUseCase
	BatchUC        *processing.BatchUseCase
	QueryUC        *processing.QueryUseCase
	StageUC        *processing.StageUseCase
	SaleUC         *processing.SaleUseCase
	ReportUC       *processing.ReportUseCase
	DB             Pinger
	Cache          Pinger
	Cookie         SessionCookie
	AllowedOrigins []string
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	if len(deps.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(deps.AllowedOrigins, ","),
			AllowCredentials: true,
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
			AllowHeaders:     "Content-Type,Authorization,X-Requested-With",
		}))
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	healthHandler := NewHealthHandler(deps.DB, deps.Cache, log.Named("health"))
	api.Get("/health", healthHandler.Check)

	// Auth (público salvo /me y /register)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Cookie, log.Named("auth"))
	requireAuth := AuthMiddleware(deps.AuthUC, deps.Cookie.Name)
	adminOnly := RequireRole(entity.RoleAdmin)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/register", requireAuth, adminOnly, authHandler.Register)
	authGroup.Get("/me", requireAuth, withPrincipal(authHandler.Me))

	// Usuarios (admin)
	userHandler := NewUserHandler(deps.UserUC, log.Named("users"))
	users := api.Group("/users", requireAuth, adminOnly)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", withPrincipal(userHandler.Update))
	users.Patch("/:id/toggle-status", withPrincipal(userHandler.ToggleStatus))
	users.Delete("/:id", userHandler.Delete)

	// Lotes de procesamiento
	batchHandler := NewBatchHandler(deps.BatchUC, deps.QueryUC, deps.ReportUC, log.Named("processing-batches"))
	batches := api.Group("/processing-batches", requireAuth)
	batches.Post("/", withPrincipal(batchHandler.Create))
	batches.Get("/", batchHandler.List)
	batches.Get("/:batchId", batchHandler.GetByID)
	batches.Get("/:batchId/report", batchHandler.Report)
	batches.Delete("/:batchId", adminOnly, batchHandler.Delete)

	// Etapas y secado
	stageHandler := NewStageHandler(deps.StageUC, log.Named("processing-stages"))
	stages := api.Group("/processing-stages", requireAuth)
	stages.Post("/", withPrincipal(stageHandler.Create))
	stages.Put("/:stageId/finalize", stageHandler.Finalize)
	stages.Put("/:stageId/cancel", stageHandler.Cancel)
	stages.Post("/:stageId/drying", stageHandler.AddDrying)
	stages.Get("/:stageId/drying", stageHandler.ListDrying)

	// Ventas
	saleHandler := NewSaleHandler(deps.SaleUC, log.Named("sales"))
	sales := api.Group("/sales", requireAuth)
	sales.Post("/", withPrincipal(saleHandler.Create))
	sales.Delete("/:saleId", adminOnly, saleHandler.Delete)
}
