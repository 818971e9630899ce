package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const healthProbeTimeout = 3 * time.Second

// Pinger dependencia con chequeo de vida (pool de PostgreSQL, almacén Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeResult resultado de un chequeo.
type ProbeResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse estado de la base de datos y de la caché.
type HealthResponse struct {
	Database  ProbeResult `json:"database"`
	Redis     ProbeResult `json:"redis"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthHandler chequea DB y Redis en paralelo.
type HealthHandler struct {
	db    Pinger
	cache Pinger
	log   *logger.Logger
}

// NewHealthHandler construye el handler.
func NewHealthHandler(db, cache Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, log: log}
}

// Check godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /api/health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	var (
		g           errgroup.Group
		dbRes, rRes ProbeResult
	)
	ctx := c.UserContext()
	g.Go(func() error {
		dbRes = h.probe(ctx, "database", h.db)
		return nil
	})
	g.Go(func() error {
		rRes = h.probe(ctx, "redis", h.cache)
		return nil
	})
	_ = g.Wait()

	return c.JSON(HealthResponse{
		Database:  dbRes,
		Redis:     rRes,
		Message:   healthMessage(dbRes.Success, rRes.Success),
		Timestamp: time.Now().UTC(),
	})
}

func (h *HealthHandler) probe(ctx context.Context, name string, p Pinger) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Str("probe", name).Msg("health check fallido")
		return ProbeResult{Error: err.Error()}
	}
	return ProbeResult{Success: true}
}

func healthMessage(dbOK, redisOK bool) string {
	switch {
	case dbOK && redisOK:
		return "Database and Redis are healthy"
	case !dbOK && !redisOK:
		return "Both Database and Redis are unhealthy"
	case dbOK:
		return "Database is healthy, Redis is unhealthy"
	default:
		return "Redis is healthy, Database is unhealthy"
	}
}
