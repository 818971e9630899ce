package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProcessingStageRepository puerto de persistencia para etapas.
type ProcessingStageRepository interface {
	Create(ctx context.Context, stage *entity.ProcessingStage) error
	// GetByID etapa sin colecciones; nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ProcessingStage, error)
	// GetLatestForUpdate etapa con mayor processing_count del lote, bloqueada (SELECT FOR UPDATE),
	// con sus lecturas y ventas cargadas. nil, nil si el lote no tiene etapas.
	GetLatestForUpdate(ctx context.Context, batchID string) (*entity.ProcessingStage, error)
	// Finish pasa la etapa a FINISHED con la cantidad final.
	Finish(ctx context.Context, id string, quantityAfterProcess decimal.Decimal, completedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status entity.StageStatus) error
}
