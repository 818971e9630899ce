package repository

import (
	"context"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
)

// ProcessingBatchRepository define el puerto de persistencia para lotes de procesamiento.
type ProcessingBatchRepository interface {
	Create(ctx context.Context, batch *entity.ProcessingBatch) error
	// GetByID solo la cabecera del lote; nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ProcessingBatch, error)
	// GetSnapshot carga el lote completo: etapas (asc) con lecturas y ventas, ventas del lote,
	// procurements y creador. nil, nil si no existe.
	GetSnapshot(ctx context.Context, id string) (*entity.ProcessingBatch, error)
	// GetWithFirstStage cabecera más la etapa 1 (lectura posterior a la creación).
	GetWithFirstStage(ctx context.Context, id string) (*entity.ProcessingBatch, error)
	// ListSnapshots candidatos del listado (búsqueda por código o cultivo, sin paginar),
	// ordenados por fecha de creación descendente. Cada etapa trae su última lectura y sus ventas.
	ListSnapshots(ctx context.Context, search string) ([]*entity.ProcessingBatch, error)
	// Delete elimina el lote (cascada en DB). domain.ErrNotFound si no afectó filas.
	Delete(ctx context.Context, id string) error
}
