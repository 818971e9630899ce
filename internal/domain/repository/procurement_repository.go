package repository

import (
	"context"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
)

// ProcurementRepository puerto para las compras que alimentan un lote.
// El CRUD de procurements está fuera de este servicio; aquí solo se leen, vinculan y desvinculan.
type ProcurementRepository interface {
	// FindUnbatched devuelve los procurements con esos IDs que coinciden con cultivo
	// (sin distinguir mayúsculas) y lote y que aún no pertenecen a ningún lote.
	FindUnbatched(ctx context.Context, ids []string, crop string, lotNo int) ([]*entity.Procurement, error)
	AttachToBatch(ctx context.Context, ids []string, batchID string) error
	// DetachFromBatch limpia processing_batch_id de todos los procurements del lote.
	DetachFromBatch(ctx context.Context, batchID string) (int64, error)
}
