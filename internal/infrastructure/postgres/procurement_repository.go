package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

var _ repository.ProcurementRepository = (*ProcurementRepo)(nil)

// ProcurementRepo procurements sobre PostgreSQL: solo lectura y vínculo con lotes.
type ProcurementRepo struct {
	q Querier
}

// NewProcurementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcurementRepository(q Querier) *ProcurementRepo {
	return &ProcurementRepo{q: q}
}

// FindUnbatched procurements de esos IDs con cultivo (sin mayúsculas) y lote coincidentes y sin lote asignado.
func (r *ProcurementRepo) FindUnbatched(ctx context.Context, ids []string, crop string, lotNo int) ([]*entity.Procurement, error) {
	query := `
		SELECT id, farmer_id, crop, lot_no, quantity, processing_batch_id, created_at
		FROM procurements
		WHERE id = ANY($1::uuid[])
		  AND lower(crop) = lower($2)
		  AND lot_no = $3
		  AND processing_batch_id IS NULL`
	rows, err := r.q.Query(ctx, query, ids, crop, lotNo)
	if err != nil {
		return nil, fmt.Errorf("find unbatched procurements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Procurement
	for rows.Next() {
		var p entity.Procurement
		if err := rows.Scan(&p.ID, &p.FarmerID, &p.Crop, &p.LotNo, &p.Quantity, &p.ProcessingBatchID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan procurement: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// AttachToBatch vincula los procurements al lote solo si siguen libres. Si alguno fue tomado
// entretanto, devuelve domain.ErrProcurementMismatch y la tx debe revertirse.
func (r *ProcurementRepo) AttachToBatch(ctx context.Context, ids []string, batchID string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE procurements SET processing_batch_id = $2
		WHERE id = ANY($1::uuid[]) AND processing_batch_id IS NULL`,
		ids, batchID,
	)
	if err != nil {
		return fmt.Errorf("attach procurements: %w", err)
	}
	if cmd.RowsAffected() != int64(len(ids)) {
		return domain.ErrProcurementMismatch
	}
	return nil
}

// DetachFromBatch libera todos los procurements del lote.
func (r *ProcurementRepo) DetachFromBatch(ctx context.Context, batchID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `UPDATE procurements SET processing_batch_id = NULL WHERE processing_batch_id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("detach procurements: %w", err)
	}
	return cmd.RowsAffected(), nil
}
