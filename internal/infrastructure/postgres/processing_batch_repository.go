package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

var _ repository.ProcessingBatchRepository = (*ProcessingBatchRepo)(nil)

const batchSelect = `
	SELECT b.id, b.batch_code, b.crop, b.lot_no, b.initial_batch_quantity, b.created_at,
	       b.created_by_id, COALESCE(u.name, '')
	FROM processing_batches b
	LEFT JOIN users u ON u.id = b.created_by_id`

// ProcessingBatchRepo implementación del puerto ProcessingBatchRepository sobre PostgreSQL (pool o tx).
type ProcessingBatchRepo struct {
	q Querier
}

// NewProcessingBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcessingBatchRepository(q Querier) *ProcessingBatchRepo {
	return &ProcessingBatchRepo{q: q}
}

// Create inserta la cabecera del lote. Código repetido -> domain.ErrDuplicate.
func (r *ProcessingBatchRepo) Create(ctx context.Context, b *entity.ProcessingBatch) error {
	query := `
		INSERT INTO processing_batches (id, batch_code, crop, lot_no, initial_batch_quantity, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.BatchCode, b.Crop, b.LotNo, b.InitialBatchQuantity, b.CreatedByID, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert processing batch: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera del lote.
func (r *ProcessingBatchRepo) GetByID(ctx context.Context, id string) (*entity.ProcessingBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, batchSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get processing batch: %w", err)
	}
	return b, nil
}

// GetSnapshot carga el lote completo para el detalle.
func (r *ProcessingBatchRepo) GetSnapshot(ctx context.Context, id string) (*entity.ProcessingBatch, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	batches := []*entity.ProcessingBatch{b}
	if err := r.loadChildren(ctx, batches, false); err != nil {
		return nil, err
	}
	procurements, err := r.loadProcurements(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Procurements = procurements
	return b, nil
}

// GetWithFirstStage cabecera del lote más su etapa 1.
func (r *ProcessingBatchRepo) GetWithFirstStage(ctx context.Context, id string) (*entity.ProcessingBatch, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	row := r.q.QueryRow(ctx,
		`SELECT `+stageColumns+` FROM processing_stages WHERE processing_batch_id = $1 AND processing_count = 1`, id)
	s, err := scanStage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return b, nil
		}
		return nil, fmt.Errorf("get first stage: %w", err)
	}
	b.Stages = []entity.ProcessingStage{*s}
	return b, nil
}

// ListSnapshots candidatos del listado con lo mínimo para resolver su estado:
// etapas, la última lectura de cada etapa y las ventas.
func (r *ProcessingBatchRepo) ListSnapshots(ctx context.Context, search string) ([]*entity.ProcessingBatch, error) {
	query := batchSelect + `
		WHERE $1 = '' OR b.batch_code ILIKE $2 OR b.crop ILIKE $2
		ORDER BY b.created_at DESC`
	rows, err := r.q.Query(ctx, query, search, likePattern(search))
	if err != nil {
		return nil, fmt.Errorf("list processing batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProcessingBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processing batch: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, list, true); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete elimina el lote; etapas, lecturas y ventas caen por ON DELETE CASCADE.
func (r *ProcessingBatchRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM processing_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete processing batch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// loadChildren carga etapas, lecturas y ventas de varios lotes con tres consultas.
func (r *ProcessingBatchRepo) loadChildren(ctx context.Context, batches []*entity.ProcessingBatch, latestEntryOnly bool) error {
	if len(batches) == 0 {
		return nil
	}
	ids := make([]string, len(batches))
	byID := make(map[string]*entity.ProcessingBatch, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	stages, err := loadStages(ctx, r.q, ids)
	if err != nil {
		return err
	}
	stageIDs := make([]string, len(stages))
	for i := range stages {
		stageIDs[i] = stages[i].ID
	}
	entries, err := loadDryingEntries(ctx, r.q, stageIDs, latestEntryOnly)
	if err != nil {
		return err
	}
	sales, err := loadSales(ctx, r.q, `s.processing_batch_id = ANY($1::uuid[])`, ids)
	if err != nil {
		return err
	}
	stageSales := make(map[string][]entity.Sale)
	for _, s := range sales {
		stageSales[s.ProcessingStageID] = append(stageSales[s.ProcessingStageID], s)
		if b := byID[s.ProcessingBatchID]; b != nil {
			b.Sales = append(b.Sales, s)
		}
	}
	for _, s := range stages {
		s.DryingEntries = entries[s.ID]
		s.Sales = stageSales[s.ID]
		if b := byID[s.ProcessingBatchID]; b != nil {
			b.Stages = append(b.Stages, s)
		}
	}
	return nil
}

func (r *ProcessingBatchRepo) loadProcurements(ctx context.Context, batchID string) ([]entity.Procurement, error) {
	query := `
		SELECT p.id, p.farmer_id, COALESCE(f.name, ''), COALESCE(f.village, ''), p.crop, p.lot_no,
		       p.quantity, p.processing_batch_id, p.created_at
		FROM procurements p
		LEFT JOIN farmers f ON f.id = p.farmer_id
		WHERE p.processing_batch_id = $1
		ORDER BY p.created_at`
	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch procurements: %w", err)
	}
	defer rows.Close()
	var list []entity.Procurement
	for rows.Next() {
		var p entity.Procurement
		if err := rows.Scan(&p.ID, &p.FarmerID, &p.FarmerName, &p.FarmerVillage, &p.Crop, &p.LotNo,
			&p.Quantity, &p.ProcessingBatchID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan procurement: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanBatch(row pgx.Row) (*entity.ProcessingBatch, error) {
	var b entity.ProcessingBatch
	err := row.Scan(&b.ID, &b.BatchCode, &b.Crop, &b.LotNo, &b.InitialBatchQuantity, &b.CreatedAt,
		&b.CreatedByID, &b.CreatedByName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
