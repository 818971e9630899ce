package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProcessingStageRepository = (*ProcessingStageRepo)(nil)

const stageColumns = `id, processing_batch_id, processing_count, process_method, date_of_processing,
	date_of_completion, done_by, initial_quantity, quantity_after_process, status, created_by_id, created_at`

// ProcessingStageRepo implementación del puerto ProcessingStageRepository sobre PostgreSQL.
type ProcessingStageRepo struct {
	q Querier
}

// NewProcessingStageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcessingStageRepository(q Querier) *ProcessingStageRepo {
	return &ProcessingStageRepo{q: q}
}

// Create inserta la etapa. (lote, processing_count) repetido -> domain.ErrDuplicate.
func (r *ProcessingStageRepo) Create(ctx context.Context, s *entity.ProcessingStage) error {
	query := `
		INSERT INTO processing_stages (id, processing_batch_id, processing_count, process_method, date_of_processing,
			date_of_completion, done_by, initial_quantity, quantity_after_process, status, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ProcessingBatchID, s.ProcessingCount, s.ProcessMethod, s.DateOfProcessing,
		s.DateOfCompletion, s.DoneBy, s.InitialQuantity, s.QuantityAfterProcess, string(s.Status),
		s.CreatedByID, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert processing stage: %w", err)
	}
	return nil
}

// GetByID obtiene la etapa sin colecciones.
func (r *ProcessingStageRepo) GetByID(ctx context.Context, id string) (*entity.ProcessingStage, error) {
	s, err := scanStage(r.q.QueryRow(ctx, `SELECT `+stageColumns+` FROM processing_stages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get processing stage: %w", err)
	}
	return s, nil
}

// GetLatestForUpdate bloquea la última etapa del lote y carga sus lecturas y ventas.
func (r *ProcessingStageRepo) GetLatestForUpdate(ctx context.Context, batchID string) (*entity.ProcessingStage, error) {
	query := `SELECT ` + stageColumns + `
		FROM processing_stages
		WHERE processing_batch_id = $1
		ORDER BY processing_count DESC
		LIMIT 1
		FOR UPDATE`
	s, err := scanStage(r.q.QueryRow(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest stage: %w", err)
	}
	entries, err := loadDryingEntries(ctx, r.q, []string{s.ID}, false)
	if err != nil {
		return nil, err
	}
	s.DryingEntries = entries[s.ID]
	sales, err := loadSales(ctx, r.q, `s.processing_stage_id = ANY($1::uuid[])`, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Sales = sales
	return s, nil
}

// Finish pasa la etapa a FINISHED.
func (r *ProcessingStageRepo) Finish(ctx context.Context, id string, qty decimal.Decimal, completedAt time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE processing_stages
		SET status = $2, quantity_after_process = $3, date_of_completion = $4
		WHERE id = $1`,
		id, string(entity.StageStatusFinished), qty, completedAt,
	)
	if err != nil {
		return fmt.Errorf("finish processing stage: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia solo el estado persistido.
func (r *ProcessingStageRepo) UpdateStatus(ctx context.Context, id string, status entity.StageStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: estado de etapa %q", domain.ErrInvalidInput, status)
	}
	cmd, err := r.q.Exec(ctx, `UPDATE processing_stages SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update stage status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func loadStages(ctx context.Context, q Querier, batchIDs []string) ([]entity.ProcessingStage, error) {
	query := `SELECT ` + stageColumns + `
		FROM processing_stages
		WHERE processing_batch_id = ANY($1::uuid[])
		ORDER BY processing_batch_id, processing_count`
	rows, err := q.Query(ctx, query, batchIDs)
	if err != nil {
		return nil, fmt.Errorf("list processing stages: %w", err)
	}
	defer rows.Close()
	var list []entity.ProcessingStage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processing stage: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanStage(row pgx.Row) (*entity.ProcessingStage, error) {
	var s entity.ProcessingStage
	var status string
	err := row.Scan(&s.ID, &s.ProcessingBatchID, &s.ProcessingCount, &s.ProcessMethod, &s.DateOfProcessing,
		&s.DateOfCompletion, &s.DoneBy, &s.InitialQuantity, &s.QuantityAfterProcess, &status,
		&s.CreatedByID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = entity.StageStatus(status)
	return &s, nil
}
