package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

var _ repository.DryingEntryRepository = (*DryingEntryRepo)(nil)

const dryingColumns = `id, processing_stage_id, day, temperature, humidity, ph, moisture_percentage, current_quantity, created_at`

// DryingEntryRepo lecturas de secado sobre PostgreSQL.
type DryingEntryRepo struct {
	q Querier
}

// NewDryingEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDryingEntryRepository(q Querier) *DryingEntryRepo {
	return &DryingEntryRepo{q: q}
}

// Create inserta una lectura. (etapa, día) repetido -> domain.ErrDuplicate.
func (r *DryingEntryRepo) Create(ctx context.Context, e *entity.DryingEntry) error {
	query := `INSERT INTO drying_entries (` + dryingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.ProcessingStageID, e.Day, e.Temperature, e.Humidity, e.PH, e.MoisturePercentage,
		e.CurrentQuantity, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert drying entry: %w", err)
	}
	return nil
}

// ListByStage lecturas de la etapa, día descendente.
func (r *DryingEntryRepo) ListByStage(ctx context.Context, stageID string) ([]*entity.DryingEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+dryingColumns+` FROM drying_entries WHERE processing_stage_id = $1 ORDER BY day DESC`, stageID)
	if err != nil {
		return nil, fmt.Errorf("list drying entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.DryingEntry
	for rows.Next() {
		var e entity.DryingEntry
		if err := rows.Scan(&e.ID, &e.ProcessingStageID, &e.Day, &e.Temperature, &e.Humidity, &e.PH,
			&e.MoisturePercentage, &e.CurrentQuantity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drying entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// loadDryingEntries lecturas agrupadas por etapa, día ascendente.
// latestOnly trae solo la de mayor día por etapa (suficiente para resolver el estado).
func loadDryingEntries(ctx context.Context, q Querier, stageIDs []string, latestOnly bool) (map[string][]entity.DryingEntry, error) {
	out := make(map[string][]entity.DryingEntry)
	if len(stageIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + dryingColumns + ` FROM drying_entries
		WHERE processing_stage_id = ANY($1::uuid[])
		ORDER BY processing_stage_id, day`
	if latestOnly {
		query = `SELECT DISTINCT ON (processing_stage_id) ` + dryingColumns + ` FROM drying_entries
			WHERE processing_stage_id = ANY($1::uuid[])
			ORDER BY processing_stage_id, day DESC`
	}
	rows, err := q.Query(ctx, query, stageIDs)
	if err != nil {
		return nil, fmt.Errorf("list drying entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.DryingEntry
		if err := rows.Scan(&e.ID, &e.ProcessingStageID, &e.Day, &e.Temperature, &e.Humidity, &e.PH,
			&e.MoisturePercentage, &e.CurrentQuantity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drying entry: %w", err)
		}
		out[e.ProcessingStageID] = append(out[e.ProcessingStageID], e)
	}
	return out, rows.Err()
}
