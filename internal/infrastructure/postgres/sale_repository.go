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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleSelect = `
	SELECT s.id, s.processing_batch_id, s.processing_stage_id, st.processing_count, s.quantity_sold,
	       s.date_of_sale, s.created_by_id, s.created_at
	FROM sales s
	JOIN processing_stages st ON st.id = s.processing_stage_id`

// SaleRepo ventas sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, processing_batch_id, processing_stage_id, quantity_sold, date_of_sale, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ProcessingBatchID, s.ProcessingStageID, s.QuantitySold, s.DateOfSale, s.CreatedByID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByID obtiene una venta con el número de su etapa.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// Delete elimina la venta.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// loadSales ventas que cumplen where (con $1 = ids), fecha de venta descendente.
func loadSales(ctx context.Context, q Querier, where string, ids []string) ([]entity.Sale, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.Query(ctx, saleSelect+` WHERE `+where+` ORDER BY s.date_of_sale DESC, s.created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var list []entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.ProcessingBatchID, &s.ProcessingStageID, &s.ProcessingCount, &s.QuantitySold,
		&s.DateOfSale, &s.CreatedByID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
