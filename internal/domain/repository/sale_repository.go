package repository

import (
	"context"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia para ventas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	Delete(ctx context.Context, id string) error
}
