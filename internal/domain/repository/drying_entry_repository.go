package repository

import (
	"context"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
)

// DryingEntryRepository puerto de persistencia para lecturas de secado.
type DryingEntryRepository interface {
	Create(ctx context.Context, entry *entity.DryingEntry) error
	// ListByStage lecturas de la etapa ordenadas por día descendente.
	ListByStage(ctx context.Context, stageID string) ([]*entity.DryingEntry, error)
}
