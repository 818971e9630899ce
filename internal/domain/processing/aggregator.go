package processing

import (
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StageSummary resumen de la etapa más reciente con el estado ya resuelto.
type StageSummary struct {
	ID                   string
	ProcessingCount      int
	Status               EffectiveStatus
	ProcessMethod        string
	DateOfProcessing     time.Time
	DoneBy               string
	InitialQuantity      decimal.Decimal
	QuantityAfterProcess *decimal.Decimal
	LastDryingQuantity   *decimal.Decimal // nil si la etapa no tiene lecturas
}

// BatchView vista derivada de un lote: la única que se expone hacia afuera.
type BatchView struct {
	Batch                      *entity.ProcessingBatch
	LatestStageSummary         *StageSummary // nil si el lote no tiene etapas
	Status                     EffectiveStatus
	TotalQuantitySoldFromBatch decimal.Decimal
	NetAvailableQuantity       decimal.Decimal
}

// Aggregate compone la vista del lote a partir del snapshot completo.
// TotalQuantitySoldFromBatch suma todas las ventas del lote, de cualquier etapa;
// estado y disponible salen de ResolveStage sobre la etapa más reciente.
func Aggregate(batch *entity.ProcessingBatch) BatchView {
	latest := LatestStage(batch.Stages)
	res := ResolveStage(latest)

	view := BatchView{
		Batch:                      batch,
		Status:                     res.Status,
		TotalQuantitySoldFromBatch: SumSold(batch.Sales),
		NetAvailableQuantity:       res.NetAvailable,
	}
	if latest != nil {
		summary := &StageSummary{
			ID:                   latest.ID,
			ProcessingCount:      latest.ProcessingCount,
			Status:               res.Status,
			ProcessMethod:        latest.ProcessMethod,
			DateOfProcessing:     latest.DateOfProcessing,
			DoneBy:               latest.DoneBy,
			InitialQuantity:      latest.InitialQuantity,
			QuantityAfterProcess: latest.QuantityAfterProcess,
		}
		if last := LatestDryingEntry(latest.DryingEntries); last != nil {
			q := last.CurrentQuantity
			summary.LastDryingQuantity = &q
		}
		view.LatestStageSummary = summary
	}
	return view
}
