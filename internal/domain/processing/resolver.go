package processing

import (
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// EffectiveStatus estado derivado que se muestra al cliente. Incluye los tres estados
// persistidos más SOLD_OUT y NO_STAGES, que solo existen en la salida calculada.
// Es un tipo distinto de entity.StageStatus para que nunca llegue a la base de datos.
type EffectiveStatus string

// Estados efectivos observables.
const (
	StatusInProgress EffectiveStatus = EffectiveStatus(entity.StageStatusInProgress)
	StatusFinished   EffectiveStatus = EffectiveStatus(entity.StageStatusFinished)
	StatusCancelled  EffectiveStatus = EffectiveStatus(entity.StageStatusCancelled)
	StatusSoldOut    EffectiveStatus = "SOLD_OUT"
	StatusNoStages   EffectiveStatus = "NO_STAGES"
)

// ParseEffectiveStatus valida un filtro de estado recibido del cliente.
func ParseEffectiveStatus(s string) (EffectiveStatus, bool) {
	switch st := EffectiveStatus(s); st {
	case StatusInProgress, StatusFinished, StatusCancelled, StatusSoldOut, StatusNoStages:
		return st, true
	}
	return "", false
}

// Resolution resultado de resolver la etapa más reciente de un lote.
type Resolution struct {
	Status       EffectiveStatus
	NetAvailable decimal.Decimal
}

// ResolveStage calcula estado efectivo y cantidad neta disponible de la etapa más reciente.
//
//	nil          -> NO_STAGES, 0
//	IN_PROGRESS  -> cantidad de la lectura con el día más alto, o InitialQuantity si no hay lecturas
//	FINISHED     -> QuantityAfterProcess (0 si nil) - ventas de la etapa; <= 0 pasa a SOLD_OUT
//	CANCELLED    -> 0; las ventas nunca cambian el estado
//
// Función pura: el mismo snapshot produce siempre el mismo resultado, venga de la DB o de caché.
func ResolveStage(stage *entity.ProcessingStage) Resolution {
	if stage == nil {
		return Resolution{Status: StatusNoStages, NetAvailable: decimal.Zero}
	}
	switch stage.Status {
	case entity.StageStatusInProgress:
		net := stage.InitialQuantity
		if last := LatestDryingEntry(stage.DryingEntries); last != nil {
			net = last.CurrentQuantity
		}
		return Resolution{Status: StatusInProgress, NetAvailable: net}
	case entity.StageStatusFinished:
		after := decimal.Zero
		if stage.QuantityAfterProcess != nil {
			after = *stage.QuantityAfterProcess
		}
		net := after.Sub(SumSold(stage.Sales))
		if net.LessThanOrEqual(decimal.Zero) {
			return Resolution{Status: StatusSoldOut, NetAvailable: net}
		}
		return Resolution{Status: StatusFinished, NetAvailable: net}
	case entity.StageStatusCancelled:
		return Resolution{Status: StatusCancelled, NetAvailable: decimal.Zero}
	}
	// Valor persistido desconocido: se expone tal cual, sin disponibilidad.
	return Resolution{Status: EffectiveStatus(stage.Status), NetAvailable: decimal.Zero}
}

// LatestStage devuelve la etapa con mayor ProcessingCount (sin depender del orden del slice).
func LatestStage(stages []entity.ProcessingStage) *entity.ProcessingStage {
	var latest *entity.ProcessingStage
	for i := range stages {
		if latest == nil || stages[i].ProcessingCount > latest.ProcessingCount {
			latest = &stages[i]
		}
	}
	return latest
}

// LatestDryingEntry devuelve la lectura con el día más alto, o nil si no hay lecturas.
func LatestDryingEntry(entries []entity.DryingEntry) *entity.DryingEntry {
	var latest *entity.DryingEntry
	for i := range entries {
		if latest == nil || entries[i].Day > latest.Day {
			latest = &entries[i]
		}
	}
	return latest
}

// SumSold suma QuantitySold de las ventas.
func SumSold(sales []entity.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.QuantitySold)
	}
	return total
}
