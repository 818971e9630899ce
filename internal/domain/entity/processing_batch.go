package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessingBatch lote de producto bajo procesamiento.
// Es también el snapshot crudo que se guarda en caché: Stages ordenadas por ProcessingCount
// ascendente, cada una con sus DryingEntries y Sales; Sales del lote incluye todas las etapas.
type ProcessingBatch struct {
	ID                   string            `json:"id"`
	BatchCode            string            `json:"batchCode"`
	Crop                 string            `json:"crop"`
	LotNo                int               `json:"lotNo"`
	InitialBatchQuantity decimal.Decimal   `json:"initialBatchQuantity"`
	CreatedAt            time.Time         `json:"createdAt"`
	CreatedByID          string            `json:"createdById"`
	CreatedByName        string            `json:"createdByName,omitempty"`
	Stages               []ProcessingStage `json:"processingStages"`
	Sales                []Sale            `json:"sales"`
	Procurements         []Procurement     `json:"procurements,omitempty"`
}
