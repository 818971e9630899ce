package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StageStatus estado persistido de una etapa de procesamiento.
// Solo estos tres valores se escriben en la base de datos.
type StageStatus string

// Estados persistidos de etapa.
const (
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusFinished   StageStatus = "FINISHED"
	StageStatusCancelled  StageStatus = "CANCELLED"
)

// Valid indica si el valor es uno de los estados persistibles.
func (s StageStatus) Valid() bool {
	switch s {
	case StageStatusInProgress, StageStatusFinished, StageStatusCancelled:
		return true
	}
	return false
}

// ProcessingStage representa un paso de procesamiento (P1, P2, ...) dentro de un lote.
// ProcessingCount es único por lote y empieza en 1.
type ProcessingStage struct {
	ID                   string           `json:"id"`
	ProcessingBatchID    string           `json:"processingBatchId"`
	ProcessingCount      int              `json:"processingCount"`
	ProcessMethod        string           `json:"processMethod"`
	DateOfProcessing     time.Time        `json:"dateOfProcessing"`
	DateOfCompletion     *time.Time       `json:"dateOfCompletion,omitempty"`
	DoneBy               string           `json:"doneBy"`
	InitialQuantity      decimal.Decimal  `json:"initialQuantity"`
	QuantityAfterProcess *decimal.Decimal `json:"quantityAfterProcess"` // solo al pasar a FINISHED
	Status               StageStatus      `json:"status"`
	DryingEntries        []DryingEntry    `json:"dryingEntries"`
	Sales                []Sale           `json:"sales"`
	CreatedByID          string           `json:"createdById"`
	CreatedAt            time.Time        `json:"createdAt"`
}
