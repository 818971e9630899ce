package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale venta registrada contra una etapa concreta del lote.
type Sale struct {
	ID                string          `json:"id"`
	ProcessingBatchID string          `json:"processingBatchId"`
	ProcessingStageID string          `json:"processingStageId"`
	ProcessingCount   int             `json:"processingCount"` // número de la etapa (solo lectura)
	QuantitySold      decimal.Decimal `json:"quantitySold"`
	DateOfSale        time.Time       `json:"dateOfSale"`
	CreatedByID       string          `json:"createdById"`
	CreatedAt         time.Time       `json:"createdAt"`
}
