package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Procurement compra a un agricultor. Se agrupa en un lote de procesamiento por cultivo/lote.
// ProcessingBatchID nil = sin lote.
type Procurement struct {
	ID                string          `json:"id"`
	FarmerID          string          `json:"farmerId"`
	FarmerName        string          `json:"farmerName,omitempty"`
	FarmerVillage     string          `json:"farmerVillage,omitempty"`
	Crop              string          `json:"crop"`
	LotNo             int             `json:"lotNo"`
	Quantity          decimal.Decimal `json:"quantity"`
	ProcessingBatchID *string         `json:"processingBatchId"`
	CreatedAt         time.Time       `json:"createdAt"`
}
