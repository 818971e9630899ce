package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DryingEntry lectura diaria de una etapa en proceso (peso tras un día de secado, etc.).
type DryingEntry struct {
	ID                 string          `json:"id"`
	ProcessingStageID  string          `json:"processingStageId"`
	Day                int             `json:"day"`
	Temperature        decimal.Decimal `json:"temperature"`
	Humidity           decimal.Decimal `json:"humidity"`
	PH                 decimal.Decimal `json:"pH"`
	MoisturePercentage decimal.Decimal `json:"moisturePercentage"`
	CurrentQuantity    decimal.Decimal `json:"currentQuantity"`
	CreatedAt          time.Time       `json:"createdAt"`
}
