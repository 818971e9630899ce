package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Límites del listado de lotes.
const (
	DefaultBatchPage  = 1
	DefaultBatchLimit = 10
	MaxBatchLimit     = 100
)

// FirstStageDetails datos de la etapa 1 que se crea junto con el lote.
type FirstStageDetails struct {
	ProcessMethod    string `json:"processMethod"`
	DateOfProcessing string `json:"dateOfProcessing"` // RFC3339 o YYYY-MM-DD
	DoneBy           string `json:"doneBy"`
}

// CreateProcessingBatchRequest body para POST /api/processing-batches.
type CreateProcessingBatchRequest struct {
	Crop              string            `json:"crop"`
	LotNo             int               `json:"lotNo"`
	ProcurementIDs    []string          `json:"procurementIds"`
	FirstStageDetails FirstStageDetails `json:"firstStageDetails"`
}

// BatchListQuery filtros del listado. Se serializa tal cual (ya normalizada) para la clave de caché,
// por eso el orden de los campos es parte del formato de la clave.
type BatchListQuery struct {
	Page   int    `json:"page" query:"page"`
	Limit  int    `json:"limit" query:"limit"`
	Search string `json:"search,omitempty" query:"search"`
	Status string `json:"status,omitempty" query:"status"`
}

// Normalize aplica valores por defecto y límites de página.
func (q *BatchListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultBatchPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultBatchLimit
	}
	if q.Limit > MaxBatchLimit {
		q.Limit = MaxBatchLimit
	}
}

// StageSummaryResponse resumen de la etapa más reciente con estado efectivo.
type StageSummaryResponse struct {
	ID                   string           `json:"id"`
	ProcessingCount      int              `json:"processingCount"`
	Status               string           `json:"status"`
	ProcessMethod        string           `json:"processMethod"`
	DateOfProcessing     time.Time        `json:"dateOfProcessing"`
	DoneBy               string           `json:"doneBy"`
	InitialQuantity      decimal.Decimal  `json:"initialQuantity"`
	QuantityAfterProcess *decimal.Decimal `json:"quantityAfterProcess"`
	LastDryingQuantity   *decimal.Decimal `json:"lastDryingQuantity"`
}

// ProcessingBatchSummary fila del listado de lotes.
type ProcessingBatchSummary struct {
	ID                         string                `json:"id"`
	BatchCode                  string                `json:"batchCode"`
	Crop                       string                `json:"crop"`
	LotNo                      int                   `json:"lotNo"`
	InitialBatchQuantity       decimal.Decimal       `json:"initialBatchQuantity"`
	CreatedAt                  time.Time             `json:"createdAt"`
	Status                     string                `json:"status"`
	LatestStageSummary         *StageSummaryResponse `json:"latestStageSummary"`
	TotalQuantitySoldFromBatch decimal.Decimal       `json:"totalQuantitySoldFromBatch"`
	NetAvailableQuantity       decimal.Decimal       `json:"netAvailableQuantity"`
}

// BatchListResponse respuesta de GET /api/processing-batches.
type BatchListResponse struct {
	ProcessingBatches []ProcessingBatchSummary `json:"processingBatches"`
	Pagination        Pagination               `json:"pagination"`
}

// DryingEntryResponse lectura de secado.
type DryingEntryResponse struct {
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

// SaleResponse venta con el número de etapa de la que salió.
type SaleResponse struct {
	ID                string          `json:"id"`
	ProcessingBatchID string          `json:"processingBatchId"`
	ProcessingStageID string          `json:"processingStageId"`
	ProcessingCount   int             `json:"processingCount"`
	QuantitySold      decimal.Decimal `json:"quantitySold"`
	DateOfSale        time.Time       `json:"dateOfSale"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// StageResponse etapa completa. Status es siempre el valor persistido.
type StageResponse struct {
	ID                   string                `json:"id"`
	ProcessingBatchID    string                `json:"processingBatchId"`
	ProcessingCount      int                   `json:"processingCount"`
	ProcessMethod        string                `json:"processMethod"`
	DateOfProcessing     time.Time             `json:"dateOfProcessing"`
	DateOfCompletion     *time.Time            `json:"dateOfCompletion"`
	DoneBy               string                `json:"doneBy"`
	InitialQuantity      decimal.Decimal       `json:"initialQuantity"`
	QuantityAfterProcess *decimal.Decimal      `json:"quantityAfterProcess"`
	Status               string                `json:"status"`
	DryingEntries        []DryingEntryResponse `json:"dryingEntries"`
	CreatedAt            time.Time             `json:"createdAt"`
}

// ProcurementResponse compra vinculada al lote con datos del agricultor.
type ProcurementResponse struct {
	ID            string          `json:"id"`
	FarmerID      string          `json:"farmerId"`
	FarmerName    string          `json:"farmerName"`
	FarmerVillage string          `json:"farmerVillage"`
	Crop          string          `json:"crop"`
	LotNo         int             `json:"lotNo"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CreatedByResponse creador del lote.
type CreatedByResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProcessingBatchDetail respuesta de GET /api/processing-batches/:batchId.
type ProcessingBatchDetail struct {
	ProcessingBatchSummary
	CreatedBy        CreatedByResponse     `json:"createdBy"`
	ProcessingStages []StageResponse       `json:"processingStages"`
	Sales            []SaleResponse        `json:"sales"`
	Procurements     []ProcurementResponse `json:"procurements"`
}

// ProcessingBatchResponse lote recién creado con su primera etapa.
type ProcessingBatchResponse struct {
	ID                   string          `json:"id"`
	BatchCode            string          `json:"batchCode"`
	Crop                 string          `json:"crop"`
	LotNo                int             `json:"lotNo"`
	InitialBatchQuantity decimal.Decimal `json:"initialBatchQuantity"`
	CreatedByID          string          `json:"createdById"`
	CreatedAt            time.Time       `json:"createdAt"`
	ProcessingStages     []StageResponse `json:"processingStages"`
}

// CreateStageRequest body para POST /api/processing-stages (etapa siguiente del lote).
type CreateStageRequest struct {
	ProcessingBatchID string `json:"processingBatchId"`
	ProcessMethod     string `json:"processMethod"`
	DateOfProcessing  string `json:"dateOfProcessing"`
	DoneBy            string `json:"doneBy"`
}

// FinalizeStageRequest body para PUT /api/processing-stages/:stageId/finalize.
type FinalizeStageRequest struct {
	QuantityAfterProcess decimal.Decimal `json:"quantityAfterProcess"`
	DateOfCompletion     string          `json:"dateOfCompletion"`
}

// CreateDryingEntryRequest body para POST /api/processing-stages/:stageId/drying.
type CreateDryingEntryRequest struct {
	Day                int             `json:"day"`
	Temperature        decimal.Decimal `json:"temperature"`
	Humidity           decimal.Decimal `json:"humidity"`
	PH                 decimal.Decimal `json:"pH"`
	MoisturePercentage decimal.Decimal `json:"moisturePercentage"`
	CurrentQuantity    decimal.Decimal `json:"currentQuantity"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	ProcessingStageID string          `json:"processingStageId"`
	QuantitySold      decimal.Decimal `json:"quantitySold"`
	DateOfSale        string          `json:"dateOfSale"`
}
