package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatQuantity(t *testing.T) {
	cases := map[string]string{
		"0":        "0,00",
		"999.5":    "999,50",
		"25000.5":  "25.000,50",
		"1000000":  "1.000.000,00",
		"-10":      "-10,00",
		"-1234.56": "-1.234,56",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatQuantity(decimal.RequireFromString(in)), in)
	}
}

func TestGenerateBatchReport(t *testing.T) {
	after := decimal.NewFromInt(80)
	d := &dto.ProcessingBatchDetail{
		ProcessingBatchSummary: dto.ProcessingBatchSummary{
			ID:                         "b1",
			BatchCode:                  "COF-7-20240501-1",
			Crop:                       "Coffee",
			LotNo:                      7,
			InitialBatchQuantity:       decimal.NewFromInt(100),
			CreatedAt:                  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Status:                     "SOLD_OUT",
			TotalQuantitySoldFromBatch: decimal.NewFromInt(80),
			NetAvailableQuantity:       decimal.Zero,
		},
		CreatedBy: dto.CreatedByResponse{ID: "u1", Name: "Ana"},
		ProcessingStages: []dto.StageResponse{{
			ProcessingCount: 1, ProcessMethod: "Lavado", DoneBy: "Ana",
			InitialQuantity: decimal.NewFromInt(100), QuantityAfterProcess: &after, Status: "FINISHED",
		}},
		Sales: []dto.SaleResponse{{
			ProcessingCount: 1, QuantitySold: decimal.NewFromInt(80),
			DateOfSale: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		}},
		Procurements: []dto.ProcurementResponse{{
			FarmerName: "Juan", FarmerVillage: "El Carmen", Crop: "Coffee", LotNo: 7, Quantity: decimal.NewFromInt(100),
		}},
	}

	out, err := NewMarotoBatchReport().GenerateBatchReport(context.Background(), d)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
