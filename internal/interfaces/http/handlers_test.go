package http_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	batchID = "5b0e8e2a-1c1f-4c43-9b0e-000000000001"
	stageID = "5b0e8e2a-1c1f-4c43-9b0e-000000000002"
	procA   = "7c1d2f00-0000-4000-8000-00000000000a"
	procB   = "7c1d2f00-0000-4000-8000-00000000000b"
)

func (s *server) seedProcurements() {
	for i, id := range []string{procA, procB} {
		s.db.AddProcurement(entity.Procurement{
			ID:            id,
			FarmerID:      fmt.Sprintf("farmer-%d", i),
			FarmerName:    "Juan",
			FarmerVillage: "El Carmen",
			Crop:          "Coffee",
			LotNo:         7,
			Quantity:      decimal.NewFromInt(50),
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateBatch_201(t *testing.T) {
	s := newServer(t)
	s.seedProcurements()

	body := fmt.Sprintf(`{"crop":"coffee","lotNo":7,"procurementIds":["%s","%s"],
		"firstStageDetails":{"processMethod":"Lavado","dateOfProcessing":"2024-05-01","doneBy":"Ana"}}`, procA, procB)
	resp := s.do(t, http.MethodPost, "/api/processing-batches", tokenFor(t, staffID), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	batch := decodeMap(t, resp)["batch"].(map[string]any)
	assert.Equal(t, staffID, batch["createdById"])
	stages := batch["processingStages"].([]any)
	require.Len(t, stages, 1)
	assert.Equal(t, "IN_PROGRESS", stages[0].(map[string]any)["status"])

	p, _ := s.db.Procurement(procA)
	require.NotNil(t, p.ProcessingBatchID)
}

func TestCreateBatch_ValidacionSinEscrituras(t *testing.T) {
	s := newServer(t)
	s.seedProcurements()
	tok := tokenFor(t, staffID)

	cases := map[string]string{
		"id no UUID":       `{"crop":"Coffee","lotNo":7,"procurementIds":["abc"],"firstStageDetails":{"processMethod":"L","dateOfProcessing":"2024-05-01","doneBy":"A"}}`,
		"sin procurements": `{"crop":"Coffee","lotNo":7,"procurementIds":[],"firstStageDetails":{"processMethod":"L","dateOfProcessing":"2024-05-01","doneBy":"A"}}`,
		"lote distinto":    fmt.Sprintf(`{"crop":"Coffee","lotNo":8,"procurementIds":["%s"],"firstStageDetails":{"processMethod":"L","dateOfProcessing":"2024-05-01","doneBy":"A"}}`, procA),
		"fecha inválida":   fmt.Sprintf(`{"crop":"Coffee","lotNo":7,"procurementIds":["%s"],"firstStageDetails":{"processMethod":"L","dateOfProcessing":"ayer","doneBy":"A"}}`, procA),
		"json roto":        `{"crop":`,
	}
	for name, body := range cases {
		resp := s.do(t, http.MethodPost, "/api/processing-batches", tok, body)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
	batches, stages, _, _ := s.db.Counts()
	assert.Zero(t, batches)
	assert.Zero(t, stages)
}

func TestCreateBatch_SinSesion(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/processing-batches", "", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListBatches_EstadoDerivadoYValidacion(t *testing.T) {
	s := newServer(t)
	b := finishedBatch(batchID, stageID, 100)
	b.Stages[0].Sales = []entity.Sale{{ID: "sale-1", QuantitySold: decimal.NewFromInt(100)}}
	s.db.AddBatch(b)
	tok := tokenFor(t, staffID)

	resp := s.do(t, http.MethodGet, "/api/processing-batches?status=SOLD_OUT", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	rows := body["processingBatches"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "SOLD_OUT", rows[0].(map[string]any)["status"])
	pag := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pag["totalCount"])

	resp = s.do(t, http.MethodGet, "/api/processing-batches?status=FINISHED", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeMap(t, resp)["processingBatches"])

	resp = s.do(t, http.MethodGet, "/api/processing-batches?status=PENDING", tok, "")
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", e.Code)

	resp = s.do(t, http.MethodGet, "/api/processing-batches?page=abc", tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBatch(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	tok := tokenFor(t, staffID)

	resp := s.do(t, http.MethodGet, "/api/processing-batches/"+batchID, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "FINISHED", body["status"])
	assert.Equal(t, "Operador", body["createdBy"].(map[string]any)["name"])

	resp = s.do(t, http.MethodGet, "/api/processing-batches/no-es-uuid", tok, "")
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", e.Code)

	resp = s.do(t, http.MethodGet, "/api/processing-batches/"+procA, tok, "")
	e = decodeError(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestGetBatch_IDEnMayusculasUsaFormaCanonica(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	tok := tokenFor(t, staffID)
	upper := strings.ToUpper(batchID)

	resp := s.do(t, http.MethodGet, "/api/processing-batches/"+upper, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, batchID, decodeMap(t, resp)["id"])
	assert.True(t, s.store.Has(processing.DetailKey(batchID)))
	assert.False(t, s.store.Has(processing.DetailKey(upper)))
}

func TestBatchReport(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))

	resp := s.do(t, http.MethodGet, "/api/processing-batches/"+batchID+"/report", tokenFor(t, staffID), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lote-COF-1-20240501-1.pdf")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "%PDF")
}

func TestDeleteBatch_SoloAdmin(t *testing.T) {
	s := newServer(t)
	b := finishedBatch(batchID, stageID, 100)
	b.Procurements = []entity.Procurement{{ID: procA, Crop: "Coffee", LotNo: 1, Quantity: decimal.NewFromInt(100)}}
	s.db.AddBatch(b)

	resp := s.do(t, http.MethodDelete, "/api/processing-batches/"+batchID, tokenFor(t, staffID), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/processing-batches/"+batchID, tokenFor(t, adminID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "COF-1-20240501-1")

	p, _ := s.db.Procurement(procA)
	assert.Nil(t, p.ProcessingBatchID, "el procurement vuelve a estar libre")

	resp = s.do(t, http.MethodDelete, "/api/processing-batches/"+batchID, tokenFor(t, adminID), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Etapas y ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestStageEndpoints(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	tok := tokenFor(t, staffID)

	resp := s.do(t, http.MethodPost, "/api/processing-stages", tok,
		fmt.Sprintf(`{"processingBatchId":"%s","processMethod":"Secado","dateOfProcessing":"2024-05-03","doneBy":"Luis"}`, batchID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	stage := decodeMap(t, resp)
	assert.EqualValues(t, 2, stage["processingCount"])
	newStage := stage["id"].(string)

	resp = s.do(t, http.MethodPost, "/api/processing-stages/"+newStage+"/drying", tok,
		`{"day":1,"temperature":30,"humidity":60,"pH":5.5,"moisturePercentage":12,"currentQuantity":90}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/processing-stages/"+newStage+"/drying", tok,
		`{"day":1,"currentQuantity":80}`)
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "día repetido")
	assert.Equal(t, "VALIDATION", e.Code)

	resp = s.do(t, http.MethodGet, "/api/processing-stages/"+newStage+"/drying", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPut, "/api/processing-stages/"+newStage+"/finalize", tok,
		`{"quantityAfterProcess":85,"dateOfCompletion":"2024-05-06"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FINISHED", decodeMap(t, resp)["status"])

	resp = s.do(t, http.MethodPut, "/api/processing-stages/"+newStage+"/cancel", tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "una etapa finalizada no se cancela")

	resp = s.do(t, http.MethodPut, "/api/processing-stages/xyz/cancel", tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaleEndpoints(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	tok := tokenFor(t, staffID)

	resp := s.do(t, http.MethodPost, "/api/sales", tok,
		fmt.Sprintf(`{"processingStageId":"%s","quantitySold":150,"dateOfSale":"2024-05-10"}`, stageID))
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", e.Code)

	resp = s.do(t, http.MethodPost, "/api/sales", tok,
		fmt.Sprintf(`{"processingStageId":"%s","quantitySold":"40","dateOfSale":"2024-05-10"}`, stageID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	saleID := decodeMap(t, resp)["id"].(string)

	resp = s.do(t, http.MethodDelete, "/api/sales/"+saleID, tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/sales/"+saleID, tokenFor(t, adminID), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores de infraestructura
// ──────────────────────────────────────────────────────────────────────────────

func TestTxTimeout_503(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	s.db.TxErr = fmt.Errorf("%w: context deadline exceeded", domain.ErrTxTimeout)

	resp := s.do(t, http.MethodPost, "/api/sales", tokenFor(t, staffID),
		fmt.Sprintf(`{"processingStageId":"%s","quantitySold":10,"dateOfSale":"2024-05-10"}`, stageID))
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "TRANSACTION_TIMEOUT", e.Code)
}

func TestErrorInterno_NoFiltraCausa(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	s.db.TxErr = errors.New("pq: conexión rechazada 10.0.0.5")

	resp := s.do(t, http.MethodPut, "/api/processing-stages/"+stageID+"/cancel", tokenFor(t, staffID), "")
	e := decodeError(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", e.Code)
	assert.NotContains(t, e.Message, "10.0.0.5")
}

// ──────────────────────────────────────────────────────────────────────────────
// Health y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "Database is healthy, Redis is unhealthy", body["message"])
	assert.Equal(t, true, body["database"].(map[string]any)["success"])
	assert.Equal(t, "redis caído", body["redis"].(map[string]any)["error"])
}

func TestMetrics(t *testing.T) {
	s := newServer(t)
	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	resp := s.do(t, http.MethodGet, "/api/processing-batches/"+batchID, tokenFor(t, staffID), "")
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/metrics", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "processing_cache_requests_total")
}
