package processing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing/processingtest"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno de pruebas
// ──────────────────────────────────────────────────────────────────────────────

const testUserID = "11111111-1111-1111-1111-111111111111"

type env struct {
	db     *processingtest.DB
	store  *processingtest.MemoryCache
	codes  *processingtest.SeqCodes
	cache  *processing.CacheManager
	batch  *processing.BatchUseCase
	query  *processing.QueryUseCase
	stages *processing.StageUseCase
	sales  *processing.SaleUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := processingtest.NewDB()
	db.AddUser(entity.User{ID: testUserID, Name: "Operador", Email: "op@planta.test", Role: entity.RoleStaff, IsEnabled: true})
	store := processingtest.NewMemoryCache()
	codes := &processingtest.SeqCodes{}
	cache := processing.NewCacheManager(store, time.Hour, nil)
	repos := db.Repos()
	return &env{
		db:     db,
		store:  store,
		codes:  codes,
		cache:  cache,
		batch:  processing.NewBatchUseCase(db, repos.Batches, repos.Procurements, codes, cache),
		query:  processing.NewQueryUseCase(repos.Batches, cache),
		stages: processing.NewStageUseCase(db, repos.Stages, repos.DryingEntries, cache),
		sales:  processing.NewSaleUseCase(db, cache),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decp(v int64) *decimal.Decimal {
	x := decimal.NewFromInt(v)
	return &x
}

var baseTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

// seedProcurements inserta procurements sin lote y devuelve sus IDs.
func (e *env) seedProcurements(crop string, lotNo int, qtys ...int64) []string {
	ids := make([]string, 0, len(qtys))
	for i, q := range qtys {
		id := fmt.Sprintf("proc-%s-%d-%d", crop, lotNo, i)
		e.db.AddProcurement(entity.Procurement{
			ID:            id,
			FarmerID:      fmt.Sprintf("farmer-%d", i),
			FarmerName:    fmt.Sprintf("Agricultor %d", i),
			FarmerVillage: "Vereda El Carmen",
			Crop:          crop,
			LotNo:         lotNo,
			Quantity:      dec(q),
			CreatedAt:     baseTime,
		})
		ids = append(ids, id)
	}
	return ids
}

// finishedBatch lote con una única etapa FINISHED de qty y ventas por las cantidades dadas.
func finishedBatch(id string, createdAt time.Time, qty int64, sold ...int64) entity.ProcessingBatch {
	stageID := id + "-p1"
	stage := entity.ProcessingStage{
		ID:                   stageID,
		ProcessingCount:      1,
		ProcessMethod:        "Lavado",
		DateOfProcessing:     createdAt,
		DoneBy:               "Ana",
		InitialQuantity:      dec(qty),
		QuantityAfterProcess: decp(qty),
		Status:               entity.StageStatusFinished,
	}
	for i, s := range sold {
		stage.Sales = append(stage.Sales, entity.Sale{
			ID:           fmt.Sprintf("%s-s%d", id, i),
			QuantitySold: dec(s),
			DateOfSale:   createdAt.Add(time.Duration(i+1) * time.Hour),
		})
	}
	return entity.ProcessingBatch{
		ID:                   id,
		BatchCode:            "COD-" + id,
		Crop:                 "Coffee",
		LotNo:                1,
		InitialBatchQuantity: dec(qty),
		CreatedAt:            createdAt,
		CreatedByID:          testUserID,
		Stages:               []entity.ProcessingStage{stage},
	}
}

// inProgressBatch lote con una etapa IN_PROGRESS y lecturas (día -> cantidad).
func inProgressBatch(id string, createdAt time.Time, initial int64, readings map[int]int64) entity.ProcessingBatch {
	stageID := id + "-p1"
	stage := entity.ProcessingStage{
		ID:               stageID,
		ProcessingCount:  1,
		ProcessMethod:    "Secado",
		DateOfProcessing: createdAt,
		DoneBy:           "Luis",
		InitialQuantity:  dec(initial),
		Status:           entity.StageStatusInProgress,
	}
	for day, q := range readings {
		stage.DryingEntries = append(stage.DryingEntries, entity.DryingEntry{
			ID:              fmt.Sprintf("%s-d%d", stageID, day),
			Day:             day,
			CurrentQuantity: dec(q),
		})
	}
	return entity.ProcessingBatch{
		ID:                   id,
		BatchCode:            "COD-" + id,
		Crop:                 "Cacao",
		LotNo:                2,
		InitialBatchQuantity: dec(initial),
		CreatedAt:            createdAt,
		CreatedByID:          testUserID,
		Stages:               []entity.ProcessingStage{stage},
	}
}

func emptyBatch(id string, createdAt time.Time) entity.ProcessingBatch {
	return entity.ProcessingBatch{
		ID:                   id,
		BatchCode:            "COD-" + id,
		Crop:                 "Maiz",
		LotNo:                3,
		InitialBatchQuantity: dec(10),
		CreatedAt:            createdAt,
		CreatedByID:          testUserID,
	}
}
