package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// maxCodeAttempts intentos de alta ante un código de lote repetido.
const maxCodeAttempts = 3

// BatchUseCase alta y baja de lotes de procesamiento.
type BatchUseCase struct {
	txRunner        TxRunner
	batchRepo       repository.ProcessingBatchRepository
	procurementRepo repository.ProcurementRepository
	codes           BatchCodeGenerator
	cache           *CacheManager
	now             func() time.Time
}

// NewBatchUseCase construye el caso de uso. batchRepo y procurementRepo son los de pool (lecturas previas a la tx).
func NewBatchUseCase(
	txRunner TxRunner,
	batchRepo repository.ProcessingBatchRepository,
	procurementRepo repository.ProcurementRepository,
	codes BatchCodeGenerator,
	cache *CacheManager,
) *BatchUseCase {
	return &BatchUseCase{
		txRunner:        txRunner,
		batchRepo:       batchRepo,
		procurementRepo: procurementRepo,
		codes:           codes,
		cache:           cache,
		now:             time.Now,
	}
}

// Create agrupa procurements sin lote en un lote nuevo y abre su etapa 1.
// Toda la validación ocurre antes de escribir; lote, vínculo de procurements y etapa 1
// se confirman juntos o no se confirma nada.
func (uc *BatchUseCase) Create(ctx context.Context, userID string, in dto.CreateProcessingBatchRequest) (*dto.ProcessingBatchResponse, error) {
	if len(in.ProcurementIDs) == 0 {
		return nil, domain.ErrEmptyProcurementSet
	}
	crop := strings.TrimSpace(in.Crop)
	if crop == "" {
		return nil, fmt.Errorf("%w: crop es obligatorio", domain.ErrInvalidInput)
	}
	if in.LotNo <= 0 {
		return nil, fmt.Errorf("%w: lotNo debe ser positivo", domain.ErrInvalidInput)
	}
	first := in.FirstStageDetails
	if strings.TrimSpace(first.ProcessMethod) == "" || strings.TrimSpace(first.DoneBy) == "" {
		return nil, fmt.Errorf("%w: processMethod y doneBy son obligatorios", domain.ErrInvalidInput)
	}

	procurements, err := uc.procurementRepo.FindUnbatched(ctx, in.ProcurementIDs, crop, in.LotNo)
	if err != nil {
		return nil, err
	}
	if len(procurements) != len(in.ProcurementIDs) {
		return nil, domain.ErrProcurementMismatch
	}
	total := decimal.Zero
	for _, p := range procurements {
		total = total.Add(p.Quantity)
	}
	if !total.IsPositive() {
		return nil, domain.ErrNonPositiveQuantity
	}
	processedAt, err := parseDate(first.DateOfProcessing)
	if err != nil {
		return nil, domain.ErrInvalidProcessDate
	}

	now := uc.now()
	batch := &entity.ProcessingBatch{
		ID:                   uuid.New().String(),
		Crop:                 crop,
		LotNo:                in.LotNo,
		InitialBatchQuantity: total,
		CreatedByID:          userID,
		CreatedAt:            now,
	}
	stage := &entity.ProcessingStage{
		ID:                uuid.New().String(),
		ProcessingBatchID: batch.ID,
		ProcessingCount:   1,
		ProcessMethod:     strings.TrimSpace(first.ProcessMethod),
		DateOfProcessing:  processedAt,
		DoneBy:            strings.TrimSpace(first.DoneBy),
		InitialQuantity:   total,
		Status:            entity.StageStatusInProgress,
		CreatedByID:       userID,
		CreatedAt:         now,
	}

	var created *entity.ProcessingBatch
	for attempt := 1; ; attempt++ {
		code, err := uc.codes.Generate(ctx, crop, in.LotNo, processedAt)
		if err != nil {
			return nil, fmt.Errorf("generar código de lote: %w", err)
		}
		batch.BatchCode = code
		created, err = uc.create(ctx, batch, stage, in.ProcurementIDs)
		// Otra alta tomó el mismo código entre el cálculo y el INSERT: se pide otro.
		if errors.Is(err, domain.ErrDuplicate) && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	// Lote nuevo: aún no tiene detalle cacheado, solo caducan los listados.
	uc.cache.Invalidate(ctx, "")
	return toBatchResponse(created), nil
}

// create confirma lote, vínculo de procurements y etapa 1 en una sola transacción.
func (uc *BatchUseCase) create(ctx context.Context, batch *entity.ProcessingBatch, stage *entity.ProcessingStage, procurementIDs []string) (*entity.ProcessingBatch, error) {
	var created *entity.ProcessingBatch
	err := uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		// Revalida dentro de la tx: otro lote pudo tomar alguno de los procurements.
		if err := repos.Procurements.AttachToBatch(ctx, procurementIDs, batch.ID); err != nil {
			return err
		}
		if err := repos.Stages.Create(ctx, stage); err != nil {
			return err
		}
		b, err := repos.Batches.GetWithFirstStage(ctx, batch.ID)
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Delete elimina un lote y devuelve sus procurements al estado "sin lote".
// Etapas, lecturas y ventas se borran en cascada en la DB. Devuelve el lote eliminado.
func (uc *BatchUseCase) Delete(ctx context.Context, batchID string) (*entity.ProcessingBatch, error) {
	batch, err := uc.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	err = uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		if _, err := repos.Procurements.DetachFromBatch(ctx, batchID); err != nil {
			return err
		}
		return repos.Batches.Delete(ctx, batchID)
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, batchID)
	return batch, nil
}

// parseDate acepta RFC3339 o fecha simple YYYY-MM-DD (UTC).
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
