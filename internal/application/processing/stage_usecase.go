package processing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	domproc "github.com/jhoicas/Procesamiento-api/internal/domain/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

// StageUseCase ciclo de vida de etapas y lecturas de secado.
type StageUseCase struct {
	txRunner   TxRunner
	stageRepo  repository.ProcessingStageRepository
	dryingRepo repository.DryingEntryRepository
	cache      *CacheManager
	now        func() time.Time
}

// NewStageUseCase construye el caso de uso de etapas.
func NewStageUseCase(
	txRunner TxRunner,
	stageRepo repository.ProcessingStageRepository,
	dryingRepo repository.DryingEntryRepository,
	cache *CacheManager,
) *StageUseCase {
	return &StageUseCase{txRunner: txRunner, stageRepo: stageRepo, dryingRepo: dryingRepo, cache: cache, now: time.Now}
}

// CreateNextStage abre la etapa n+1 del lote. La última etapa debe estar FINISHED con
// disponible positivo, que pasa a ser la cantidad inicial de la nueva.
func (uc *StageUseCase) CreateNextStage(ctx context.Context, userID string, in dto.CreateStageRequest) (*dto.StageResponse, error) {
	if strings.TrimSpace(in.ProcessMethod) == "" || strings.TrimSpace(in.DoneBy) == "" {
		return nil, fmt.Errorf("%w: processMethod y doneBy son obligatorios", domain.ErrInvalidInput)
	}
	processedAt, err := parseDate(in.DateOfProcessing)
	if err != nil {
		return nil, domain.ErrInvalidProcessDate
	}

	var stage *entity.ProcessingStage
	err = uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		batch, err := repos.Batches.GetByID(ctx, in.ProcessingBatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrNotFound
		}
		latest, err := repos.Stages.GetLatestForUpdate(ctx, batch.ID)
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("%w: el lote no tiene etapas", domain.ErrConflict)
		}
		if latest.Status != entity.StageStatusFinished {
			return domain.ErrStageNotFinished
		}
		res := domproc.ResolveStage(latest)
		if !res.NetAvailable.IsPositive() {
			return domain.ErrNothingAvailable
		}
		stage = &entity.ProcessingStage{
			ID:                uuid.New().String(),
			ProcessingBatchID: batch.ID,
			ProcessingCount:   latest.ProcessingCount + 1,
			ProcessMethod:     strings.TrimSpace(in.ProcessMethod),
			DateOfProcessing:  processedAt,
			DoneBy:            strings.TrimSpace(in.DoneBy),
			InitialQuantity:   res.NetAvailable,
			Status:            entity.StageStatusInProgress,
			CreatedByID:       userID,
			CreatedAt:         uc.now(),
		}
		return repos.Stages.Create(ctx, stage)
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, stage.ProcessingBatchID)
	resp := toStageResponse(stage)
	return &resp, nil
}

// FinalizeStage cierra la etapa en proceso con su cantidad final.
func (uc *StageUseCase) FinalizeStage(ctx context.Context, stageID string, in dto.FinalizeStageRequest) (*dto.StageResponse, error) {
	if !in.QuantityAfterProcess.IsPositive() {
		return nil, fmt.Errorf("%w: quantityAfterProcess debe ser positiva", domain.ErrInvalidInput)
	}
	completedAt := uc.now()
	if in.DateOfCompletion != "" {
		t, err := parseDate(in.DateOfCompletion)
		if err != nil {
			return nil, fmt.Errorf("%w: dateOfCompletion inválida", domain.ErrInvalidInput)
		}
		completedAt = t
	}

	stage, err := uc.transition(ctx, stageID, func(repos TxRepos, s *entity.ProcessingStage) error {
		if completedAt.Before(s.DateOfProcessing) {
			return fmt.Errorf("%w: dateOfCompletion anterior a dateOfProcessing", domain.ErrInvalidInput)
		}
		if err := repos.Stages.Finish(ctx, s.ID, in.QuantityAfterProcess, completedAt); err != nil {
			return err
		}
		q := in.QuantityAfterProcess
		s.QuantityAfterProcess = &q
		s.DateOfCompletion = &completedAt
		s.Status = entity.StageStatusFinished
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toStageResponse(stage)
	return &resp, nil
}

// CancelStage pasa la etapa en proceso a CANCELLED.
func (uc *StageUseCase) CancelStage(ctx context.Context, stageID string) (*dto.StageResponse, error) {
	stage, err := uc.transition(ctx, stageID, func(repos TxRepos, s *entity.ProcessingStage) error {
		if err := repos.Stages.UpdateStatus(ctx, s.ID, entity.StageStatusCancelled); err != nil {
			return err
		}
		s.Status = entity.StageStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toStageResponse(stage)
	return &resp, nil
}

// AddDryingEntry registra la lectura de un día sobre la etapa en proceso.
func (uc *StageUseCase) AddDryingEntry(ctx context.Context, stageID string, in dto.CreateDryingEntryRequest) (*dto.DryingEntryResponse, error) {
	if in.Day < 1 {
		return nil, fmt.Errorf("%w: day debe ser mayor o igual a 1", domain.ErrInvalidInput)
	}
	if in.CurrentQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: currentQuantity no puede ser negativa", domain.ErrInvalidInput)
	}

	var entry *entity.DryingEntry
	_, err := uc.transition(ctx, stageID, func(repos TxRepos, s *entity.ProcessingStage) error {
		if last := domproc.LatestDryingEntry(s.DryingEntries); last != nil && in.Day <= last.Day {
			return domain.ErrInvalidDryingDay
		}
		entry = &entity.DryingEntry{
			ID:                 uuid.New().String(),
			ProcessingStageID:  s.ID,
			Day:                in.Day,
			Temperature:        in.Temperature,
			Humidity:           in.Humidity,
			PH:                 in.PH,
			MoisturePercentage: in.MoisturePercentage,
			CurrentQuantity:    in.CurrentQuantity,
			CreatedAt:          uc.now(),
		}
		return repos.DryingEntries.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	resp := toDryingEntryResponse(entry)
	return &resp, nil
}

// ListDryingEntries lecturas de la etapa, del día más reciente al más antiguo.
func (uc *StageUseCase) ListDryingEntries(ctx context.Context, stageID string) ([]dto.DryingEntryResponse, error) {
	stage, err := uc.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, domain.ErrNotFound
	}
	entries, err := uc.dryingRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DryingEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDryingEntryResponse(e))
	}
	return out, nil
}

// transition bloquea la última etapa del lote y aplica fn si stageID es esa etapa y está
// IN_PROGRESS. Las etapas anteriores son historia y no se modifican.
func (uc *StageUseCase) transition(ctx context.Context, stageID string, fn func(repos TxRepos, s *entity.ProcessingStage) error) (*entity.ProcessingStage, error) {
	var stage *entity.ProcessingStage
	err := uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		s, err := repos.Stages.GetByID(ctx, stageID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		latest, err := repos.Stages.GetLatestForUpdate(ctx, s.ProcessingBatchID)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != s.ID {
			return domain.ErrStageNotLatest
		}
		if latest.Status != entity.StageStatusInProgress {
			return domain.ErrStageNotInProgress
		}
		if err := fn(repos, latest); err != nil {
			return err
		}
		stage = latest
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, stage.ProcessingBatchID)
	return stage, nil
}
