package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	domproc "github.com/jhoicas/Procesamiento-api/internal/domain/processing"
)

// SaleUseCase registro y anulación de ventas.
type SaleUseCase struct {
	txRunner TxRunner
	cache    *CacheManager
	now      func() time.Time
}

// NewSaleUseCase construye el caso de uso de ventas.
func NewSaleUseCase(txRunner TxRunner, cache *CacheManager) *SaleUseCase {
	return &SaleUseCase{txRunner: txRunner, cache: cache, now: time.Now}
}

// RecordSale vende desde la última etapa del lote, que debe estar FINISHED.
// La cantidad no puede superar el disponible que calcula el resolver en ese momento.
func (uc *SaleUseCase) RecordSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if !in.QuantitySold.IsPositive() {
		return nil, fmt.Errorf("%w: quantitySold debe ser positiva", domain.ErrInvalidInput)
	}
	soldAt, err := parseDate(in.DateOfSale)
	if err != nil {
		return nil, fmt.Errorf("%w: dateOfSale inválida", domain.ErrInvalidInput)
	}

	var sale *entity.Sale
	err = uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		stage, err := repos.Stages.GetByID(ctx, in.ProcessingStageID)
		if err != nil {
			return err
		}
		if stage == nil {
			return domain.ErrNotFound
		}
		// El bloqueo de la última etapa serializa ventas concurrentes del mismo lote.
		latest, err := repos.Stages.GetLatestForUpdate(ctx, stage.ProcessingBatchID)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != stage.ID {
			return domain.ErrStageNotLatest
		}
		if latest.Status != entity.StageStatusFinished {
			return domain.ErrStageNotFinished
		}
		res := domproc.ResolveStage(latest)
		if in.QuantitySold.GreaterThan(res.NetAvailable) {
			return domain.ErrExceedsAvailable
		}
		sale = &entity.Sale{
			ID:                uuid.New().String(),
			ProcessingBatchID: latest.ProcessingBatchID,
			ProcessingStageID: latest.ID,
			ProcessingCount:   latest.ProcessingCount,
			QuantitySold:      in.QuantitySold,
			DateOfSale:        soldAt,
			CreatedByID:       userID,
			CreatedAt:         uc.now(),
		}
		return repos.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, sale.ProcessingBatchID)
	resp := toSaleResponse(sale)
	return &resp, nil
}

// DeleteSale anula una venta; el disponible de su etapa se recalcula en la siguiente lectura.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, saleID string) error {
	var batchID string
	err := uc.txRunner.RunProcessing(ctx, func(repos TxRepos) error {
		sale, err := repos.Sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		batchID = sale.ProcessingBatchID
		return repos.Sales.Delete(ctx, saleID)
	})
	if err != nil {
		return err
	}
	uc.cache.Invalidate(ctx, batchID)
	return nil
}
