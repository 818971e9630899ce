package processing

import (
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	domproc "github.com/jhoicas/Procesamiento-api/internal/domain/processing"
)

func toSummary(view domproc.BatchView) dto.ProcessingBatchSummary {
	b := view.Batch
	out := dto.ProcessingBatchSummary{
		ID:                         b.ID,
		BatchCode:                  b.BatchCode,
		Crop:                       b.Crop,
		LotNo:                      b.LotNo,
		InitialBatchQuantity:       b.InitialBatchQuantity,
		CreatedAt:                  b.CreatedAt,
		Status:                     string(view.Status),
		TotalQuantitySoldFromBatch: view.TotalQuantitySoldFromBatch,
		NetAvailableQuantity:       view.NetAvailableQuantity,
	}
	if s := view.LatestStageSummary; s != nil {
		out.LatestStageSummary = &dto.StageSummaryResponse{
			ID:                   s.ID,
			ProcessingCount:      s.ProcessingCount,
			Status:               string(s.Status),
			ProcessMethod:        s.ProcessMethod,
			DateOfProcessing:     s.DateOfProcessing,
			DoneBy:               s.DoneBy,
			InitialQuantity:      s.InitialQuantity,
			QuantityAfterProcess: s.QuantityAfterProcess,
			LastDryingQuantity:   s.LastDryingQuantity,
		}
	}
	return out
}

func toDetail(view domproc.BatchView) *dto.ProcessingBatchDetail {
	b := view.Batch
	out := &dto.ProcessingBatchDetail{
		ProcessingBatchSummary: toSummary(view),
		CreatedBy:              dto.CreatedByResponse{ID: b.CreatedByID, Name: b.CreatedByName},
		ProcessingStages:       make([]dto.StageResponse, 0, len(b.Stages)),
		Sales:                  make([]dto.SaleResponse, 0, len(b.Sales)),
		Procurements:           make([]dto.ProcurementResponse, 0, len(b.Procurements)),
	}
	for i := range b.Stages {
		out.ProcessingStages = append(out.ProcessingStages, toStageResponse(&b.Stages[i]))
	}
	for i := range b.Sales {
		out.Sales = append(out.Sales, toSaleResponse(&b.Sales[i]))
	}
	for _, p := range b.Procurements {
		out.Procurements = append(out.Procurements, dto.ProcurementResponse{
			ID:            p.ID,
			FarmerID:      p.FarmerID,
			FarmerName:    p.FarmerName,
			FarmerVillage: p.FarmerVillage,
			Crop:          p.Crop,
			LotNo:         p.LotNo,
			Quantity:      p.Quantity,
		})
	}
	return out
}

func toBatchResponse(b *entity.ProcessingBatch) *dto.ProcessingBatchResponse {
	out := &dto.ProcessingBatchResponse{
		ID:                   b.ID,
		BatchCode:            b.BatchCode,
		Crop:                 b.Crop,
		LotNo:                b.LotNo,
		InitialBatchQuantity: b.InitialBatchQuantity,
		CreatedByID:          b.CreatedByID,
		CreatedAt:            b.CreatedAt,
		ProcessingStages:     make([]dto.StageResponse, 0, len(b.Stages)),
	}
	for i := range b.Stages {
		out.ProcessingStages = append(out.ProcessingStages, toStageResponse(&b.Stages[i]))
	}
	return out
}

func toStageResponse(s *entity.ProcessingStage) dto.StageResponse {
	out := dto.StageResponse{
		ID:                   s.ID,
		ProcessingBatchID:    s.ProcessingBatchID,
		ProcessingCount:      s.ProcessingCount,
		ProcessMethod:        s.ProcessMethod,
		DateOfProcessing:     s.DateOfProcessing,
		DateOfCompletion:     s.DateOfCompletion,
		DoneBy:               s.DoneBy,
		InitialQuantity:      s.InitialQuantity,
		QuantityAfterProcess: s.QuantityAfterProcess,
		Status:               string(s.Status),
		DryingEntries:        make([]dto.DryingEntryResponse, 0, len(s.DryingEntries)),
		CreatedAt:            s.CreatedAt,
	}
	for i := range s.DryingEntries {
		out.DryingEntries = append(out.DryingEntries, toDryingEntryResponse(&s.DryingEntries[i]))
	}
	return out
}

func toDryingEntryResponse(e *entity.DryingEntry) dto.DryingEntryResponse {
	return dto.DryingEntryResponse{
		ID:                 e.ID,
		ProcessingStageID:  e.ProcessingStageID,
		Day:                e.Day,
		Temperature:        e.Temperature,
		Humidity:           e.Humidity,
		PH:                 e.PH,
		MoisturePercentage: e.MoisturePercentage,
		CurrentQuantity:    e.CurrentQuantity,
		CreatedAt:          e.CreatedAt,
	}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:                s.ID,
		ProcessingBatchID: s.ProcessingBatchID,
		ProcessingStageID: s.ProcessingStageID,
		ProcessingCount:   s.ProcessingCount,
		QuantitySold:      s.QuantitySold,
		DateOfSale:        s.DateOfSale,
		CreatedAt:         s.CreatedAt,
	}
}
