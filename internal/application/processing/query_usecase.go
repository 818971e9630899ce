package processing

import (
	"context"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	domproc "github.com/jhoicas/Procesamiento-api/internal/domain/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

// QueryUseCase lecturas de lotes: listado y detalle, con caché delante de la DB.
type QueryUseCase struct {
	batchRepo repository.ProcessingBatchRepository
	cache     *CacheManager
}

// NewQueryUseCase construye el caso de uso de lectura.
func NewQueryUseCase(batchRepo repository.ProcessingBatchRepository, cache *CacheManager) *QueryUseCase {
	return &QueryUseCase{batchRepo: batchRepo, cache: cache}
}

// List devuelve la página pedida. El filtro por estado se aplica sobre el estado derivado,
// por eso se agregan todos los candidatos de la búsqueda antes de paginar.
func (uc *QueryUseCase) List(ctx context.Context, q dto.BatchListQuery) (*dto.BatchListResponse, error) {
	q.Normalize()
	var wanted domproc.EffectiveStatus
	if q.Status != "" {
		st, ok := domproc.ParseEffectiveStatus(q.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		wanted = st
	}

	if cached, ok := uc.cache.GetList(ctx, q); ok {
		return cached, nil
	}

	candidates, err := uc.batchRepo.ListSnapshots(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	matched := make([]dto.ProcessingBatchSummary, 0, len(candidates))
	for _, b := range candidates {
		view := domproc.Aggregate(b)
		if wanted != "" && view.Status != wanted {
			continue
		}
		matched = append(matched, toSummary(view))
	}

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	resp := &dto.BatchListResponse{
		ProcessingBatches: matched[start:end],
		Pagination:        dto.NewPagination(q.Page, q.Limit, total),
	}
	uc.cache.SetList(ctx, q, resp)
	return resp, nil
}

// GetByID devuelve el detalle del lote. En hit de caché el snapshot se vuelve a agregar,
// así el estado nunca se lee de un valor derivado guardado.
func (uc *QueryUseCase) GetByID(ctx context.Context, batchID string) (*dto.ProcessingBatchDetail, error) {
	if snap, ok := uc.cache.GetDetail(ctx, batchID); ok {
		return toDetail(domproc.Aggregate(snap)), nil
	}
	snap, err := uc.batchRepo.GetSnapshot(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ErrNotFound
	}
	uc.cache.SetDetail(ctx, snap)
	return toDetail(domproc.Aggregate(snap)), nil
}
