package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prefijos de clave compartidos con otros procesos que lean/invaliden la misma caché.
const (
	listKeyPrefix   = "processing-batches:list:"
	detailKeyPrefix = "processing-batch:"

	// DefaultCacheTTL vida de una entrada si no se configura otra.
	DefaultCacheTTL = time.Hour
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processing_cache_requests_total",
		Help: "Lecturas de caché de lotes por tipo y resultado",
	}, []string{"kind", "result"})

	cacheInvalidatedKeys = promauto.NewCounter(prometheus.CounterOpts{
		Name: "processing_cache_invalidated_keys_total",
		Help: "Claves de caché de lotes eliminadas por invalidación",
	})
)

// ListKey clave de un listado: prefijo + JSON de la consulta normalizada.
// Dos consultas que normalizan igual comparten entrada.
func ListKey(q dto.BatchListQuery) string {
	raw, _ := json.Marshal(q)
	return listKeyPrefix + string(raw)
}

// DetailKey clave del snapshot de un lote.
func DetailKey(batchID string) string {
	return detailKeyPrefix + batchID
}

// CacheManager lectura e invalidación de la caché de lotes.
// Es una optimización: cualquier fallo del almacén se registra y se trata como miss.
type CacheManager struct {
	store CacheStore
	ttl   time.Duration
	log   *logger.Logger
}

// NewCacheManager construye el manager. ttl <= 0 usa DefaultCacheTTL; log nil descarta.
func NewCacheManager(store CacheStore, ttl time.Duration, log *logger.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CacheManager{store: store, ttl: ttl, log: log}
}

// GetList devuelve el listado cacheado para una consulta ya normalizada.
func (m *CacheManager) GetList(ctx context.Context, q dto.BatchListQuery) (*dto.BatchListResponse, bool) {
	var out dto.BatchListResponse
	valid := func() bool {
		// La paginación guardada debe ser la de la misma consulta normalizada.
		return out.Pagination.Page == q.Page && out.Pagination.Limit == q.Limit && out.Pagination.Limit > 0
	}
	if !m.get(ctx, "list", ListKey(q), &out, valid) {
		return nil, false
	}
	return &out, true
}

// SetList guarda el listado final (ya paginado).
func (m *CacheManager) SetList(ctx context.Context, q dto.BatchListQuery, resp *dto.BatchListResponse) {
	m.set(ctx, ListKey(q), resp)
}

// GetDetail devuelve el snapshot crudo del lote. Quien lo use debe volver a agregarlo.
func (m *CacheManager) GetDetail(ctx context.Context, batchID string) (*entity.ProcessingBatch, bool) {
	var out entity.ProcessingBatch
	valid := func() bool { return out.ID != "" && out.ID == batchID }
	if !m.get(ctx, "detail", DetailKey(batchID), &out, valid) {
		return nil, false
	}
	return &out, true
}

// SetDetail guarda el snapshot crudo del lote.
func (m *CacheManager) SetDetail(ctx context.Context, batch *entity.ProcessingBatch) {
	m.set(ctx, DetailKey(batch.ID), batch)
}

// Invalidate borra todos los listados y, si batchID no es vacío, el detalle de ese lote.
// Se llama después del commit de cualquier mutación.
func (m *CacheManager) Invalidate(ctx context.Context, batchID string) {
	keys, err := m.store.Keys(ctx, listKeyPrefix+"*")
	if err != nil {
		m.log.Warn().Err(err).Msg("cache: no se pudieron enumerar los listados")
		keys = nil
	}
	if batchID != "" {
		keys = append(keys, DetailKey(batchID))
	}
	if len(keys) == 0 {
		return
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		m.log.Warn().Err(err).Str("batch_id", batchID).Int("keys", len(keys)).Msg("cache: fallo al invalidar")
		return
	}
	cacheInvalidatedKeys.Add(float64(len(keys)))
	m.log.Debug().Str("batch_id", batchID).Int("keys", len(keys)).Msg("cache invalidada")
}

// get lee y decodifica key en dst. Un valor que no es un objeto JSON, que no decodifica
// o que valid rechaza se considera corrupto: se borra y cuenta como miss.
func (m *CacheManager) get(ctx context.Context, kind, key string, dst any, valid func() bool) bool {
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		cacheRequests.WithLabelValues(kind, "error").Inc()
		m.log.Warn().Err(err).Str("key", key).Msg("cache: error de lectura")
		return false
	}
	if !found {
		cacheRequests.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := decodeObject(raw, dst); err != nil {
		m.discard(ctx, kind, key, err)
		return false
	}
	if !valid() {
		m.discard(ctx, kind, key, errSchemaMismatch)
		return false
	}
	cacheRequests.WithLabelValues(kind, "hit").Inc()
	return true
}

var (
	errNotObject      = errors.New("el valor no es un objeto JSON")
	errSchemaMismatch = errors.New("el valor no corresponde a la clave")
)

// decodeObject exige un objeto JSON: null, arrays y escalares decodificarían a un valor cero.
func decodeObject(raw []byte, dst any) error {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return errNotObject
	}
	return json.Unmarshal(raw, dst)
}

func (m *CacheManager) discard(ctx context.Context, kind, key string, cause error) {
	cacheRequests.WithLabelValues(kind, "corrupt").Inc()
	m.log.Warn().Err(cause).Str("key", key).Msg("cache: valor ilegible, se descarta")
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("cache: no se pudo borrar valor ilegible")
	}
}

func (m *CacheManager) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("cache: no se pudo serializar")
		return
	}
	if err := m.store.Set(ctx, key, raw, m.ttl); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("cache: error de escritura")
	}
}
