package processing

import (
	"context"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Batches       repository.ProcessingBatchRepository
	Stages        repository.ProcessingStageRepository
	Procurements  repository.ProcurementRepository
	DryingEntries repository.DryingEntryRepository
	Sales         repository.SaleRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con presupuesto de tiempo acotado.
// Si fn devuelve error no se hace commit. Si se agota el presupuesto devuelve domain.ErrTxTimeout.
type TxRunner interface {
	RunProcessing(ctx context.Context, fn func(repos TxRepos) error) error
}

// CacheStore almacén clave/valor con expiración (Redis en producción).
// Get devuelve found=false sin error cuando la clave no existe.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Keys enumera las claves que coinciden con un patrón glob (estilo MATCH de Redis).
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// BatchCodeGenerator emite códigos de lote legibles y únicos.
type BatchCodeGenerator interface {
	Generate(ctx context.Context, crop string, lotNo int, date time.Time) (string, error)
}

// BatchReportGenerator renderiza la ficha del lote (PDF).
type BatchReportGenerator interface {
	GenerateBatchReport(ctx context.Context, detail *dto.ProcessingBatchDetail) ([]byte, error)
}
