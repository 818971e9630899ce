package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
)

var _ processing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con presupuesto de tiempo.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner. timeout acota espera de conexión más ejecución; 0 = sin límite propio.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

// RunProcessing inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un agotamiento de tiempo en cualquier punto se devuelve como domain.ErrTxTimeout.
func (r *TxRunner) RunProcessing(ctx context.Context, fn func(repos processing.TxRepos) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return r.mapErr(ctx, fmt.Errorf("begin transaction: %w", err))
	}
	// Rollback con contexto propio: el de la tx puede estar vencido.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.timeout > 0 {
		// El servidor también corta sentencias y esperas de lock que excedan el presupuesto.
		ms := r.timeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)); err != nil {
			return r.mapErr(ctx, fmt.Errorf("set statement_timeout: %w", err))
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)); err != nil {
			return r.mapErr(ctx, fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	repos := processing.TxRepos{
		Batches:       NewProcessingBatchRepository(tx),
		Stages:        NewProcessingStageRepository(tx),
		Procurements:  NewProcurementRepository(tx),
		DryingEntries: NewDryingEntryRepository(tx),
		Sales:         NewSaleRepository(tx),
	}
	if err := fn(repos); err != nil {
		return r.mapErr(ctx, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return r.mapErr(ctx, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (r *TxRunner) mapErr(ctx context.Context, err error) error {
	if isTimeout(err) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", domain.ErrTxTimeout, err)
	}
	return err
}
