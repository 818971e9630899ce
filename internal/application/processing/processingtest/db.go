// Package processingtest dobles en memoria de los puertos de procesamiento para tests.
package processingtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ processing.TxRunner = (*DB)(nil)

type state struct {
	batches      map[string]entity.ProcessingBatch
	stages       map[string]entity.ProcessingStage
	entries      map[string]entity.DryingEntry
	sales        map[string]entity.Sale
	procurements map[string]entity.Procurement
	users        map[string]entity.User
}

func newState() *state {
	return &state{
		batches:      map[string]entity.ProcessingBatch{},
		stages:       map[string]entity.ProcessingStage{},
		entries:      map[string]entity.DryingEntry{},
		sales:        map[string]entity.Sale{},
		procurements: map[string]entity.Procurement{},
		users:        map[string]entity.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.stages {
		c.stages[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.procurements {
		c.procurements[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// DB base de datos en memoria. Las tablas guardan filas planas; los snapshots se arman al leer.
// RunProcessing serializa las transacciones y restaura el estado si fn falla.
type DB struct {
	mu sync.Mutex
	st *state

	// TxErr si no es nil, RunProcessing falla con este error sin ejecutar fn.
	TxErr error
	// TxCount transacciones iniciadas.
	TxCount int
}

// NewDB base vacía.
func NewDB() *DB {
	return &DB{st: newState()}
}

// RunProcessing implementa processing.TxRunner.
func (db *DB) RunProcessing(ctx context.Context, fn func(repos processing.TxRepos) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.TxCount++
	if db.TxErr != nil {
		return db.TxErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTxTimeout, err)
	}
	backup := db.st.clone()
	if err := fn(db.repos(true)); err != nil {
		db.st = backup
		return err
	}
	return nil
}

// Repos repositorios fuera de transacción (equivalen a los de pool).
func (db *DB) Repos() processing.TxRepos {
	return db.repos(false)
}

// Users repositorio de usuarios fuera de transacción.
func (db *DB) Users() repository.UserRepository {
	return &UserRepo{db: db}
}

func (db *DB) repos(inTx bool) processing.TxRepos {
	return processing.TxRepos{
		Batches:       &BatchRepo{db: db, inTx: inTx},
		Stages:        &StageRepo{db: db, inTx: inTx},
		Procurements:  &ProcurementRepo{db: db, inTx: inTx},
		DryingEntries: &DryingRepo{db: db, inTx: inTx},
		Sales:         &SaleRepo{db: db, inTx: inTx},
	}
}

// do ejecuta fn sobre el estado; dentro de una tx el lock ya lo tiene RunProcessing.
func (db *DB) do(inTx bool, fn func(st *state) error) error {
	if !inTx {
		db.mu.Lock()
		defer db.mu.Unlock()
	}
	return fn(db.st)
}

// ──────────────────────────────────────────────────────────────────────────────
// Siembra y consulta directa
// ──────────────────────────────────────────────────────────────────────────────

// AddUser inserta un usuario.
func (db *DB) AddUser(u entity.User) {
	_ = db.do(false, func(st *state) error {
		st.users[u.ID] = u
		return nil
	})
}

// AddProcurement inserta un procurement.
func (db *DB) AddProcurement(p entity.Procurement) {
	_ = db.do(false, func(st *state) error {
		st.procurements[p.ID] = p
		return nil
	})
}

// AddBatch descompone un snapshot completo en filas (lote, etapas, lecturas y ventas).
// Las ventas se toman de las etapas; ProcessingBatchID/ProcessingStageID se completan solos.
func (db *DB) AddBatch(b entity.ProcessingBatch) {
	_ = db.do(false, func(st *state) error {
		for _, s := range b.Stages {
			for _, e := range s.DryingEntries {
				e.ProcessingStageID = s.ID
				st.entries[e.ID] = e
			}
			for _, sale := range s.Sales {
				sale.ProcessingBatchID = b.ID
				sale.ProcessingStageID = s.ID
				st.sales[sale.ID] = sale
			}
			s.ProcessingBatchID = b.ID
			s.DryingEntries, s.Sales = nil, nil
			st.stages[s.ID] = s
		}
		for _, p := range b.Procurements {
			id := b.ID
			p.ProcessingBatchID = &id
			st.procurements[p.ID] = p
		}
		b.Stages, b.Sales, b.Procurements = nil, nil, nil
		st.batches[b.ID] = b
		return nil
	})
}

// Procurement fila actual del procurement.
func (db *DB) Procurement(id string) (entity.Procurement, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.st.procurements[id]
	return p, ok
}

// Stage fila actual de la etapa.
func (db *DB) Stage(id string) (entity.ProcessingStage, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.st.stages[id]
	return s, ok
}

// Snapshot lote completo tal como lo devolvería GetSnapshot.
func (db *DB) Snapshot(id string) *entity.ProcessingBatch {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.snapshot(id, true)
}

// Counts filas por tabla: lotes, etapas, lecturas, ventas.
func (db *DB) Counts() (batches, stages, entries, sales int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.st.batches), len(db.st.stages), len(db.st.entries), len(db.st.sales)
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado de snapshots
// ──────────────────────────────────────────────────────────────────────────────

func (st *state) stagesOf(batchID string) []entity.ProcessingStage {
	var out []entity.ProcessingStage
	for _, s := range st.stages {
		if s.ProcessingBatchID == batchID {
			s.DryingEntries = st.entriesOf(s.ID)
			s.Sales = st.salesOf(func(x entity.Sale) bool { return x.ProcessingStageID == s.ID })
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessingCount < out[j].ProcessingCount })
	return out
}

func (st *state) entriesOf(stageID string) []entity.DryingEntry {
	var out []entity.DryingEntry
	for _, e := range st.entries {
		if e.ProcessingStageID == stageID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func (st *state) salesOf(keep func(entity.Sale) bool) []entity.Sale {
	var out []entity.Sale
	for _, s := range st.sales {
		if keep(s) {
			if stage, ok := st.stages[s.ProcessingStageID]; ok {
				s.ProcessingCount = stage.ProcessingCount
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateOfSale.After(out[j].DateOfSale) })
	return out
}

func (st *state) snapshot(id string, withProcurements bool) *entity.ProcessingBatch {
	b, ok := st.batches[id]
	if !ok {
		return nil
	}
	b.Stages = st.stagesOf(id)
	b.Sales = st.salesOf(func(x entity.Sale) bool { return x.ProcessingBatchID == id })
	if u, ok := st.users[b.CreatedByID]; ok {
		b.CreatedByName = u.Name
	}
	if withProcurements {
		for _, p := range st.procurements {
			if p.ProcessingBatchID != nil && *p.ProcessingBatchID == id {
				b.Procurements = append(b.Procurements, p)
			}
		}
		sort.Slice(b.Procurements, func(i, j int) bool { return b.Procurements[i].ID < b.Procurements[j].ID })
	}
	return &b
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

var (
	_ repository.ProcessingBatchRepository = (*BatchRepo)(nil)
	_ repository.ProcessingStageRepository = (*StageRepo)(nil)
	_ repository.ProcurementRepository     = (*ProcurementRepo)(nil)
	_ repository.DryingEntryRepository     = (*DryingRepo)(nil)
	_ repository.SaleRepository            = (*SaleRepo)(nil)
	_ repository.UserRepository            = (*UserRepo)(nil)
)

// BatchRepo lotes en memoria.
type BatchRepo struct {
	db   *DB
	inTx bool
}

func (r *BatchRepo) Create(_ context.Context, b *entity.ProcessingBatch) error {
	return r.db.do(r.inTx, func(st *state) error {
		for _, x := range st.batches {
			if x.BatchCode == b.BatchCode {
				return domain.ErrDuplicate
			}
		}
		row := *b
		row.Stages, row.Sales, row.Procurements = nil, nil, nil
		st.batches[b.ID] = row
		return nil
	})
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.ProcessingBatch, error) {
	var out *entity.ProcessingBatch
	err := r.db.do(r.inTx, func(st *state) error {
		if b, ok := st.batches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *BatchRepo) GetSnapshot(_ context.Context, id string) (*entity.ProcessingBatch, error) {
	var out *entity.ProcessingBatch
	err := r.db.do(r.inTx, func(st *state) error {
		out = st.snapshot(id, true)
		return nil
	})
	return out, err
}

func (r *BatchRepo) GetWithFirstStage(_ context.Context, id string) (*entity.ProcessingBatch, error) {
	var out *entity.ProcessingBatch
	err := r.db.do(r.inTx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return domain.ErrNotFound
		}
		for _, s := range st.stages {
			if s.ProcessingBatchID == id && s.ProcessingCount == 1 {
				b.Stages = []entity.ProcessingStage{s}
			}
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *BatchRepo) ListSnapshots(_ context.Context, search string) ([]*entity.ProcessingBatch, error) {
	var out []*entity.ProcessingBatch
	err := r.db.do(r.inTx, func(st *state) error {
		needle := strings.ToLower(search)
		for id, b := range st.batches {
			if needle != "" &&
				!strings.Contains(strings.ToLower(b.BatchCode), needle) &&
				!strings.Contains(strings.ToLower(b.Crop), needle) {
				continue
			}
			out = append(out, st.snapshot(id, false))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *BatchRepo) Delete(_ context.Context, id string) error {
	return r.db.do(r.inTx, func(st *state) error {
		if _, ok := st.batches[id]; !ok {
			return domain.ErrNotFound
		}
		for sid, s := range st.stages {
			if s.ProcessingBatchID != id {
				continue
			}
			for eid, e := range st.entries {
				if e.ProcessingStageID == sid {
					delete(st.entries, eid)
				}
			}
			delete(st.stages, sid)
		}
		for saleID, s := range st.sales {
			if s.ProcessingBatchID == id {
				delete(st.sales, saleID)
			}
		}
		delete(st.batches, id)
		return nil
	})
}

// StageRepo etapas en memoria.
type StageRepo struct {
	db   *DB
	inTx bool
}

func (r *StageRepo) Create(_ context.Context, s *entity.ProcessingStage) error {
	return r.db.do(r.inTx, func(st *state) error {
		for _, x := range st.stages {
			if x.ProcessingBatchID == s.ProcessingBatchID && x.ProcessingCount == s.ProcessingCount {
				return domain.ErrDuplicate
			}
		}
		row := *s
		row.DryingEntries, row.Sales = nil, nil
		st.stages[s.ID] = row
		return nil
	})
}

func (r *StageRepo) GetByID(_ context.Context, id string) (*entity.ProcessingStage, error) {
	var out *entity.ProcessingStage
	err := r.db.do(r.inTx, func(st *state) error {
		if s, ok := st.stages[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *StageRepo) GetLatestForUpdate(_ context.Context, batchID string) (*entity.ProcessingStage, error) {
	var out *entity.ProcessingStage
	err := r.db.do(r.inTx, func(st *state) error {
		stages := st.stagesOf(batchID)
		if len(stages) > 0 {
			out = &stages[len(stages)-1]
		}
		return nil
	})
	return out, err
}

func (r *StageRepo) Finish(_ context.Context, id string, qty decimal.Decimal, completedAt time.Time) error {
	return r.db.do(r.inTx, func(st *state) error {
		s, ok := st.stages[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.Status = entity.StageStatusFinished
		s.QuantityAfterProcess = &qty
		s.DateOfCompletion = &completedAt
		st.stages[id] = s
		return nil
	})
}

func (r *StageRepo) UpdateStatus(_ context.Context, id string, status entity.StageStatus) error {
	return r.db.do(r.inTx, func(st *state) error {
		s, ok := st.stages[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.Status = status
		st.stages[id] = s
		return nil
	})
}

// ProcurementRepo procurements en memoria.
type ProcurementRepo struct {
	db   *DB
	inTx bool
}

func (r *ProcurementRepo) FindUnbatched(_ context.Context, ids []string, crop string, lotNo int) ([]*entity.Procurement, error) {
	var out []*entity.Procurement
	err := r.db.do(r.inTx, func(st *state) error {
		seen := map[string]bool{}
		for _, id := range ids {
			p, ok := st.procurements[id]
			if !ok || seen[id] || p.ProcessingBatchID != nil || p.LotNo != lotNo || !strings.EqualFold(p.Crop, crop) {
				continue
			}
			seen[id] = true
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *ProcurementRepo) AttachToBatch(_ context.Context, ids []string, batchID string) error {
	return r.db.do(r.inTx, func(st *state) error {
		for _, id := range ids {
			p, ok := st.procurements[id]
			if !ok || p.ProcessingBatchID != nil {
				return domain.ErrProcurementMismatch
			}
			bid := batchID
			p.ProcessingBatchID = &bid
			st.procurements[id] = p
		}
		return nil
	})
}

func (r *ProcurementRepo) DetachFromBatch(_ context.Context, batchID string) (int64, error) {
	var n int64
	err := r.db.do(r.inTx, func(st *state) error {
		for id, p := range st.procurements {
			if p.ProcessingBatchID != nil && *p.ProcessingBatchID == batchID {
				p.ProcessingBatchID = nil
				st.procurements[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

// DryingRepo lecturas en memoria.
type DryingRepo struct {
	db   *DB
	inTx bool
}

func (r *DryingRepo) Create(_ context.Context, e *entity.DryingEntry) error {
	return r.db.do(r.inTx, func(st *state) error {
		for _, x := range st.entries {
			if x.ProcessingStageID == e.ProcessingStageID && x.Day == e.Day {
				return domain.ErrDuplicate
			}
		}
		st.entries[e.ID] = *e
		return nil
	})
}

func (r *DryingRepo) ListByStage(_ context.Context, stageID string) ([]*entity.DryingEntry, error) {
	var out []*entity.DryingEntry
	err := r.db.do(r.inTx, func(st *state) error {
		entries := st.entriesOf(stageID)
		for i := len(entries) - 1; i >= 0; i-- {
			out = append(out, &entries[i])
		}
		return nil
	})
	return out, err
}

// SaleRepo ventas en memoria.
type SaleRepo struct {
	db   *DB
	inTx bool
}

func (r *SaleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.db.do(r.inTx, func(st *state) error {
		st.sales[s.ID] = *s
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.db.do(r.inTx, func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) Delete(_ context.Context, id string) error {
	return r.db.do(r.inTx, func(st *state) error {
		if _, ok := st.sales[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.sales, id)
		return nil
	})
}

// UserRepo usuarios en memoria.
type UserRepo struct {
	db *DB
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.db.do(false, func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.db.do(false, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.db.do(false, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.LastLoginAt = &at
		st.users[id] = u
		return nil
	})
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.db.do(false, func(st *state) error {
		if st.emailTaken(u.Email, "") {
			return domain.ErrEmailInUse
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) List(_ context.Context) ([]*entity.User, error) {
	out := []*entity.User{}
	err := r.db.do(false, func(st *state) error {
		for _, u := range st.users {
			u := u
			out = append(out, &u)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	return r.db.do(false, func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.ErrUserNotFound
		}
		if st.emailTaken(u.Email, u.ID) {
			return domain.ErrEmailInUse
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	return r.db.do(false, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return domain.ErrUserNotFound
		}
		for _, b := range st.batches {
			if b.CreatedByID == id {
				return domain.ErrUserHasRecords
			}
		}
		for _, s := range st.stages {
			if s.CreatedByID == id {
				return domain.ErrUserHasRecords
			}
		}
		for _, s := range st.sales {
			if s.CreatedByID == id {
				return domain.ErrUserHasRecords
			}
		}
		delete(st.users, id)
		return nil
	})
}

func (st *state) emailTaken(email, exceptID string) bool {
	for id, u := range st.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
