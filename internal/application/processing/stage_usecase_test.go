package processing_test

import (
	"context"
	"testing"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextStageReq(batchID string) dto.CreateStageRequest {
	return dto.CreateStageRequest{
		ProcessingBatchID: batchID,
		ProcessMethod:     "Tostado",
		DateOfProcessing:  "2024-05-10",
		DoneBy:            "Luis",
	}
}

func TestCreateNextStage_UsaDisponibleDeLaEtapaAnterior(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(finishedBatch("x", baseTime, 80, 30))

	st, err := e.stages.CreateNextStage(context.Background(), testUserID, nextStageReq("x"))
	require.NoError(t, err)
	assert.Equal(t, 2, st.ProcessingCount)
	assert.Equal(t, "IN_PROGRESS", st.Status)
	assert.True(t, dec(50).Equal(st.InitialQuantity))

	detail, err := e.query.GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", detail.Status)
	assert.True(t, dec(50).Equal(detail.NetAvailableQuantity))
	assert.True(t, dec(30).Equal(detail.TotalQuantitySoldFromBatch), "ventas de etapas anteriores siguen sumando")
}

func TestCreateNextStage_EtapaAnteriorEnProceso(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))
	_, err := e.stages.CreateNextStage(context.Background(), testUserID, nextStageReq("x"))
	assert.ErrorIs(t, err, domain.ErrStageNotFinished)
}

func TestCreateNextStage_SinDisponible(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(finishedBatch("x", baseTime, 80, 80))
	_, err := e.stages.CreateNextStage(context.Background(), testUserID, nextStageReq("x"))
	assert.ErrorIs(t, err, domain.ErrNothingAvailable)
}

func TestCreateNextStage_LoteInexistente(t *testing.T) {
	e := newEnv(t)
	_, err := e.stages.CreateNextStage(context.Background(), testUserID, nextStageReq("nada"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinalizeStage(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, map[int]int64{1: 90}))
	e.store.Put(processing.DetailKey("x"), []byte(`{}`))

	st, err := e.stages.FinalizeStage(context.Background(), "x-p1", dto.FinalizeStageRequest{
		QuantityAfterProcess: dec(85),
		DateOfCompletion:     "2024-05-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", st.Status)
	require.NotNil(t, st.QuantityAfterProcess)
	assert.True(t, dec(85).Equal(*st.QuantityAfterProcess))
	require.NotNil(t, st.DateOfCompletion)
	assert.False(t, e.store.Has(processing.DetailKey("x")), "detalle invalidado")

	row, _ := e.db.Stage("x-p1")
	assert.Equal(t, "FINISHED", string(row.Status))

	_, err = e.stages.FinalizeStage(context.Background(), "x-p1", dto.FinalizeStageRequest{QuantityAfterProcess: dec(85)})
	assert.ErrorIs(t, err, domain.ErrStageNotInProgress)
}

func TestFinalizeStage_CantidadNoPositiva(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))
	_, err := e.stages.FinalizeStage(context.Background(), "x-p1", dto.FinalizeStageRequest{QuantityAfterProcess: dec(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, e.db.TxCount)
}

func TestFinalizeStage_CompletadaAntesDeIniciar(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))
	_, err := e.stages.FinalizeStage(context.Background(), "x-p1", dto.FinalizeStageRequest{
		QuantityAfterProcess: dec(10),
		DateOfCompletion:     "2024-04-01",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	row, _ := e.db.Stage("x-p1")
	assert.Equal(t, "IN_PROGRESS", string(row.Status), "rollback")
}

func TestCancelStage_NuncaQuedaSoldOut(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))

	st, err := e.stages.CancelStage(context.Background(), "x-p1")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", st.Status)

	detail, err := e.query.GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", detail.Status)
	assert.True(t, detail.NetAvailableQuantity.IsZero())
}

func TestStage_EtapaAnteriorNoSeModifica(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(finishedBatch("x", baseTime, 80))
	_, err := e.stages.CreateNextStage(context.Background(), testUserID, nextStageReq("x"))
	require.NoError(t, err)

	_, err = e.stages.CancelStage(context.Background(), "x-p1")
	assert.ErrorIs(t, err, domain.ErrStageNotLatest)
}

func TestAddDryingEntry_DiasCrecientes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))

	_, err := e.stages.AddDryingEntry(ctx, "x-p1", dto.CreateDryingEntryRequest{Day: 1, CurrentQuantity: dec(95)})
	require.NoError(t, err)
	entry, err := e.stages.AddDryingEntry(ctx, "x-p1", dto.CreateDryingEntryRequest{Day: 3, CurrentQuantity: dec(88), PH: dec(5)})
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Day)

	_, err = e.stages.AddDryingEntry(ctx, "x-p1", dto.CreateDryingEntryRequest{Day: 2, CurrentQuantity: dec(90)})
	assert.ErrorIs(t, err, domain.ErrInvalidDryingDay)
	_, err = e.stages.AddDryingEntry(ctx, "x-p1", dto.CreateDryingEntryRequest{Day: 3, CurrentQuantity: dec(90)})
	assert.ErrorIs(t, err, domain.ErrInvalidDryingDay)

	detail, err := e.query.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.True(t, dec(88).Equal(detail.NetAvailableQuantity))

	list, err := e.stages.ListDryingEntries(ctx, "x-p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].Day)
	assert.Equal(t, 1, list[1].Day)
}

func TestAddDryingEntry_EtapaFinalizada(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(finishedBatch("x", baseTime, 80))
	_, err := e.stages.AddDryingEntry(context.Background(), "x-p1", dto.CreateDryingEntryRequest{Day: 1, CurrentQuantity: dec(70)})
	assert.ErrorIs(t, err, domain.ErrStageNotInProgress)
}

func TestAddDryingEntry_ValidacionDeEntrada(t *testing.T) {
	e := newEnv(t)
	e.db.AddBatch(inProgressBatch("x", baseTime, 100, nil))
	_, err := e.stages.AddDryingEntry(context.Background(), "x-p1", dto.CreateDryingEntryRequest{Day: 0, CurrentQuantity: dec(70)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.stages.AddDryingEntry(context.Background(), "x-p1", dto.CreateDryingEntryRequest{Day: 1, CurrentQuantity: dec(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, e.db.TxCount)
}

func TestListDryingEntries_EtapaInexistente(t *testing.T) {
	e := newEnv(t)
	_, err := e.stages.ListDryingEntries(context.Background(), "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
