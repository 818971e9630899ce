package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Procesamiento-api/internal/application/auth"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing/processingtest"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Procesamiento-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Procesamiento-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "procesamiento-test"
	testPassword  = "clave-segura"

	adminID    = "00000000-0000-0000-0000-0000000000a1"
	staffID    = "00000000-0000-0000-0000-0000000000b2"
	disabledID = "00000000-0000-0000-0000-0000000000c3"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type stubReport struct{}

func (stubReport) GenerateBatchReport(_ context.Context, d *dto.ProcessingBatchDetail) ([]byte, error) {
	return []byte("%PDF-1.4 " + d.BatchCode), nil
}

type server struct {
	app   *fiber.App
	db    *processingtest.DB
	store *processingtest.MemoryCache
}

func newServer(t *testing.T) *server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	db := processingtest.NewDB()
	db.AddUser(entity.User{ID: adminID, Name: "Admin", Email: "admin@planta.co", PasswordHash: string(hash), Role: entity.RoleAdmin, IsEnabled: true})
	db.AddUser(entity.User{ID: staffID, Name: "Operador", Email: "op@planta.co", PasswordHash: string(hash), Role: entity.RoleStaff, IsEnabled: true})
	db.AddUser(entity.User{ID: disabledID, Name: "Baja", Email: "baja@planta.co", PasswordHash: string(hash), Role: entity.RoleAdmin, IsEnabled: false})

	store := processingtest.NewMemoryCache()
	cache := processing.NewCacheManager(store, time.Hour, nil)
	repos := db.Repos()
	query := processing.NewQueryUseCase(repos.Batches, cache)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:   auth.NewAuthUseCase(db.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}),
		UserUC:   auth.NewUserUseCase(db.Users()),
		BatchUC:  processing.NewBatchUseCase(db, repos.Batches, repos.Procurements, &processingtest.SeqCodes{}, cache),
		QueryUC:  query,
		StageUC:  processing.NewStageUseCase(db, repos.Stages, repos.DryingEntries, cache),
		SaleUC:   processing.NewSaleUseCase(db, cache),
		ReportUC: processing.NewReportUseCase(query, stubReport{}),
		DB:       fakePinger{},
		Cache:    fakePinger{err: errors.New("redis caído")},
		Cookie:   apphttp.SessionCookie{Name: "token", MaxAge: time.Hour},
	})
	return &server{app: app, db: db, store: store}
}

func testSigner() *pkgjwt.Signer {
	return pkgjwt.NewSigner(pkgjwt.Config{
		Secret: testJWTSecret,
		Issuer: testIssuer,
		TTL:    time.Hour,
		Roles:  []string{entity.RoleAdmin, entity.RoleStaff},
	})
}

// tokenFor genera un JWT para el usuario indicado; el rol real se lee de la DB.
func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	return signWith(t, testSigner(), userID)
}

func signWith(t *testing.T, s *pkgjwt.Signer, userID string) string {
	t.Helper()
	tok, _, err := s.Sign(userID, entity.RoleStaff)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return tok
}

// do lanza la petición con Bearer (si token no es vacío) y devuelve la respuesta.
func (s *server) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

// finishedBatch lote con una etapa FINISHED de qty sin ventas.
func finishedBatch(batchID, stageID string, qty int64) entity.ProcessingBatch {
	q := decimal.NewFromInt(qty)
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return entity.ProcessingBatch{
		ID:                   batchID,
		BatchCode:            "COF-1-20240501-1",
		Crop:                 "Coffee",
		LotNo:                1,
		InitialBatchQuantity: q,
		CreatedAt:            created,
		CreatedByID:          staffID,
		Stages: []entity.ProcessingStage{{
			ID:                   stageID,
			ProcessingCount:      1,
			ProcessMethod:        "Lavado",
			DateOfProcessing:     created,
			DoneBy:               "Ana",
			InitialQuantity:      q,
			QuantityAfterProcess: &q,
			Status:               entity.StageStatusFinished,
		}},
	}
}
