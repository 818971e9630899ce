package http_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Registro y administración de usuarios
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_AdminCreaUsuarioQuePuedeEntrar(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", tokenFor(t, adminID),
		`{"name":"Marta","email":"Marta@Planta.co","password":"otra-clave-1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decodeMap(t, resp)["user"].(map[string]any)
	assert.Equal(t, "marta@planta.co", user["email"])
	assert.Equal(t, "STAFF", user["role"])
	assert.Equal(t, true, user["isEnabled"])
	assert.NotContains(t, user, "passwordHash")

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"marta@planta.co","password":"otra-clave-1"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Rechazos(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", `{"email":"x@planta.co","password":"clave-segura"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/register", tokenFor(t, staffID), `{"email":"x@planta.co","password":"clave-segura"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo ADMIN registra usuarios")

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"email":"OP@planta.co","password":"clave-segura"}`, http.StatusConflict, "CONFLICT"},
		{`{"email":"x@planta.co","password":"corta"}`, http.StatusBadRequest, "VALIDATION"},
		{`{"email":"x@planta.co","password":"clave-segura","role":"ROOT"}`, http.StatusBadRequest, "VALIDATION"},
		{`{"email":"","password":"clave-segura"}`, http.StatusBadRequest, "VALIDATION"},
		{`{"email":`, http.StatusBadRequest, "INVALID_BODY"},
	}
	for _, tc := range cases {
		resp := s.do(t, http.MethodPost, "/api/auth/register", tokenFor(t, adminID), tc.body)
		assert.Equal(t, tc.status, resp.StatusCode, tc.body)
		assert.Equal(t, tc.code, decodeError(t, resp).Code, tc.body)
	}
}

func TestUsers_SoloAdmin(t *testing.T) {
	s := newServer(t)
	staff := tokenFor(t, staffID)

	for _, r := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/users", ""},
		{http.MethodGet, "/api/users/" + adminID, ""},
		{http.MethodPut, "/api/users/" + staffID, `{"name":"Yo"}`},
		{http.MethodPatch, "/api/users/" + staffID + "/toggle-status", ""},
		{http.MethodDelete, "/api/users/" + staffID, ""},
	} {
		resp := s.do(t, r.method, r.path, staff, r.body)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, r.method+" "+r.path)
	}
}

func TestUsers_ListarYObtener(t *testing.T) {
	s := newServer(t)
	tok := tokenFor(t, adminID)

	resp := s.do(t, http.MethodGet, "/api/users", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeMap(t, resp)["users"].([]any)
	assert.Len(t, users, 3)

	resp = s.do(t, http.MethodGet, "/api/users/"+strings.ToUpper(disabledID), tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeMap(t, resp)["user"].(map[string]any)
	assert.Equal(t, disabledID, user["id"])
	assert.Equal(t, false, user["isEnabled"])

	resp = s.do(t, http.MethodGet, "/api/users/00000000-0000-0000-0000-0000000000ff", tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/users/42", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decodeError(t, resp).Code)
}

func TestUsers_Actualizar(t *testing.T) {
	s := newServer(t)
	tok := tokenFor(t, adminID)

	resp := s.do(t, http.MethodPut, "/api/users/"+staffID, tok, `{"name":"Operador 2","password":"nueva-clave-9"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeMap(t, resp)["user"].(map[string]any)
	assert.Equal(t, "Operador 2", user["name"])
	assert.Equal(t, "op@planta.co", user["email"], "email ausente no cambia")

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"op@planta.co","password":"nueva-clave-9"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/users/"+staffID, tok, `{"email":"admin@planta.co"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, resp).Code)

	resp = s.do(t, http.MethodPut, "/api/users/"+adminID, tok, `{"isEnabled":false}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el admin no se deshabilita a sí mismo")
}

func TestUsers_ToggleStatusCortaElAcceso(t *testing.T) {
	s := newServer(t)
	admin := tokenFor(t, adminID)
	staff := tokenFor(t, staffID)

	resp := s.do(t, http.MethodPatch, "/api/users/"+staffID+"/toggle-status", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeMap(t, resp)["user"].(map[string]any)["isEnabled"])

	resp = s.do(t, http.MethodGet, "/api/auth/me", staff, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el token emitido antes deja de servir")

	resp = s.do(t, http.MethodPatch, "/api/users/"+staffID+"/toggle-status", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeMap(t, resp)["user"].(map[string]any)["isEnabled"])

	resp = s.do(t, http.MethodGet, "/api/auth/me", staff, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUsers_Eliminar(t *testing.T) {
	s := newServer(t)
	tok := tokenFor(t, adminID)

	resp := s.do(t, http.MethodDelete, "/api/users/"+disabledID, tok, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "los ADMIN no se eliminan")
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)

	s.db.AddBatch(finishedBatch(batchID, stageID, 100))
	resp = s.do(t, http.MethodDelete, "/api/users/"+staffID, tok, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "autor de un lote")
	assert.Equal(t, "CONFLICT", decodeError(t, resp).Code)

	resp = s.do(t, http.MethodDelete, "/api/processing-batches/"+batchID, tok, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/users/"+staffID, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "usuario eliminado", decodeMap(t, resp)["message"])

	resp = s.do(t, http.MethodGet, "/api/users/"+staffID, tok, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
