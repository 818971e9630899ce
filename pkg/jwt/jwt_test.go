package jwt_test

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/jhoicas/Procesamiento-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newSigner() *jwt.Signer {
	return jwt.NewSigner(jwt.Config{
		Secret: secret,
		Issuer: "procesamiento-api",
		TTL:    time.Hour,
		Roles:  []string{"ADMIN", "STAFF"},
	})
}

func TestSignVerify_RoundTrip(t *testing.T) {
	s := newSigner()
	token, exp, err := s.Sign("user-1", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "procesamiento-api", claims.Issuer)
}

func TestVerify_FirmaIncorrecta(t *testing.T) {
	token, _, err := newSigner().Sign("user-1", "STAFF")
	require.NoError(t, err)
	other := jwt.NewSigner(jwt.Config{Secret: "otro-secret", Issuer: "procesamiento-api", TTL: time.Hour, Roles: []string{"STAFF"}})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, gjwt.ErrTokenSignatureInvalid)
}

func TestVerify_OtroEmisor(t *testing.T) {
	other := jwt.NewSigner(jwt.Config{Secret: secret, Issuer: "inventario-api", TTL: time.Hour, Roles: []string{"STAFF"}})
	token, _, err := other.Sign("user-1", "STAFF")
	require.NoError(t, err)
	_, err = newSigner().Verify(token)
	assert.ErrorIs(t, err, gjwt.ErrTokenInvalidIssuer)
}

func TestVerify_Expirado(t *testing.T) {
	s := newSigner()
	past := s.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, _, err := past.Sign("user-1", "STAFF")
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, gjwt.ErrTokenExpired)
}

func TestVerify_DentroDeLaTolerancia(t *testing.T) {
	s := newSigner()
	// emitido por una réplica con el reloj 10s adelantado
	ahead := s.WithClock(func() time.Time { return time.Now().Add(10 * time.Second) })
	token, _, err := ahead.Sign("user-1", "STAFF")
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.NoError(t, err)
}

func TestVerify_AlgoritmoNoPermitido(t *testing.T) {
	claims := jwt.SessionClaims{
		Role: "ADMIN",
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "procesamiento-api",
			Subject:   "user-1",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = newSigner().Verify(hs512)
	assert.ErrorIs(t, err, gjwt.ErrTokenSignatureInvalid)

	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newSigner().Verify(none)
	assert.Error(t, err)
}

func TestVerify_ClaimsDeOtroDominio(t *testing.T) {
	sign := func(c jwt.SessionClaims) string {
		tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}
	base := gjwt.RegisteredClaims{
		Issuer:    "procesamiento-api",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	_, err := newSigner().Verify(sign(jwt.SessionClaims{Role: "ADMIN", RegisteredClaims: base}))
	assert.ErrorIs(t, err, jwt.ErrMissingUser)

	withSub := base
	withSub.Subject = "user-1"
	_, err = newSigner().Verify(sign(jwt.SessionClaims{Role: "bodeguero", RegisteredClaims: withSub}))
	assert.ErrorIs(t, err, jwt.ErrUnknownRole)

	noExp := withSub
	noExp.ExpiresAt = nil
	_, err = newSigner().Verify(sign(jwt.SessionClaims{Role: "STAFF", RegisteredClaims: noExp}))
	assert.ErrorIs(t, err, gjwt.ErrTokenRequiredClaimMissing)
}

func TestSign_Rechazos(t *testing.T) {
	_, _, err := jwt.NewSigner(jwt.Config{Issuer: "x", TTL: time.Hour, Roles: []string{"STAFF"}}).Sign("user-1", "STAFF")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)

	_, _, err = jwt.NewSigner(jwt.Config{Secret: secret, Roles: []string{"STAFF"}}).Sign("user-1", "STAFF")
	assert.ErrorIs(t, err, jwt.ErrNonPositiveTTL)

	_, _, err = newSigner().Sign("", "STAFF")
	assert.ErrorIs(t, err, jwt.ErrMissingUser)

	_, _, err = newSigner().Sign("user-1", "vendedor")
	assert.ErrorIs(t, err, jwt.ErrUnknownRole)

	_, err = jwt.NewSigner(jwt.Config{}).Verify("a.b.c")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}
