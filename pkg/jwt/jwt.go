package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// leeway tolerancia de reloj entre réplicas al validar exp/iat.
const leeway = 30 * time.Second

// Errores de firma y validación de sesiones.
var (
	ErrEmptySecret    = errors.New("jwt: secret vacío")
	ErrMissingUser    = errors.New("jwt: token sin sub")
	ErrUnknownRole    = errors.New("jwt: rol no reconocido")
	ErrNonPositiveTTL = errors.New("jwt: la vigencia debe ser positiva")
)

// SessionClaims sesión de un usuario: sub es el ID del usuario, iss el servicio que la emitió.
// El rol viaja solo como pista; quien autentica vuelve a leerlo de la DB.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID ID del usuario de la sesión.
func (c *SessionClaims) UserID() string { return c.Subject }

// Config parámetros del firmador.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Roles aceptados al firmar y al validar.
	Roles []string
}

// Signer emite y valida tokens de sesión HS256 de un único emisor.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	roles  map[string]bool
	now    func() time.Time
}

// NewSigner construye el firmador. Un secret vacío no falla aquí sino al firmar o validar.
func NewSigner(cfg Config) *Signer {
	roles := make(map[string]bool, len(cfg.Roles))
	for _, r := range cfg.Roles {
		roles[r] = true
	}
	return &Signer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		roles:  roles,
		now:    time.Now,
	}
}

// WithClock copia del firmador con otro reloj.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

// Sign emite un token para userID con su rol y devuelve también su vencimiento.
func (s *Signer) Sign(userID, role string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrEmptySecret
	}
	if s.ttl <= 0 {
		return "", time.Time{}, ErrNonPositiveTTL
	}
	if userID == "" {
		return "", time.Time{}, ErrMissingUser
	}
	if !s.roles[role] {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("firmar token: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma HS256, emisor, vigencia, sub y rol, y devuelve los claims.
func (s *Signer) Verify(token string) (*SessionClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrEmptySecret
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(s.now),
	)
	claims := &SessionClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingUser
	}
	if !s.roles[claims.Role] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}
	return claims, nil
}
