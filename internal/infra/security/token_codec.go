package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lkimdaryl/foodjournal-backend/internal/infra/config"
)

// ErrTokenMalformed indicates the token is structurally or cryptographically invalid.
var ErrTokenMalformed = errors.New("token: malformed")

// ErrTokenExpired indicates the token passed signature checks but is past its expiry.
var ErrTokenExpired = errors.New("token: expired")

// SessionClaims is the signed payload of a session token. The registered ID
// claim (jti) is the revocation key.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// JTI returns the token's unique identifier.
func (c *SessionClaims) JTI() string {
	return strings.TrimSpace(c.RegisteredClaims.ID)
}

// TokenCodec signs and verifies session tokens. It is stateless: a pure
// function of (claims, secret, algorithm). Revocation checks are layered on
// top by the validation service, never here.
type TokenCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec from the JWT settings. Misconfiguration is
// rejected here, at boot, with ErrInvalidConfiguration.
func NewTokenCodec(settings config.JWTSettings, issuer string) (*TokenCodec, error) {
	secret := strings.TrimSpace(settings.Secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is required", config.ErrInvalidConfiguration)
	}

	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(strings.TrimSpace(settings.Algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", config.ErrInvalidConfiguration, settings.Algorithm)
	}

	if settings.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", config.ErrInvalidConfiguration)
	}

	codec := &TokenCodec{
		secret: []byte(secret),
		method: method,
		issuer: strings.TrimSpace(issuer),
		ttl:    settings.AccessTokenTTL,
	}
	codec.now = func() time.Time { return time.Now().UTC() }
	return codec, nil
}

// WithClock overrides the codec clock for deterministic tests.
func (c *TokenCodec) WithClock(clock func() time.Time) *TokenCodec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a fresh token for the supplied subject with a unique jti and
// the configured lifetime.
func (c *TokenCodec) Issue(subject string) (string, *SessionClaims, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", nil, fmt.Errorf("token: subject is required")
	}

	now := c.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("token: sign: %w", err)
	}

	return signed, claims, nil
}

// Decode verifies signature and structural well-formedness, then expiry.
// Malformed tokens never reach revocation logic.
func (c *TokenCodec) Decode(token string) (*SessionClaims, error) {
	return c.decode(token, true)
}

// DecodeAllowExpired verifies signature and structure but tolerates a past
// expiry. Used by the revocation path, where revoking an already-expired
// token is a harmless no-op rather than an error.
func (c *TokenCodec) DecodeAllowExpired(token string) (*SessionClaims, error) {
	return c.decode(token, false)
}

func (c *TokenCodec) decode(token string, enforceExpiry bool) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}

	claims := &SessionClaims{}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if !enforceExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.JTI() == "" || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
