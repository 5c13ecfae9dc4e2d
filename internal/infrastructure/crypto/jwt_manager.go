// Package crypto implements the token service on HMAC-signed JWTs.
package crypto

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/internal/domain/service"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

type jwtManager struct {
	cfg config.AuthConfig
	log logger.Logger
}

// NewJWTManager creates the token service. The configuration is captured by
// value at construction; changing configuration means constructing a fresh
// manager.
func NewJWTManager(cfg config.AuthConfig, log logger.Logger) service.TokenService {
	return &jwtManager{cfg: cfg, log: log.WithComponent("jwt_manager")}
}

func (m *jwtManager) signingMethod() *jwt.SigningMethodHMAC {
	switch m.cfg.Algorithm {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// Issue signs a token with a fresh jti. The jti is random by construction
// and is not cross-checked against the revocation store. Issue always
// produces a real signed token, even while verification is bypassed, so
// tokens minted during local development stay valid once auth is turned
// back on.
func (m *jwtManager) Issue(ctx context.Context, claims models.Claims, ttl time.Duration) (string, error) {
	if m.cfg.Secret == "" {
		return "", errors.MissingSecret()
	}
	for _, reserved := range []string{"exp", "jti"} {
		if _, ok := claims[reserved]; ok {
			return "", errors.Validation("claim " + reserved + " is injected at issuance and must not be supplied")
		}
	}

	now := time.Now()
	cl := claims.Clone()
	cl["jti"] = uuid.NewString()
	cl["iat"] = now.Unix()
	cl["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(m.signingMethod(), jwt.MapClaims(cl)).
		SignedString([]byte(m.cfg.Secret))
	if err != nil {
		m.log.Error(ctx, "failed to sign token", err)
		return "", errors.Internal("failed to sign token").WithCause(err)
	}

	m.log.Debug(ctx, "token issued",
		logger.String("jti", cl["jti"].(string)),
		logger.String("sub", cl.Subject()),
		logger.Duration("ttl", ttl))
	return signed, nil
}

// Verify validates a token string and returns its claims. The structural
// shape check runs before any cryptographic parsing so garbage input gets a
// stable malformed-token kind cheaply.
func (m *jwtManager) Verify(ctx context.Context, tokenString string) (models.Claims, error) {
	if !m.cfg.Enabled {
		return bypassClaims(), nil
	}
	if m.cfg.Secret == "" {
		return nil, errors.MissingSecret()
	}

	if strings.Count(tokenString, ".") != 2 {
		return nil, errors.TokenMalformed("expected three dot-separated segments")
	}

	parsed, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(m.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{m.signingMethod().Alg()}),
	)
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.TokenExpired()
		case stderrors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.TokenMalformed(err.Error())
		default:
			// Signature mismatches, unexpected algorithms, tampering.
			return nil, errors.SignatureInvalid().WithCause(err)
		}
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.PayloadMalformed()
	}
	return models.Claims(mapClaims), nil
}

// bypassClaims is the fixed identity returned while authentication is
// administratively disabled. It is synthetic: callers must not assume it
// came from cryptographic validation.
func bypassClaims() models.Claims {
	return models.Claims{
		"sub":              constants.BypassSubject,
		"role":             constants.BypassRole,
		"is_authenticated": true,
		"exp":              time.Now().AddDate(100, 0, 0).Unix(),
	}
}
