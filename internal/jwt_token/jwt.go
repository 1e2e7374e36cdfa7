package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "collegeportal/pkg/domain-errors"
)

// ClientClaims identify a browser client. The subject is the client id that
// namespaces the client's durable session slot; no user data is carried.
type ClientClaims struct {
	jwt.RegisteredClaims
}

// JWTService issues and validates client tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// IssueClientToken signs a token for clientID.
func (s *JWTService) IssueClientToken(clientID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign client token")
	}
	return signed, nil
}

// ValidateClientToken returns the client id carried by a valid token.
func (s *JWTService) ValidateClientToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "client token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid client token")
	}

	claims, ok := parsed.Claims.(*ClientClaims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid client token claims")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid client id")
	}
	return claims.Subject, nil
}
