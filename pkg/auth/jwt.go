package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const (
	// MinSecretLength is the smallest accepted HMAC key, in bytes.
	MinSecretLength = 32
	DefaultExpiry   = 7 * 24 * time.Hour
)

var (
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims binds a subject (email or username) to a role.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTService interface {
	Generate(subject string, role model.Role) (token string, expiresAt time.Time, err error)
	// Parse checks signature, algorithm and expiry. Every failure is
	// reported as ErrInvalidToken.
	Parse(token string) (*Claims, error)
}

type Config struct {
	Secret string
	Expiry time.Duration
	Issuer string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService copies the secret so later changes to cfg cannot affect
// signing. A short secret is rejected.
func NewJWTService(cfg Config) (JWTService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &jwtService{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}, nil
}

func (s *jwtService) Generate(subject string, role model.Role) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiry)

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *jwtService) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
