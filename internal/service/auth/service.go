package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const tokenType = "Bearer"

type Service struct {
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	resolvers map[model.Role]IdentityResolver
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(jwtSvc auth.JWTService, hasher security.PasswordHasher, resolvers map[model.Role]IdentityResolver,
	logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		resolvers: resolvers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Issue signs a token binding subject to role.
func (s *Service) Issue(ctx context.Context, subject string, role model.Role) (string, error) {
	token, _, err := s.jwtSvc.Generate(subject, role)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return token, nil
}

// Authenticate checks signature and expiry, then confirms the subject
// still exists in the store of the expected role. Every rejection is the
// same Unauthorized error; only a failing store surfaces as Internal.
func (s *Service) Authenticate(ctx context.Context, token string, role model.Role) (*model.Identity, error) {
	resolver, ok := s.resolvers[role]
	if !ok {
		return nil, s.reject(role, "role", fmt.Errorf("no resolver for role %q", role))
	}

	claims, err := s.jwtSvc.Parse(token)
	if err != nil {
		return nil, s.reject(role, "token", err)
	}
	if claims.Role != role {
		return nil, s.reject(role, "role", fmt.Errorf("token role %q", claims.Role))
	}

	principal, err := resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject(role, "subject", err)
		}
		return nil, apperrors.Internal(err)
	}

	identity := principal.Identity
	return &identity, nil
}

// Verify reports whether token is currently valid for role. It never
// returns an error; store failures are logged and count as invalid.
func (s *Service) Verify(ctx context.Context, token string, role model.Role) bool {
	_, err := s.Authenticate(ctx, token, role)
	if err != nil && apperrors.Is(err, apperrors.ErrInternal) {
		s.logger.Error(err, "Token verification failed", "role", string(role))
	}
	return err == nil
}

// Login checks a password for the identifier (username for admins, email
// otherwise) and issues a token. Unknown identifiers and wrong passwords
// are indistinguishable.
func (s *Service) Login(ctx context.Context, role model.Role, identifier, password string) (*model.TokenResponse, error) {
	resolver, ok := s.resolvers[role]
	if !ok {
		return nil, apperrors.InvalidCredentials()
	}

	principal, err := resolver.Resolve(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.AuthFailures.WithLabelValues(string(role), "login").Inc()
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(principal.PasswordHash, password); err != nil {
		s.metrics.AuthFailures.WithLabelValues(string(role), "login").Inc()
		return nil, apperrors.InvalidCredentials()
	}

	token, expiresAt, err := s.jwtSvc.Generate(principal.Subject, role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("Login succeeded", "role", string(role), "subject_id", principal.ID.String())
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}

func (s *Service) reject(role model.Role, kind string, err error) error {
	s.metrics.AuthFailures.WithLabelValues(string(role), kind).Inc()
	s.logger.Debug("Token rejected", "role", string(role), "reason", kind)
	return apperrors.Unauthorized(err)
}
