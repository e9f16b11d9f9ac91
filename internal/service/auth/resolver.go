package auth

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Principal is an identity together with its stored credential.
type Principal struct {
	model.Identity
	PasswordHash string
}

// IdentityResolver looks a token subject up in one role's store. A
// missing subject is reported as repository.ErrNotFound.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (*Principal, error)
}

// ResolverFunc adapts a function to IdentityResolver.
type ResolverFunc func(ctx context.Context, subject string) (*Principal, error)

func (f ResolverFunc) Resolve(ctx context.Context, subject string) (*Principal, error) {
	return f(ctx, subject)
}

// NewResolvers wires the admin store by username and the doctor and
// patient stores by email.
func NewResolvers(admins repository.AdminRepository, doctors repository.DoctorRepository, patients repository.PatientRepository) map[model.Role]IdentityResolver {
	return map[model.Role]IdentityResolver{
		model.RoleAdmin: ResolverFunc(func(ctx context.Context, username string) (*Principal, error) {
			a, err := admins.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			return &Principal{
				Identity:     model.Identity{ID: a.ID, Subject: a.Username, Role: model.RoleAdmin, Name: a.Username},
				PasswordHash: a.PasswordHash,
			}, nil
		}),
		model.RoleDoctor: ResolverFunc(func(ctx context.Context, email string) (*Principal, error) {
			d, err := doctors.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return &Principal{
				Identity:     model.Identity{ID: d.ID, Subject: d.Email, Role: model.RoleDoctor, Name: d.Name},
				PasswordHash: d.PasswordHash,
			}, nil
		}),
		model.RolePatient: ResolverFunc(func(ctx context.Context, email string) (*Principal, error) {
			p, err := patients.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return &Principal{
				Identity:     model.Identity{ID: p.ID, Subject: p.Email, Role: model.RolePatient, Name: p.Name},
				PasswordHash: p.PasswordHash,
			}, nil
		}),
	}
}
