package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type adminRepository struct {
	BaseRepository
}

func NewAdminRepository(base BaseRepository) repository.AdminRepository {
	return &adminRepository{base}
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO admins (id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	admin.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Username,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	return mapError("create admin", err)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admins
		WHERE username = $1
	`

	var admin model.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, mapError("get admin", err)
	}
	return &admin, nil
}
