package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const userColumns = `id, firebase_uid, clerk_id, name, email, wallet_address, role, created_at, updated_at`

type userRepository struct {
	*BaseRepository
}

func NewUserRepository(base *BaseRepository) repository.UserRepository {
	return &userRepository{BaseRepository: base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.WalletAddress != nil {
		w := model.NormalizeWallet(*user.WalletAddress)
		user.WalletAddress = &w
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirebaseUID,
		user.ClerkID,
		user.Name,
		user.Email,
		user.WalletAddress,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create user")
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, mapError(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByFirebaseUID(ctx context.Context, uid string) (*model.User, error) {
	return r.getOne(ctx, "firebase_uid = $1", uid)
}

func (r *userRepository) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	return r.getOne(ctx, "clerk_id = $1", clerkID)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *userRepository) GetByWallet(ctx context.Context, wallet string) (*model.User, error) {
	return r.getOne(ctx, "wallet_address = $1", model.NormalizeWallet(wallet))
}

func (r *userRepository) LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET clerk_id = $1, updated_at = $2 WHERE id = $3`,
		clerkID, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err, "link clerk id")
	}
	return expectRows(result, "link clerk id")
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		role, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err, "update user role")
	}
	return expectRows(result, "update user role")
}
