package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/pkg/auth"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/wallet"
)

// NoncePrefix starts every wallet login message.
const NoncePrefix = "Sign this message to authenticate with RPM: "

// TokenResolver is the identity chain used by Login.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type Service struct {
	users    repository.UserRepository
	resolver TokenResolver
	sessions *auth.SessionService
	nonces   *cache.Cache
	logger   *logger.Logger
}

func NewService(users repository.UserRepository, resolver TokenResolver, sessions *auth.SessionService, nonceTTL time.Duration, logger *logger.Logger) *Service {
	return &Service{
		users:    users,
		resolver: resolver,
		sessions: sessions,
		nonces:   cache.New(nonceTTL, 2*nonceTTL),
		logger:   logger,
	}
}

// Register creates a user. With a Clerk id an existing user is returned or
// linked by email instead of failing.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.ClerkID != nil && *req.ClerkID != "" {
		user, err := s.users.GetByClerkID(ctx, *req.ClerkID)
		if err == nil {
			return user, nil
		}
		if !stderrors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if req.Email != nil {
			existing, err := s.users.GetByEmail(ctx, *req.Email)
			if err == nil {
				if err := s.users.LinkClerkID(ctx, existing.ID, *req.ClerkID); err != nil {
					return nil, fmt.Errorf("failed to link clerk id: %w", err)
				}
				existing.ClerkID = req.ClerkID
				return existing, nil
			}
			if !stderrors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to get user: %w", err)
			}
		}
	} else if req.Email != nil {
		used, err := exists(s.users.GetByEmail(ctx, *req.Email))
		if err != nil {
			return nil, err
		}
		if used {
			return nil, errors.Conflict("Email already in use")
		}
	}

	if req.WalletAddress != nil {
		used, err := exists(s.users.GetByWallet(ctx, model.NormalizeWallet(*req.WalletAddress)))
		if err != nil {
			return nil, err
		}
		if used {
			return nil, errors.Conflict("Wallet address already in use")
		}
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	user := &model.User{
		Base:          model.Base{ID: uuid.New()},
		ClerkID:       req.ClerkID,
		Name:          req.Name,
		Email:         req.Email,
		WalletAddress: req.WalletAddress,
		Role:          role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("User already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func exists(_ *model.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get user: %w", err)
}

// Login resolves a provider token to the user it belongs to.
func (s *Service) Login(ctx context.Context, token string) (*model.User, error) {
	return s.resolver.Resolve(ctx, token)
}

// Nonce issues the message a wallet has to sign to log in.
func (s *Service) Nonce(walletAddress string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	message := NoncePrefix + hex.EncodeToString(buf)
	s.nonces.SetDefault(model.NormalizeWallet(walletAddress), message)
	return message, nil
}

// VerifyWallet checks the signature over the outstanding nonce, consumes it
// and logs the wallet's user in, creating the user on first login.
func (s *Service) VerifyWallet(ctx context.Context, req *model.WalletVerifyRequest) (*model.AuthResponse, error) {
	addr := model.NormalizeWallet(req.WalletAddress)
	v, ok := s.nonces.Get(addr)
	if !ok {
		return nil, errors.Unauthorized("Nonce expired or not requested")
	}
	message := v.(string)

	if !wallet.Verify(message, req.Signature, addr) {
		return nil, errors.Unauthorized("Invalid signature")
	}
	s.nonces.Delete(addr)

	user, err := s.users.GetByWallet(ctx, addr)
	if stderrors.Is(err, repository.ErrNotFound) {
		user = &model.User{
			Base:          model.Base{ID: uuid.New()},
			Name:          "User-" + addr[:6],
			WalletAddress: &addr,
			Role:          model.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create wallet user: %w", err)
		}
		s.logger.Info("created wallet user", "user_id", user.ID.String())
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.sessions.Issue(user.ID.String(), addr, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{AccessToken: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("User with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, errors.Conflict(fmt.Sprintf("Invalid role: %s", role))
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	return user, nil
}
