package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/pkg/auth"
)

// TokenVerifier turns a bearer token into a known user.
type TokenVerifier interface {
	Name() string
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// parseRS256 validates token against keys and returns its claims.
func parseRS256(ctx context.Context, token string, keys *KeySource, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		return keys.Key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// FirebaseVerifier accepts Firebase ID tokens. The uid is matched against
// users.firebase_uid first and users.id second.
type FirebaseVerifier struct {
	projectID string
	keys      *KeySource
	users     repository.UserRepository
}

func NewFirebaseVerifier(projectID string, keys *KeySource, users repository.UserRepository) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, keys: keys, users: users}
}

func (v *FirebaseVerifier) Name() string { return "firebase" }

func (v *FirebaseVerifier) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := parseRS256(ctx, token, v.keys,
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
	)
	if err != nil {
		return nil, err
	}

	user, err := v.users.GetByFirebaseUID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	id, parseErr := uuid.Parse(claims.Subject)
	if parseErr != nil {
		return nil, fmt.Errorf("no user for firebase uid %s", claims.Subject)
	}
	return v.users.GetByID(ctx, id)
}

// ClerkVerifier accepts Clerk session tokens; sub is the Clerk user id.
type ClerkVerifier struct {
	issuer string
	keys   *KeySource
	users  repository.UserRepository
}

func NewClerkVerifier(issuer string, keys *KeySource, users repository.UserRepository) *ClerkVerifier {
	return &ClerkVerifier{issuer: issuer, keys: keys, users: users}
}

func (v *ClerkVerifier) Name() string { return "clerk" }

func (v *ClerkVerifier) Resolve(ctx context.Context, token string) (*model.User, error) {
	var opts []jwt.ParserOption
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims, err := parseRS256(ctx, token, v.keys, opts...)
	if err != nil {
		return nil, err
	}
	return v.users.GetByClerkID(ctx, claims.Subject)
}

// WalletVerifier accepts the session tokens issued after a wallet login.
type WalletVerifier struct {
	sessions *auth.SessionService
	users    repository.UserRepository
}

func NewWalletVerifier(sessions *auth.SessionService, users repository.UserRepository) *WalletVerifier {
	return &WalletVerifier{sessions: sessions, users: users}
}

func (v *WalletVerifier) Name() string { return "wallet" }

func (v *WalletVerifier) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := v.sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", auth.ErrInvalidToken)
	}
	return v.users.GetByID(ctx, id)
}
