// Package identity resolves bearer tokens from the supported identity
// providers to application users.
package identity

import (
	"context"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
)

// Resolver tries each verifier in order and returns the first user found.
type Resolver struct {
	verifiers []TokenVerifier
	logger    *logger.Logger
}

func NewResolver(logger *logger.Logger, verifiers ...TokenVerifier) *Resolver {
	return &Resolver{verifiers: verifiers, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errors.Unauthorized("Missing or invalid Authorization header")
	}
	for _, v := range r.verifiers {
		user, err := v.Resolve(ctx, token)
		if err == nil {
			return user, nil
		}
		r.logger.Debug("token verifier rejected token", "verifier", v.Name(), "error", err.Error())
	}
	return nil, errors.Unauthorized("Invalid token")
}
