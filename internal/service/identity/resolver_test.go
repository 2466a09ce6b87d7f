package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/repository/mocks"
	"github.com/rpmweb/rpm-api/pkg/auth"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
)

const projectID = "rpm-test"

type providers struct {
	key         *rsa.PrivateKey
	firebase    *httptest.Server
	clerk       *httptest.Server
	clerkHits   int32
	clerkIssuer string
}

func newProviders(t *testing.T) *providers {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := &providers{key: key, clerkIssuer: "https://clerk.example.com"}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	p.firebase = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"fb-1": string(certPEM)})
	}))
	p.clerk = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&p.clerkHits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": "clerk-1",
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(p.firebase.Close)
	t.Cleanup(p.clerk.Close)
	return p
}

func (p *providers) sign(t *testing.T, kid string, claims jwt.RegisteredClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(p.key)
	require.NoError(t, err)
	return s
}

func newResolver(p *providers, users repository.UserRepository, sessions *auth.SessionService) *Resolver {
	return NewResolver(logger.Nop(),
		NewFirebaseVerifier(projectID, NewX509KeySource(p.firebase.URL, time.Hour, nil), users),
		NewClerkVerifier(p.clerkIssuer, NewJWKSKeySource(p.clerk.URL, time.Hour, nil), users),
		NewWalletVerifier(sessions, users),
	)
}

func TestResolveFirebaseToken(t *testing.T) {
	p := newProviders(t)
	users := &mocks.UserRepository{}
	want := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}
	users.On("GetByFirebaseUID", context.Background(), "fb-uid").Return(want, nil)

	token := p.sign(t, "fb-1", jwt.RegisteredClaims{
		Subject:   "fb-uid",
		Issuer:    "https://securetoken.google.com/" + projectID,
		Audience:  jwt.ClaimStrings{projectID},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	got, err := newResolver(p, users, auth.NewSessionService("s", "rpm-api", time.Hour)).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveFirebaseFallsBackToUserID(t *testing.T) {
	p := newProviders(t)
	users := &mocks.UserRepository{}
	id := uuid.New()
	users.On("GetByFirebaseUID", context.Background(), id.String()).Return(nil, repository.ErrNotFound)
	users.On("GetByID", context.Background(), id).Return(&model.User{Base: model.Base{ID: id}}, nil)

	token := p.sign(t, "fb-1", jwt.RegisteredClaims{
		Subject:   id.String(),
		Issuer:    "https://securetoken.google.com/" + projectID,
		Audience:  jwt.ClaimStrings{projectID},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	got, err := newResolver(p, users, auth.NewSessionService("s", "rpm-api", time.Hour)).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestResolveClerkTokenAndCachesKeys(t *testing.T) {
	p := newProviders(t)
	users := &mocks.UserRepository{}
	want := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleDoctor}
	users.On("GetByClerkID", context.Background(), "user_2abc").Return(want, nil)

	token := p.sign(t, "clerk-1", jwt.RegisteredClaims{
		Subject:   "user_2abc",
		Issuer:    p.clerkIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	r := newResolver(p, users, auth.NewSessionService("s", "rpm-api", time.Hour))

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.clerkHits))
}

func TestResolveWalletSession(t *testing.T) {
	p := newProviders(t)
	users := &mocks.UserRepository{}
	sessions := auth.NewSessionService("secret", "rpm-api", time.Hour)
	id := uuid.New()
	users.On("GetByID", context.Background(), id).Return(&model.User{Base: model.Base{ID: id}, Role: model.RoleUser}, nil)

	token, err := sessions.Issue(id.String(), "0xabc", "USER")
	require.NoError(t, err)

	got, err := newResolver(p, users, sessions).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestResolveRejectsWhenEveryVerifierFails(t *testing.T) {
	p := newProviders(t)
	users := &mocks.UserRepository{}
	r := newResolver(p, users, auth.NewSessionService("secret", "rpm-api", time.Hour))

	expired := p.sign(t, "clerk-1", jwt.RegisteredClaims{
		Subject:   "user_2abc",
		Issuer:    p.clerkIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	for name, token := range map[string]string{"garbage": "not-a-jwt", "expired": expired, "empty": ""} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), token)
			assert.True(t, errors.Is(err, errors.ErrUnauthorized))
		})
	}
}
