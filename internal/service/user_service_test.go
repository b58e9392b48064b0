package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/internal/auth"
	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

const testSecret = "service-test-secret-with-enough-bytes"

func newTestUserService(t *testing.T, repo repository.UserRepository) (*userService, *auth.TokenCodec) {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	svc := NewUserService(repo, hasher, tokens, logger).(*userService)
	return svc, tokens
}

func TestUserService_RegisterThenLogin(t *testing.T) {
	svc, tokens := newTestUserService(t, newMockUserRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "", "a@x.com", "p1")
	require.NoError(t, err)
	loggedIn, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	for _, token := range []string{registered.Token, loggedIn.Token} {
		principal, err := tokens.Parse(token, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", principal.Subject)
		assert.Equal(t, domain.RoleUser, principal.Role)
	}

	assert.Equal(t, "a", registered.User.Username)
	assert.Empty(t, registered.User.PasswordHash)
	assert.Empty(t, loggedIn.User.PasswordHash)
}

func TestUserService_RegisterNormalizesEmail(t *testing.T) {
	repo := newMockUserRepository()
	svc, tokens := newTestUserService(t, repo)
	ctx := context.Background()

	result, err := svc.Register(ctx, "Alice", "  Alice@Example.COM ", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.User.Email)

	principal, err := tokens.Parse(result.Token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.Subject)

	_, err = svc.Login(ctx, "ALICE@example.com", "secret-pass")
	assert.NoError(t, err)
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		email       string
		password    string
		setupRepo   func(repo *mockUserRepository)
		expectedErr error
	}{
		{
			name:     "success",
			username: "alice",
			email:    "alice@example.com",
			password: "secret",
		},
		{
			name:        "missing email",
			email:       "   ",
			password:    "secret",
			expectedErr: ErrValidation,
		},
		{
			name:        "bad email",
			email:       "not-an-email",
			password:    "secret",
			expectedErr: ErrValidation,
		},
		{
			name:        "missing password",
			email:       "alice@example.com",
			expectedErr: ErrValidation,
		},
		{
			name:        "password too long",
			email:       "alice@example.com",
			password:    strings.Repeat("p", 73),
			expectedErr: ErrValidation,
		},
		{
			name:        "username too long",
			username:    strings.Repeat("u", 101),
			email:       "alice@example.com",
			password:    "secret",
			expectedErr: ErrValidation,
		},
		{
			name:     "duplicate via existence check",
			email:    "alice@example.com",
			password: "secret",
			setupRepo: func(repo *mockUserRepository) {
				_, _ = repo.Create(context.Background(), &domain.User{Email: "alice@example.com"})
			},
			expectedErr: ErrDuplicateEmail,
		},
		{
			name:     "duplicate via unique constraint",
			email:    "alice@example.com",
			password: "secret",
			setupRepo: func(repo *mockUserRepository) {
				repo.createErr = repository.ErrDuplicate
			},
			expectedErr: ErrDuplicateEmail,
		},
		{
			name:     "store failure",
			email:    "alice@example.com",
			password: "secret",
			setupRepo: func(repo *mockUserRepository) {
				repo.existsErr = errors.New("db down")
			},
			expectedErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc, _ := newTestUserService(t, repo)

			result, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if tt.expectedErr != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedErr, ErrValidation) || errors.Is(tt.expectedErr, ErrDuplicateEmail) {
					assert.ErrorIs(t, err, tt.expectedErr)
				} else {
					assert.Contains(t, err.Error(), tt.expectedErr.Error())
				}
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.NotZero(t, result.User.ID)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	repo := newMockUserRepository()
	svc, _ := newTestUserService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "right-password")
	require.NoError(t, err)

	tests := []struct {
		name        string
		email       string
		password    string
		expectedErr error
	}{
		{name: "success", email: "alice@example.com", password: "right-password"},
		{name: "wrong password", email: "alice@example.com", password: "wrong-password", expectedErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "right-password", expectedErr: ErrInvalidCredentials},
		{name: "empty email", email: "", password: "right-password", expectedErr: ErrInvalidCredentials},
		{name: "empty password", email: "alice@example.com", password: "", expectedErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(ctx, tt.email, tt.password)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
		})
	}
}

func TestUserService_LoginStoreFailure(t *testing.T) {
	repo := newMockUserRepository()
	repo.getErr = errors.New("db down")
	svc, _ := newTestUserService(t, repo)

	_, err := svc.Login(context.Background(), "alice@example.com", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_ResolveIdentity(t *testing.T) {
	repo := newMockUserRepository()
	svc, _ := newTestUserService(t, repo)
	ctx := context.Background()

	result, err := svc.Register(ctx, "alice", "alice@example.com", "secret")
	require.NoError(t, err)

	identity, err := svc.ResolveIdentity(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, identity.UserID)
	assert.Equal(t, domain.RoleUser, identity.Role)

	repo.delete("alice@example.com")
	_, err = svc.ResolveIdentity(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.GetByID(ctx, result.User.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUserService_NeverLogsSecrets(t *testing.T) {
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	svc := NewUserService(newMockUserRepository(), hasher, tokens, logger)
	result, err := svc.Register(context.Background(), "alice", "alice@example.com", "very-secret-password")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "alice@example.com", "very-secret-password")
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "very-secret-password")
		assert.NotContains(t, line, result.Token)
	}
}
