package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/config"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/repository"
)

func newAuthService(users *MockUserRepo, resets *MockResetRepo) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}
	return NewAuthService(cfg, AuthDependencies{UserRepo: users, PasswordResetRepo: resets})
}

func TestRegister_RejectsAdminAndUnknownRoles(t *testing.T) {
	svc := newAuthService(new(MockUserRepo), new(MockResetRepo))

	for _, role := range []string{"admin", "superuser", ""} {
		_, _, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "password123", role)
		assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err), "role %q", role)
	}
}

func TestRegister_CreatesAccountAndIssuesToken(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockResetRepo))

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ada@example.com" && u.Role == domain.RoleOwner && u.PasswordHash != "password123"
	})).Return(nil).Once()

	user, token, exp, err := svc.Register(context.Background(), "Ada", "  Ada@Example.com ", "password123", "owner")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockResetRepo))

	users.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "23505"}).Once()

	_, _, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "password123", "user")
	assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err))
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockResetRepo))

	hash, err := auth.HashPassword("correct-password", bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, pgx.ErrNoRows).Once()
	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}, nil).Once()

	_, _, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, _, _, wrongPwErr := svc.Login(context.Background(), "ada@example.com", "wrong-password")

	assert.Equal(t, "UNAUTHORIZED", domainErrCode(t, unknownErr))
	assert.Equal(t, "UNAUTHORIZED", domainErrCode(t, wrongPwErr))
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
}

func TestLogin_Succeeds(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockResetRepo))

	hash, err := auth.HashPassword("correct-password", bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         domain.RoleOwner,
	}, nil).Once()

	user, token, _, err := svc.Login(context.Background(), "ada@example.com", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	identity, err := svc.TokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, domain.RoleOwner, identity.Role)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	users := new(MockUserRepo)
	resets := new(MockResetRepo)
	svc := newAuthService(users, resets)

	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, pgx.ErrNoRows).Once()

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, token)
	resets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestConfirmPasswordReset_RejectsExpiredOrUsed(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Hour)

	tests := []struct {
		name  string
		token *repository.PasswordResetToken
	}{
		{"expired", &repository.PasswordResetToken{ID: "t1", UserID: "user-1", ExpiresAt: now.Add(-time.Minute)}},
		{"already used", &repository.PasswordResetToken{ID: "t2", UserID: "user-1", ExpiresAt: now.Add(time.Hour), UsedAt: &used}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepo)
			resets := new(MockResetRepo)
			svc := newAuthService(users, resets)
			resets.On("GetByToken", mock.Anything, "raw-token").Return(tc.token, nil).Once()

			err := svc.ConfirmPasswordReset(context.Background(), "raw-token", "new-password")
			assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err))
			users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}
