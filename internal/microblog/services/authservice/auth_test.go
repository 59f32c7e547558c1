package authservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/repository/userrepo"
	"github.com/mberezin/microblog/internal/microblog/services/authservice"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testCfg = config.Auth{
	TTL:      time.Hour,
	ResetTTL: time.Hour,
	Secret:   "test-secret",
}

type mockRepo struct {
	createUserFunc                 func(ctx context.Context, u models.User) (int64, error)
	getUserByEmailFunc             func(ctx context.Context, email string) (models.User, error)
	getUserByIDFunc                func(ctx context.Context, id int64) (models.User, error)
	getUserByVerificationTokenFunc func(ctx context.Context, token string) (models.User, error)
	getUserByResetTokenFunc        func(ctx context.Context, token string, now time.Time) (models.User, error)
	updateUserFunc                 func(ctx context.Context, u models.User) error
	shutdownCalls                  int
}

func (m *mockRepo) CreateUser(ctx context.Context, u models.User) (int64, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, u)
	}

	return 0, errors.New("not implemented")
}

func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if m.getUserByEmailFunc != nil {
		return m.getUserByEmailFunc(ctx, email)
	}

	return models.User{}, errors.New("not implemented")
}

func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	if m.getUserByIDFunc != nil {
		return m.getUserByIDFunc(ctx, id)
	}

	return models.User{}, errors.New("not implemented")
}

func (m *mockRepo) GetUserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	if m.getUserByVerificationTokenFunc != nil {
		return m.getUserByVerificationTokenFunc(ctx, token)
	}

	return models.User{}, errors.New("not implemented")
}

func (m *mockRepo) GetUserByResetToken(ctx context.Context, token string, now time.Time) (models.User, error) {
	if m.getUserByResetTokenFunc != nil {
		return m.getUserByResetTokenFunc(ctx, token, now)
	}

	return models.User{}, errors.New("not implemented")
}

func (m *mockRepo) UpdateUser(ctx context.Context, u models.User) error {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(ctx, u)
	}

	return errors.New("not implemented")
}

func (m *mockRepo) Shutdown(_ context.Context) error {
	m.shutdownCalls++

	return nil
}

type mockSender struct {
	verificationEmails []string
	verificationTokens []string
	resetEmails        []string
	resetTokens        []string
	err                error
}

func (m *mockSender) SendVerificationEmail(email, token string) error {
	if m.err != nil {
		return m.err
	}

	m.verificationEmails = append(m.verificationEmails, email)
	m.verificationTokens = append(m.verificationTokens, token)

	return nil
}

func (m *mockSender) SendPasswordResetEmail(email, token string) error {
	if m.err != nil {
		return m.err
	}

	m.resetEmails = append(m.resetEmails, email)
	m.resetTokens = append(m.resetTokens, token)

	return nil
}

type nopLogger struct{}

func (nopLogger) Info(args ...interface{})                    {}
func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Warnf(template string, args ...interface{})  {}
func (nopLogger) Error(args ...interface{})                   {}
func (nopLogger) Errorf(template string, args ...interface{}) {}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	return string(hash)
}

func TestRegister(t *testing.T) {
	var created models.User

	repo := &mockRepo{ //nolint:exhaustruct
		createUserFunc: func(_ context.Context, u models.User) (int64, error) {
			created = u

			return 1, nil
		},
	}
	sender := &mockSender{} //nolint:exhaustruct
	as := authservice.New(repo, sender, testCfg, nopLogger{})

	u, err := as.Register(context.Background(), authservice.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, models.RoleReader, created.Role)
	assert.False(t, created.Verified)
	require.NotNil(t, created.VerificationToken)
	assert.Len(t, *created.VerificationToken, 64)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))

	require.Len(t, sender.verificationTokens, 1)
	assert.Equal(t, *created.VerificationToken, sender.verificationTokens[0])
	assert.Equal(t, []string{"alice@example.com"}, sender.verificationEmails)
}

func TestRegisterEmailTaken(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		createUserFunc: func(_ context.Context, _ models.User) (int64, error) {
			return 0, userrepo.ErrAlreadyExists
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	_, err := as.Register(context.Background(), authservice.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, authservice.ErrEmailTaken)
}

func TestRegisterDeliveryFailure(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		createUserFunc: func(_ context.Context, _ models.User) (int64, error) {
			return 1, nil
		},
	}
	sender := &mockSender{err: errors.New("smtp down")} //nolint:exhaustruct
	as := authservice.New(repo, sender, testCfg, nopLogger{})

	_, err := as.Register(context.Background(), authservice.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, authservice.ErrDelivery)
}

func TestVerifyEmail(t *testing.T) {
	token := "sometoken"
	var updated models.User

	repo := &mockRepo{ //nolint:exhaustruct
		getUserByVerificationTokenFunc: func(_ context.Context, got string) (models.User, error) {
			if got != token {
				return models.User{}, userrepo.ErrNotFound
			}

			return models.User{ID: 1, Email: "alice@example.com", VerificationToken: &token}, nil //nolint:exhaustruct
		},
		updateUserFunc: func(_ context.Context, u models.User) error {
			updated = u

			return nil
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	u, err := as.VerifyEmail(context.Background(), token)
	require.NoError(t, err)

	assert.True(t, u.Verified)
	assert.True(t, updated.Verified)
	assert.Nil(t, updated.VerificationToken)

	_, err = as.VerifyEmail(context.Background(), "unknown")
	require.ErrorIs(t, err, authservice.ErrInvalidToken)
}

func TestLogin(t *testing.T) {
	hash := hashPassword(t, "password123")
	user := models.User{ //nolint:exhaustruct
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         models.RoleEditor,
		Verified:     true,
	}

	repo := &mockRepo{ //nolint:exhaustruct
		getUserByEmailFunc: func(_ context.Context, email string) (models.User, error) {
			if email != user.Email {
				return models.User{}, userrepo.ErrNotFound
			}

			return user, nil
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	token, got, err := as.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := jwtauth.ValidateToken(token, testCfg.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleEditor, claims.Role)

	_, _, err = as.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, authservice.ErrInvalidCredentials)

	_, _, err = as.Login(context.Background(), "unknown@example.com", "password123")
	require.ErrorIs(t, err, authservice.ErrInvalidCredentials)
}

func TestLoginUnverified(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		getUserByEmailFunc: func(_ context.Context, _ string) (models.User, error) {
			return models.User{ //nolint:exhaustruct
				ID:           1,
				Email:        "alice@example.com",
				PasswordHash: hashPassword(t, "password123"),
				Verified:     false,
			}, nil
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	_, _, err := as.Login(context.Background(), "alice@example.com", "password123")
	require.ErrorIs(t, err, authservice.ErrUnverifiedAccount)
}

func TestRequestPasswordReset(t *testing.T) {
	var updated models.User

	repo := &mockRepo{ //nolint:exhaustruct
		getUserByEmailFunc: func(_ context.Context, email string) (models.User, error) {
			if email != "alice@example.com" {
				return models.User{}, userrepo.ErrNotFound
			}

			return models.User{ID: 1, Email: email, Verified: true}, nil //nolint:exhaustruct
		},
		updateUserFunc: func(_ context.Context, u models.User) error {
			updated = u

			return nil
		},
	}
	sender := &mockSender{} //nolint:exhaustruct
	as := authservice.New(repo, sender, testCfg, nopLogger{})

	as.RequestPasswordReset(context.Background(), "alice@example.com")

	require.NotNil(t, updated.ResetToken)
	require.NotNil(t, updated.ResetTokenExpiry)
	assert.WithinDuration(t, time.Now().Add(testCfg.ResetTTL), *updated.ResetTokenExpiry, time.Minute)
	require.Len(t, sender.resetTokens, 1)
	assert.Equal(t, *updated.ResetToken, sender.resetTokens[0])

	// Unknown addresses get the same silence as known ones.
	as.RequestPasswordReset(context.Background(), "unknown@example.com")
	assert.Len(t, sender.resetTokens, 1)
}

func TestResetPassword(t *testing.T) {
	token := "resettoken"
	expiry := time.Now().Add(time.Hour)
	var updated models.User

	repo := &mockRepo{ //nolint:exhaustruct
		getUserByResetTokenFunc: func(_ context.Context, got string, now time.Time) (models.User, error) {
			if got != token || !expiry.After(now) {
				return models.User{}, userrepo.ErrNotFound
			}

			return models.User{ //nolint:exhaustruct
				ID:               1,
				Email:            "alice@example.com",
				ResetToken:       &token,
				ResetTokenExpiry: &expiry,
			}, nil
		},
		updateUserFunc: func(_ context.Context, u models.User) error {
			updated = u

			return nil
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	err := as.ResetPassword(context.Background(), token, "newpassword")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword")))
	assert.Nil(t, updated.ResetToken)
	assert.Nil(t, updated.ResetTokenExpiry)

	err = as.ResetPassword(context.Background(), "unknown", "newpassword")
	require.ErrorIs(t, err, authservice.ErrInvalidOrExpiredToken)
}

func TestResetPasswordExpired(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		getUserByResetTokenFunc: func(_ context.Context, _ string, _ time.Time) (models.User, error) {
			return models.User{}, userrepo.ErrNotFound
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	err := as.ResetPassword(context.Background(), "expired", "newpassword")
	require.ErrorIs(t, err, authservice.ErrInvalidOrExpiredToken)
}

func TestIdentity(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		getUserByIDFunc: func(_ context.Context, id int64) (models.User, error) {
			if id == 1 {
				return models.User{ID: 1, Email: "alice@example.com", Role: models.RoleAdmin, Verified: true}, nil //nolint:exhaustruct
			}

			return models.User{ID: 2, Email: "bob@example.com", Role: models.RoleReader, Verified: false}, nil //nolint:exhaustruct
		},
	}
	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	id, err := as.Identity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)

	_, err = as.Identity(context.Background(), 2)
	require.ErrorIs(t, err, authservice.ErrUnverifiedAccount)
}

func TestRequestPasswordResetStoreConflict(t *testing.T) {
	repo := &mockRepo{ //nolint:exhaustruct
		getUserByEmailFunc: func(_ context.Context, email string) (models.User, error) {
			return models.User{ID: 1, Email: email, Verified: true}, nil //nolint:exhaustruct
		},
		updateUserFunc: func(_ context.Context, _ models.User) error {
			return userrepo.ErrAlreadyExists
		},
	}
	sender := &mockSender{} //nolint:exhaustruct
	as := authservice.New(repo, sender, testCfg, nopLogger{})

	// A unique-constraint conflict on the stored token is swallowed
	// like every other failure on this path; no mail goes out.
	as.RequestPasswordReset(context.Background(), "alice@example.com")
	assert.Empty(t, sender.resetTokens)
}

func TestShutdown(t *testing.T) {
	repo := &mockRepo{} //nolint:exhaustruct

	as := authservice.New(repo, &mockSender{}, testCfg, nopLogger{}) //nolint:exhaustruct

	require.NoError(t, as.Shutdown(context.Background()))
	assert.Equal(t, 1, repo.shutdownCalls)
}
