package authservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/repository/userrepo"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/jwtauth"
	"github.com/mberezin/microblog/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken            = errors.New("email already in use")
	ErrInvalidToken          = errors.New("invalid verification token")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUnverifiedAccount     = errors.New("please verify your email before logging in")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrDelivery              = errors.New("mail delivery failed")
)

const oneTimeTokenBytes = 32

type AuthService struct {
	userRepo Repository
	sender   Sender
	cfg      config.Auth
	lg       logger.Logger
}

type Repository interface {
	CreateUser(context.Context, models.User) (int64, error)
	GetUserByEmail(context.Context, string) (models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	GetUserByVerificationToken(context.Context, string) (models.User, error)
	GetUserByResetToken(context.Context, string, time.Time) (models.User, error)
	UpdateUser(context.Context, models.User) error
	Shutdown(context.Context) error
}

type Sender interface {
	SendVerificationEmail(email, token string) error
	SendPasswordResetEmail(email, token string) error
}

func New(userRepo Repository, sender Sender, cfg config.Auth, lg logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sender:   sender,
		cfg:      cfg,
		lg:       lg,
	}
}

// Register creates an unverified READER account and mails a one-time
// verification token. The token stays valid until consumed.
func (as *AuthService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	token, err := newOneTimeToken()
	if err != nil {
		return models.User{}, fmt.Errorf("generate token error: %w", err)
	}

	u := models.User{ //nolint:exhaustruct
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      string(hash),
		Role:              models.RoleReader,
		Verified:          false,
		VerificationToken: &token,
	}

	id, err := as.userRepo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return models.User{}, ErrEmailTaken
		}

		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	u.ID = id

	if err := as.sender.SendVerificationEmail(u.Email, token); err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return u, nil
}

// VerifyEmail consumes a verification token. The token is single-use:
// it is cleared on success, so a second attempt fails.
func (as *AuthService) VerifyEmail(ctx context.Context, token string) (models.User, error) {
	u, err := as.userRepo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrInvalidToken
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	u.Verified = true
	u.VerificationToken = nil

	if err := as.userRepo.UpdateUser(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("update user error: %w", err)
	}

	return u, nil
}

// Login returns a session token for a verified account. Unknown email
// and wrong password fail identically so callers can't probe for
// registered addresses.
func (as *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	u, err := as.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}

		return "", models.User{}, fmt.Errorf("get user error: %w", err)
	}

	if !u.Verified {
		return "", models.User{}, ErrUnverifiedAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return "", models.User{}, fmt.Errorf("can't get token error: %w", err)
	}

	return token, u, nil
}

// RequestPasswordReset stores a reset token with a hard expiry and
// mails it. Failures are swallowed so the response never reveals
// whether the email exists.
func (as *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	u, err := as.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, userrepo.ErrNotFound) {
			as.lg.Errorf("request password reset error: %s", err.Error())
		}

		return
	}

	token, err := newOneTimeToken()
	if err != nil {
		as.lg.Errorf("generate reset token error: %s", err.Error())

		return
	}

	expiry := time.Now().Add(as.cfg.ResetTTL)
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry

	if err := as.userRepo.UpdateUser(ctx, u); err != nil {
		as.lg.Errorf("store reset token error: %s", err.Error())

		return
	}

	if err := as.sender.SendPasswordResetEmail(u.Email, token); err != nil {
		as.lg.Errorf("send reset email error: %s", err.Error())
	}
}

// ResetPassword consumes a non-expired reset token and replaces the
// password hash. Expiry is checked strictly at consumption time.
func (as *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := as.userRepo.GetUserByResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}

		return fmt.Errorf("get user error: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generate from password error: %w", err)
	}

	u.PasswordHash = string(hash)
	u.ResetToken = nil
	u.ResetTokenExpiry = nil

	if err := as.userRepo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user error: %w", err)
	}

	return nil
}

// Identity re-fetches the user behind a validated session token.
// Session tokens are stateless, so current user state (existence,
// verification) is checked here on every request.
func (as *AuthService) Identity(ctx context.Context, userID int64) (models.Identity, error) {
	u, err := as.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("get user error: %w", err)
	}

	if !u.Verified {
		return models.Identity{}, ErrUnverifiedAccount
	}

	return models.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}, nil
}

func (as *AuthService) Me(ctx context.Context, userID int64) (models.User, error) {
	u, err := as.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return u, nil
}

func (as *AuthService) Shutdown(ctx context.Context) error {
	if err := as.userRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown user repo error: %w", err)
	}

	return nil
}

func newOneTimeToken() (string, error) {
	b := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random error: %w", err)
	}

	return hex.EncodeToString(b), nil
}
