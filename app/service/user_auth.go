package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/mailer"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/repository"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/security"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"
	"github.com/vibast-solutions/ms-go-taskboard-auth/config"

	"github.com/sirupsen/logrus"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByEmailVerificationToken(ctx context.Context, tokenHash string) (*entity.User, error)
	FindByForgotPasswordToken(ctx context.Context, tokenHash string) (*entity.User, error)
	FindProfileByID(ctx context.Context, id uint64) (*entity.Profile, error)
	SetEmailVerificationToken(ctx context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error
	ClearEmailVerificationToken(ctx context.Context, userID uint64, now time.Time) error
	SetForgotPasswordToken(ctx context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error
	ClearForgotPasswordToken(ctx context.Context, userID uint64, now time.Time) error
	ConfirmEmail(ctx context.Context, userID uint64, tokenHash string, now time.Time) (bool, error)
	ResetPassword(ctx context.Context, userID uint64, tokenHash, passwordHash string, now time.Time) (bool, error)
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string, now time.Time) error
	SetRefreshToken(ctx context.Context, userID uint64, tokenHash sql.NullString, now time.Time) error
	SwapRefreshToken(ctx context.Context, userID uint64, currentHash, newHash string, now time.Time) (bool, error)
	UpdateProfile(ctx context.Context, userID uint64, username, fullName string, now time.Time) error
}

type mailSender interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisterResponse, error)
	Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error)
	RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*types.RefreshTokenResponse, error)
	Logout(ctx context.Context, userID uint64) error
	ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req *types.EmailRequest) error
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, req *types.EmailRequest) error
	GetProfile(ctx context.Context, userID uint64) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.Profile, error)
	Authenticate(ctx context.Context, accessToken string) (*entity.Profile, error)
}

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo userRepository
	sender   mailSender
	cfg      *config.Config
	clock    security.Clock
	hasher   *security.PasswordHasher
	forge    *security.TokenForge
	oneTime  *security.OneTimeTokenFactory

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewUserAuthService(
	userRepo userRepository,
	sender mailSender,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo: userRepo,
		sender:   sender,
		cfg:      cfg,
		clock:    security.SystemClock{},
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.hasher = security.NewPasswordHasher(cfg.Password.BcryptCost)
	svc.forge = security.NewTokenForge(security.TokenForgeConfig{
		AccessSecret:    cfg.JWT.AccessSecret,
		RefreshSecret:   cfg.JWT.RefreshSecret,
		Issuer:          cfg.JWT.Issuer,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	}, svc.clock)
	svc.oneTime = security.NewOneTimeTokenFactory(cfg.Tokens.SingleUseTTL, svc.clock)

	return svc
}

// WithClock replaces the wall clock used for token issuance and expiry checks.
func WithClock(clock security.Clock) UserAuthServiceOption {
	return func(s *userAuthService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Register creates an unverified account and mails a verification link. When
// the mail cannot be delivered the account is kept, the verification token is
// cleared, and both the response and ErrDeliveryFailed are returned.
func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisterResponse, error) {
	email := NormalizeEmail(req.Email)
	username := NormalizeUsername(req.Username)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.oneTime.Generate()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &entity.User{
		Email:                           email,
		Username:                        username,
		PasswordHash:                    passwordHash,
		FullName:                        strings.TrimSpace(req.FullName),
		IsEmailVerified:                 false,
		EmailVerificationTokenHash:      sql.NullString{String: token.Hash, Valid: true},
		EmailVerificationTokenExpiresAt: sql.NullTime{Time: token.ExpiresAt, Valid: true},
		CreatedAt:                       now,
		UpdatedAt:                       now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	res := &types.RegisterResponse{
		UserID:          user.ID,
		Email:           user.Email,
		Username:        user.Username,
		IsEmailVerified: false,
		Message:         "registration successful, please verify your email",
	}

	if err = s.sendVerificationEmail(ctx, user, token.Plain); err != nil {
		return res, err
	}

	return res, nil
}

func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt work as a real comparison.
		s.hasher.Verify(req.Password, s.timingHash())
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradePasswordHash(ctx, user.ID, req.Password)
	}

	accessToken, err := s.forge.IssueAccess(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.forge.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	// Overwriting the stored digest revokes any refresh token from an earlier
	// login.
	refreshHash := sql.NullString{String: security.HashToken(refreshToken), Valid: true}
	if err = s.userRepo.SetRefreshToken(ctx, user.ID, refreshHash, s.clock.Now()); err != nil {
		return nil, err
	}

	return &types.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.forge.AccessTTL().Seconds()),
		User:         user.Profile(),
	}, nil
}

// RefreshToken mints a new access token from a refresh token that is validly
// signed, unexpired, and equal to the one stored for the user. With rotation
// enabled the refresh token is replaced too, guarded by a compare-and-swap on
// the stored digest.
func (s *userAuthService) RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*types.RefreshTokenResponse, error) {
	presented := strings.TrimSpace(req.RefreshToken)
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.forge.Verify(presented, security.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	presentedHash := security.HashToken(presented)
	if !user.RefreshTokenHash.Valid || !security.TokenHashEqual(presentedHash, user.RefreshTokenHash.String) {
		logrus.WithField("user_id", user.ID).Debug("Refresh token does not match the stored token")
		return nil, ErrUnauthenticated
	}

	accessToken, err := s.forge.IssueAccess(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	res := &types.RefreshTokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.forge.AccessTTL().Seconds()),
	}

	if !s.cfg.JWT.RotateRefreshToken {
		return res, nil
	}

	rotated, err := s.forge.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	swapped, err := s.userRepo.SwapRefreshToken(ctx, user.ID, presentedHash, security.HashToken(rotated), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !swapped {
		logrus.WithField("user_id", user.ID).Debug("Refresh token rotated concurrently")
		return nil, ErrUnauthenticated
	}

	res.RefreshToken = rotated
	return res, nil
}

func (s *userAuthService) Logout(ctx context.Context, userID uint64) error {
	return s.userRepo.SetRefreshToken(ctx, userID, sql.NullString{}, s.clock.Now())
}

func (s *userAuthService) ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.hasher.Verify(req.OldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if req.NewPassword == req.OldPassword {
		return ErrSamePassword
	}

	if err = s.cfg.Password.Policy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, passwordHash, s.clock.Now())
}

// ForgotPassword issues a fresh reset token, replacing any earlier one, and
// mails it. ErrUserNotFound is returned for unknown addresses so callers can
// decide whether to reveal it.
func (s *userAuthService) ForgotPassword(ctx context.Context, req *types.EmailRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.oneTime.Generate()
	if err != nil {
		return err
	}

	if err = s.userRepo.SetForgotPasswordToken(ctx, user.ID, token.Hash, token.ExpiresAt, s.clock.Now()); err != nil {
		return err
	}

	msg, err := mailer.Compose(user.Email, user.FullName, "Reset your password",
		mailer.PasswordResetEmail(s.cfg.App.Name, user.Username, s.link("reset-password", token.Plain)))
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to deliver password reset email")
		if clearErr := s.userRepo.ClearForgotPasswordToken(ctx, user.ID, s.clock.Now()); clearErr != nil {
			logrus.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear undelivered password reset token")
		}
		return ErrDeliveryFailed
	}

	return nil
}

func (s *userAuthService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error {
	tokenHash := security.HashToken(strings.TrimSpace(req.Token))

	user, err := s.userRepo.FindByForgotPasswordToken(ctx, tokenHash)
	if err != nil {
		return err
	}
	if user == nil || !s.unexpired(user.ForgotPasswordTokenExpiresAt) {
		return ErrTokenInvalidOrExpired
	}

	if err = s.cfg.Password.Policy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	consumed, err := s.userRepo.ResetPassword(ctx, user.ID, tokenHash, passwordHash, s.clock.Now())
	if err != nil {
		return err
	}
	if !consumed {
		return ErrTokenInvalidOrExpired
	}

	return nil
}

func (s *userAuthService) VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) error {
	tokenHash := security.HashToken(strings.TrimSpace(req.Token))

	user, err := s.userRepo.FindByEmailVerificationToken(ctx, tokenHash)
	if err != nil {
		return err
	}
	if user == nil || !s.unexpired(user.EmailVerificationTokenExpiresAt) {
		return ErrTokenInvalidOrExpired
	}

	consumed, err := s.userRepo.ConfirmEmail(ctx, user.ID, tokenHash, s.clock.Now())
	if err != nil {
		return err
	}
	if !consumed {
		return ErrTokenInvalidOrExpired
	}

	return nil
}

func (s *userAuthService) ResendVerification(ctx context.Context, req *types.EmailRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailVerified {
		return ErrAccountAlreadyVerified
	}

	token, err := s.oneTime.Generate()
	if err != nil {
		return err
	}

	if err = s.userRepo.SetEmailVerificationToken(ctx, user.ID, token.Hash, token.ExpiresAt, s.clock.Now()); err != nil {
		return err
	}

	return s.sendVerificationEmail(ctx, user, token.Plain)
}

func (s *userAuthService) GetProfile(ctx context.Context, userID uint64) (*entity.Profile, error) {
	profile, err := s.userRepo.FindProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return profile, nil
}

func (s *userAuthService) UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	username := user.Username
	if req.Username != nil {
		username = NormalizeUsername(*req.Username)
	}
	fullName := user.FullName
	if req.FullName != nil {
		fullName = strings.TrimSpace(*req.FullName)
	}

	if username != user.Username {
		other, err := s.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			return nil, ErrUserExists
		}
	}

	if err = s.userRepo.UpdateProfile(ctx, user.ID, username, fullName, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return s.GetProfile(ctx, user.ID)
}

// Authenticate resolves an access token to the caller's profile. Any failure,
// including a token for a deleted account, is ErrUnauthenticated.
func (s *userAuthService) Authenticate(ctx context.Context, accessToken string) (*entity.Profile, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.forge.Verify(accessToken, security.AccessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	profile, err := s.userRepo.FindProfileByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		logrus.WithField("user_id", claims.UserID).Debug("Access token for unknown user")
		return nil, ErrUnauthenticated
	}

	return profile, nil
}

func (s *userAuthService) sendVerificationEmail(ctx context.Context, user *entity.User, plainToken string) error {
	msg, err := mailer.Compose(user.Email, user.FullName, "Please verify your email",
		mailer.VerificationEmail(s.cfg.App.Name, user.Username, s.link("verify-email", plainToken)))
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err == nil {
		return nil
	}

	logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to deliver verification email")
	if clearErr := s.userRepo.ClearEmailVerificationToken(ctx, user.ID, s.clock.Now()); clearErr != nil {
		logrus.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear undelivered verification token")
	}
	return ErrDeliveryFailed
}

func (s *userAuthService) link(action, token string) string {
	return fmt.Sprintf("%s/api/v1/auth/%s/%s", strings.TrimRight(s.cfg.App.BaseURL, "/"), action, token)
}

func (s *userAuthService) unexpired(expiresAt sql.NullTime) bool {
	return expiresAt.Valid && s.clock.Now().Before(expiresAt.Time)
}

func (s *userAuthService) upgradePasswordHash(ctx context.Context, userID uint64, password string) {
	passwordHash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, userID, passwordHash, s.clock.Now())
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to upgrade password hash")
	}
}

// timingHash is a digest at the configured cost that no password matches.
func (s *userAuthService) timingHash() string {
	s.dummyHashOnce.Do(func() {
		digest, err := s.hasher.Hash("timing-equalizer-" + time.Now().String())
		if err != nil {
			logrus.WithError(err).Warn("Failed to prepare timing hash")
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}
