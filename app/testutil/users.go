package testutil

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/repository"
)

// UserStore is an in-memory user repository with the same uniqueness and
// conditional-update semantics as the MySQL one.
type UserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*entity.User

	// Err, when set, is returned by every call.
	Err error
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uint64]*entity.User)}
}

func (s *UserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}

	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return s.find(func(u *entity.User) bool { return u.Email == email })
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return s.find(func(u *entity.User) bool { return u.Username == username })
}

func (s *UserStore) FindByID(_ context.Context, id uint64) (*entity.User, error) {
	return s.find(func(u *entity.User) bool { return u.ID == id })
}

func (s *UserStore) FindByEmailVerificationToken(_ context.Context, tokenHash string) (*entity.User, error) {
	return s.find(func(u *entity.User) bool {
		return u.EmailVerificationTokenHash.Valid && u.EmailVerificationTokenHash.String == tokenHash
	})
}

func (s *UserStore) FindByForgotPasswordToken(_ context.Context, tokenHash string) (*entity.User, error) {
	return s.find(func(u *entity.User) bool {
		return u.ForgotPasswordTokenHash.Valid && u.ForgotPasswordTokenHash.String == tokenHash
	})
}

func (s *UserStore) FindProfileByID(ctx context.Context, id uint64) (*entity.Profile, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	return user.Profile(), nil
}

func (s *UserStore) SetEmailVerificationToken(_ context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.EmailVerificationTokenHash = sql.NullString{String: tokenHash, Valid: true}
		u.EmailVerificationTokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
		return true
	})
}

func (s *UserStore) ClearEmailVerificationToken(_ context.Context, userID uint64, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.EmailVerificationTokenHash = sql.NullString{}
		u.EmailVerificationTokenExpiresAt = sql.NullTime{}
		return true
	})
}

func (s *UserStore) SetForgotPasswordToken(_ context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.ForgotPasswordTokenHash = sql.NullString{String: tokenHash, Valid: true}
		u.ForgotPasswordTokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
		return true
	})
}

func (s *UserStore) ClearForgotPasswordToken(_ context.Context, userID uint64, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.ForgotPasswordTokenHash = sql.NullString{}
		u.ForgotPasswordTokenExpiresAt = sql.NullTime{}
		return true
	})
}

func (s *UserStore) ConfirmEmail(_ context.Context, userID uint64, tokenHash string, now time.Time) (bool, error) {
	return s.conditionalUpdate(userID, now, func(u *entity.User) bool {
		if !u.EmailVerificationTokenHash.Valid || u.EmailVerificationTokenHash.String != tokenHash {
			return false
		}
		u.IsEmailVerified = true
		u.EmailVerificationTokenHash = sql.NullString{}
		u.EmailVerificationTokenExpiresAt = sql.NullTime{}
		return true
	})
}

func (s *UserStore) ResetPassword(_ context.Context, userID uint64, tokenHash, passwordHash string, now time.Time) (bool, error) {
	return s.conditionalUpdate(userID, now, func(u *entity.User) bool {
		if !u.ForgotPasswordTokenHash.Valid || u.ForgotPasswordTokenHash.String != tokenHash {
			return false
		}
		u.PasswordHash = passwordHash
		u.ForgotPasswordTokenHash = sql.NullString{}
		u.ForgotPasswordTokenExpiresAt = sql.NullTime{}
		u.RefreshTokenHash = sql.NullString{}
		return true
	})
}

func (s *UserStore) UpdatePassword(_ context.Context, userID uint64, passwordHash string, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.PasswordHash = passwordHash
		u.RefreshTokenHash = sql.NullString{}
		return true
	})
}

func (s *UserStore) SetRefreshToken(_ context.Context, userID uint64, tokenHash sql.NullString, now time.Time) error {
	return s.update(userID, now, func(u *entity.User) bool {
		u.RefreshTokenHash = tokenHash
		return true
	})
}

func (s *UserStore) SwapRefreshToken(_ context.Context, userID uint64, currentHash, newHash string, now time.Time) (bool, error) {
	return s.conditionalUpdate(userID, now, func(u *entity.User) bool {
		if !u.RefreshTokenHash.Valid || u.RefreshTokenHash.String != currentHash {
			return false
		}
		u.RefreshTokenHash = sql.NullString{String: newHash, Valid: true}
		return true
	})
}

func (s *UserStore) UpdateProfile(_ context.Context, userID uint64, username, fullName string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, u := range s.users {
		if u.ID != userID && u.Username == username {
			return repository.ErrDuplicate
		}
	}
	if u, ok := s.users[userID]; ok {
		u.Username = username
		u.FullName = fullName
		u.UpdatedAt = now
	}
	return nil
}

// Get returns a copy of the stored user, or nil.
func (s *UserStore) Get(id uint64) *entity.User {
	user, _ := s.FindByID(context.Background(), id)
	return user
}

// Mutate edits a stored user in place, bypassing every repository rule.
func (s *UserStore) Mutate(id uint64, fn func(u *entity.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		fn(u)
	}
}

// Delete removes a user, as an account deletion would.
func (s *UserStore) Delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *UserStore) find(match func(u *entity.User) bool) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *UserStore) update(userID uint64, now time.Time, fn func(u *entity.User) bool) error {
	_, err := s.conditionalUpdate(userID, now, fn)
	return err
}

func (s *UserStore) conditionalUpdate(userID uint64, now time.Time, fn func(u *entity.User) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}

	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	if !fn(u) {
		return false, nil
	}
	u.UpdatedAt = now
	return true, nil
}
