package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/repository"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/security"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"

	"github.com/sirupsen/logrus"
)

type membershipRepository interface {
	FindOne(ctx context.Context, projectID, userID uint64) (*entity.ProjectMember, error)
	ListByProject(ctx context.Context, projectID uint64) ([]*entity.ProjectMember, error)
	Create(ctx context.Context, member *entity.ProjectMember) error
	UpdateRole(ctx context.Context, projectID, userID uint64, role entity.Role, now time.Time) (bool, error)
	Delete(ctx context.Context, projectID, userID uint64) (bool, error)
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type ProjectAccessService interface {
	Authorize(ctx context.Context, projectID, userID uint64, allowed []entity.Role) (entity.Role, error)
	AddMember(ctx context.Context, req *types.AddMemberRequest) (*entity.ProjectMember, error)
	ListMembers(ctx context.Context, projectID uint64) ([]*entity.ProjectMember, error)
	UpdateMemberRole(ctx context.Context, req *types.UpdateMemberRoleRequest) (*entity.ProjectMember, error)
	RemoveMember(ctx context.Context, req *types.RemoveMemberRequest) error
}

type ProjectAccessServiceOption func(*projectAccessService)

type projectAccessService struct {
	memberRepo membershipRepository
	users      userFinder
	clock      security.Clock
}

func NewProjectAccessService(memberRepo membershipRepository, users userFinder, opts ...ProjectAccessServiceOption) ProjectAccessService {
	svc := &projectAccessService{
		memberRepo: memberRepo,
		users:      users,
		clock:      security.SystemClock{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithMembershipClock(clock security.Clock) ProjectAccessServiceOption {
	return func(s *projectAccessService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Authorize returns the caller's role in the project when it is one of
// allowed. Roles are compared by set membership only; admin does not imply
// any other role. An empty allowed set denies everyone.
func (s *projectAccessService) Authorize(ctx context.Context, projectID, userID uint64, allowed []entity.Role) (entity.Role, error) {
	member, err := s.memberRepo.FindOne(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		logrus.WithFields(logrus.Fields{
			"project_id": projectID,
			"user_id":    userID,
		}).Debug("Project access denied: not a member")
		return "", ErrForbidden
	}

	for _, role := range allowed {
		if member.Role == role {
			return member.Role, nil
		}
	}

	logrus.WithFields(logrus.Fields{
		"project_id": projectID,
		"user_id":    userID,
		"role":       member.Role,
	}).Debug("Project access denied: role not allowed")
	return "", ErrForbidden
}

func (s *projectAccessService) AddMember(ctx context.Context, req *types.AddMemberRequest) (*entity.ProjectMember, error) {
	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	user, err := s.users.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.memberRepo.FindOne(ctx, req.ProjectID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberExists
	}

	now := s.clock.Now()
	member := &entity.ProjectMember{
		ProjectID: req.ProjectID,
		UserID:    user.ID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMemberExists
		}
		return nil, err
	}

	return member, nil
}

func (s *projectAccessService) ListMembers(ctx context.Context, projectID uint64) ([]*entity.ProjectMember, error) {
	return s.memberRepo.ListByProject(ctx, projectID)
}

func (s *projectAccessService) UpdateMemberRole(ctx context.Context, req *types.UpdateMemberRoleRequest) (*entity.ProjectMember, error) {
	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	updated, err := s.memberRepo.UpdateRole(ctx, req.ProjectID, req.UserID, role, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrMemberNotFound
	}

	member, err := s.memberRepo.FindOne(ctx, req.ProjectID, req.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (s *projectAccessService) RemoveMember(ctx context.Context, req *types.RemoveMemberRequest) error {
	removed, err := s.memberRepo.Delete(ctx, req.ProjectID, req.UserID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMemberNotFound
	}
	return nil
}
