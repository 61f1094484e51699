package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/repository"
)

type memberKey struct {
	projectID uint64
	userID    uint64
}

// MemberStore is an in-memory project membership repository keyed by
// (project, user).
type MemberStore struct {
	mu      sync.Mutex
	nextID  uint64
	members map[memberKey]*entity.ProjectMember

	Err error
}

func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[memberKey]*entity.ProjectMember)}
}

// Grant stores a membership directly. It is a test shortcut.
func (s *MemberStore) Grant(projectID, userID uint64, role entity.Role) {
	_ = s.Create(context.Background(), &entity.ProjectMember{ProjectID: projectID, UserID: userID, Role: role})
}

func (s *MemberStore) FindOne(_ context.Context, projectID, userID uint64) (*entity.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	m, ok := s.members[memberKey{projectID, userID}]
	if !ok {
		return nil, nil
	}
	found := *m
	return &found, nil
}

func (s *MemberStore) ListByProject(_ context.Context, projectID uint64) ([]*entity.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	members := make([]*entity.ProjectMember, 0)
	for key, m := range s.members {
		if key.projectID == projectID {
			found := *m
			members = append(members, &found)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *MemberStore) Create(_ context.Context, member *entity.ProjectMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	key := memberKey{member.ProjectID, member.UserID}
	if _, ok := s.members[key]; ok {
		return repository.ErrDuplicate
	}

	s.nextID++
	member.ID = s.nextID
	stored := *member
	s.members[key] = &stored
	return nil
}

func (s *MemberStore) UpdateRole(_ context.Context, projectID, userID uint64, role entity.Role, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}

	m, ok := s.members[memberKey{projectID, userID}]
	if !ok {
		return false, nil
	}
	m.Role = role
	m.UpdatedAt = now
	return true, nil
}

func (s *MemberStore) Delete(_ context.Context, projectID, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}

	key := memberKey{projectID, userID}
	if _, ok := s.members[key]; !ok {
		return false, nil
	}
	delete(s.members, key)
	return true, nil
}
