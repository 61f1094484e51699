package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/testutil"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"
)

const projectID = uint64(42)

func newProjectAccess(t *testing.T) (service.ProjectAccessService, *testutil.MemberStore, *testutil.UserStore) {
	t.Helper()

	members := testutil.NewMemberStore()
	users := testutil.NewUserStore()
	svc := service.NewProjectAccessService(members, users, service.WithMembershipClock(testutil.NewClock(time.Now())))
	return svc, members, users
}

func createUser(t *testing.T, users *testutil.UserStore, email, username string) *entity.User {
	t.Helper()

	user := &entity.User{Email: email, Username: username, PasswordHash: "x", FullName: username}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

// roleSubsets enumerates every subset of the available roles, including the
// empty one.
func roleSubsets() [][]entity.Role {
	var subsets [][]entity.Role
	n := len(entity.AvailableRoles)
	for mask := 0; mask < 1<<n; mask++ {
		subset := []entity.Role{}
		for i, role := range entity.AvailableRoles {
			if mask&(1<<i) != 0 {
				subset = append(subset, role)
			}
		}
		subsets = append(subsets, subset)
	}
	return subsets
}

func contains(roles []entity.Role, role entity.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func TestAuthorizeMatrix(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	ctx := context.Background()

	for i, role := range entity.AvailableRoles {
		members.Grant(projectID, uint64(i+1), role)
	}
	outsider := uint64(100)

	for _, allowed := range roleSubsets() {
		for i, role := range entity.AvailableRoles {
			userID := uint64(i + 1)
			got, err := svc.Authorize(ctx, projectID, userID, allowed)
			if contains(allowed, role) {
				if err != nil || got != role {
					t.Fatalf("role %s with allowed %v: expected %s, got %q %v", role, allowed, role, got, err)
				}
				continue
			}
			if !errors.Is(err, service.ErrForbidden) || got != "" {
				t.Fatalf("role %s with allowed %v: expected ErrForbidden, got %q %v", role, allowed, got, err)
			}
		}

		if _, err := svc.Authorize(ctx, projectID, outsider, allowed); !errors.Is(err, service.ErrForbidden) {
			t.Fatalf("non-member with allowed %v: expected ErrForbidden, got %v", allowed, err)
		}
	}
}

func TestAuthorizeIsScopedToProject(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	members.Grant(projectID, 1, entity.RoleAdmin)

	_, err := svc.Authorize(context.Background(), projectID+1, 1, entity.AvailableRoles)
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on another project, got %v", err)
	}
}

func TestAuthorizeStoreError(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	members.Err = errors.New("db down")

	_, err := svc.Authorize(context.Background(), projectID, 1, entity.AvailableRoles)
	if err == nil || errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	svc, _, users := newProjectAccess(t)
	bob := createUser(t, users, "b@x.com", "bob")
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, &types.AddMemberRequest{ProjectID: projectID, Email: "b@x.com", Role: "owner"}); !errors.Is(err, service.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.AddMember(ctx, &types.AddMemberRequest{ProjectID: projectID, Email: "nobody@x.com", Role: "member"}); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	member, err := svc.AddMember(ctx, &types.AddMemberRequest{ProjectID: projectID, Email: " B@X.com", Role: "member"})
	if err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if member.ID == 0 || member.UserID != bob.ID || member.Role != entity.RoleMember || member.CreatedAt.IsZero() {
		t.Fatalf("unexpected member: %+v", member)
	}

	if _, err = svc.AddMember(ctx, &types.AddMemberRequest{ProjectID: projectID, Email: "b@x.com", Role: "admin"}); !errors.Is(err, service.ErrMemberExists) {
		t.Fatalf("expected ErrMemberExists, got %v", err)
	}

	role, err := svc.Authorize(ctx, projectID, bob.ID, []entity.Role{entity.RoleMember})
	if err != nil || role != entity.RoleMember {
		t.Fatalf("expected new member to be authorized, got %q %v", role, err)
	}
}

func TestListMembers(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	members.Grant(projectID, 1, entity.RoleAdmin)
	members.Grant(projectID, 2, entity.RoleMember)
	members.Grant(projectID+1, 3, entity.RoleMember)

	list, err := svc.ListMembers(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if len(list) != 2 || list[0].UserID != 1 || list[1].UserID != 2 {
		t.Fatalf("unexpected members: %+v", list)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	members.Grant(projectID, 2, entity.RoleMember)
	ctx := context.Background()

	if _, err := svc.UpdateMemberRole(ctx, &types.UpdateMemberRoleRequest{ProjectID: projectID, UserID: 2, Role: "superuser"}); !errors.Is(err, service.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.UpdateMemberRole(ctx, &types.UpdateMemberRoleRequest{ProjectID: projectID, UserID: 9, Role: "admin"}); !errors.Is(err, service.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	member, err := svc.UpdateMemberRole(ctx, &types.UpdateMemberRoleRequest{ProjectID: projectID, UserID: 2, Role: "project_admin"})
	if err != nil {
		t.Fatalf("update role failed: %v", err)
	}
	if member.Role != entity.RoleProjectAdmin {
		t.Fatalf("expected project_admin, got %s", member.Role)
	}

	if _, err = svc.Authorize(ctx, projectID, 2, []entity.Role{entity.RoleMember}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected old role to no longer match, got %v", err)
	}
}

func TestUpdateMemberRoleStampsServiceClock(t *testing.T) {
	members := testutil.NewMemberStore()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := service.NewProjectAccessService(members, testutil.NewUserStore(), service.WithMembershipClock(clock))
	members.Grant(projectID, 2, entity.RoleMember)

	clock.Advance(time.Hour)
	member, err := svc.UpdateMemberRole(context.Background(), &types.UpdateMemberRoleRequest{ProjectID: projectID, UserID: 2, Role: "admin"})
	if err != nil {
		t.Fatalf("update role failed: %v", err)
	}
	if !member.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updated_at %v, got %v", clock.Now(), member.UpdatedAt)
	}
}

func TestRemoveMember(t *testing.T) {
	svc, members, _ := newProjectAccess(t)
	members.Grant(projectID, 2, entity.RoleMember)
	ctx := context.Background()

	if err := svc.RemoveMember(ctx, &types.RemoveMemberRequest{ProjectID: projectID, UserID: 2}); err != nil {
		t.Fatalf("remove member failed: %v", err)
	}
	if err := svc.RemoveMember(ctx, &types.RemoveMemberRequest{ProjectID: projectID, UserID: 2}); !errors.Is(err, service.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if _, err := svc.Authorize(ctx, projectID, 2, entity.AvailableRoles); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected removed member to be forbidden, got %v", err)
	}
}
