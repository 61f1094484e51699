package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/middleware"

	"github.com/labstack/echo/v4"
)

func (g *gate) projectRequest(t *testing.T, access, projectID string, handler echo.HandlerFunc, roles ...entity.Role) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if access != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	}
	chain := g.auth.RequireAuth(g.project.RequireProjectRole(roles...)(handler))
	return g.serve(req, chain, []string{"projectId"}, []string{projectID})
}

func TestRequireProjectRoleAllowsListedRole(t *testing.T) {
	g := newGate(t)
	userID, access := g.signIn(t, "a@x.com", "alice")
	g.members.Grant(7, userID, entity.RoleProjectAdmin)

	var gotRole entity.Role
	var gotProject uint64
	rec := g.projectRequest(t, access, "7", func(c echo.Context) error {
		gotRole = middleware.ProjectRole(c)
		gotProject = middleware.ProjectID(c)
		return c.NoContent(http.StatusNoContent)
	}, entity.RoleAdmin, entity.RoleProjectAdmin)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotRole != entity.RoleProjectAdmin || gotProject != 7 {
		t.Fatalf("unexpected context: role=%q project=%d", gotRole, gotProject)
	}
}

func TestRequireProjectRoleDeniesOtherRole(t *testing.T) {
	g := newGate(t)
	userID, access := g.signIn(t, "a@x.com", "alice")
	g.members.Grant(7, userID, entity.RoleMember)

	rec := g.projectRequest(t, access, "7", okHandler, entity.RoleAdmin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireProjectRoleAdminIsNotImplicit(t *testing.T) {
	g := newGate(t)
	userID, access := g.signIn(t, "a@x.com", "alice")
	g.members.Grant(7, userID, entity.RoleAdmin)

	rec := g.projectRequest(t, access, "7", okHandler, entity.RoleMember)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireProjectRoleNonMember(t *testing.T) {
	g := newGate(t)
	userID, access := g.signIn(t, "a@x.com", "alice")
	g.members.Grant(8, userID, entity.RoleAdmin)

	rec := g.projectRequest(t, access, "7", okHandler, entity.RoleAdmin, entity.RoleProjectAdmin, entity.RoleMember)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireProjectRoleEmptyAllowedSet(t *testing.T) {
	g := newGate(t)
	userID, access := g.signIn(t, "a@x.com", "alice")
	g.members.Grant(7, userID, entity.RoleAdmin)

	rec := g.projectRequest(t, access, "7", okHandler)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireProjectRoleInvalidProjectID(t *testing.T) {
	g := newGate(t)
	_, access := g.signIn(t, "a@x.com", "alice")

	for _, id := range []string{"abc", "0", "-1", ""} {
		rec := g.projectRequest(t, access, id, okHandler, entity.RoleAdmin)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("project id %q: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestRequireProjectRoleUnauthenticated(t *testing.T) {
	g := newGate(t)

	rec := g.projectRequest(t, "", "7", okHandler, entity.RoleAdmin)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireProjectRoleWithoutAuthMiddleware(t *testing.T) {
	g := newGate(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := g.serve(req, g.project.RequireProjectRole(entity.RoleAdmin)(okHandler), []string{"projectId"}, []string{"7"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireProjectRoleStoreFailure(t *testing.T) {
	g := newGate(t)
	_, access := g.signIn(t, "a@x.com", "alice")
	g.members.Err = errors.New("db down")

	rec := g.projectRequest(t, access, "7", okHandler, entity.RoleAdmin)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
