package middleware

import (
	"context"
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-taskboard-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	contextProjectID   = "project_id"
	contextProjectRole = "project_role"
)

type projectAuthorizer interface {
	Authorize(ctx context.Context, projectID, userID uint64, allowed []entity.Role) (entity.Role, error)
}

type ProjectMiddleware struct {
	accessService projectAuthorizer
}

func NewProjectMiddleware(accessService projectAuthorizer) *ProjectMiddleware {
	return &ProjectMiddleware{accessService: accessService}
}

// RequireProjectRole admits callers whose membership role in :projectId is
// one of roles. It must run after RequireAuth.
func (m *ProjectMiddleware) RequireProjectRole(roles ...entity.Role) echo.MiddlewareFunc {
	allowed := append([]entity.Role(nil), roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			projectID, err := types.ParseProjectID(c)
			if err != nil {
				logrus.WithField("project_id", c.Param("projectId")).Debug("Invalid project id")
				return c.JSON(http.StatusBadRequest, httpdto.NewError(httpdto.CodeBadRequest, err.Error()))
			}

			userID, ok := UserID(c)
			if !ok {
				logrus.Warn("Project access check without an authenticated user")
				return c.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "unauthorized"))
			}

			role, err := m.accessService.Authorize(c.Request().Context(), projectID, userID, allowed)
			if err != nil {
				if errors.Is(err, service.ErrForbidden) {
					logrus.WithFields(logrus.Fields{
						"project_id": projectID,
						"user_id":    userID,
					}).Warn("Project access denied")
					return c.JSON(http.StatusForbidden, httpdto.NewError(httpdto.CodeForbidden, "you do not have permission to perform this action"))
				}
				logrus.WithError(err).WithField("project_id", projectID).Error("Project access check failed")
				return c.JSON(http.StatusInternalServerError, httpdto.InternalError())
			}

			c.Set(contextProjectID, projectID)
			c.Set(contextProjectRole, role)

			return next(c)
		}
	}
}

func ProjectID(c echo.Context) uint64 {
	id, _ := c.Get(contextProjectID).(uint64)
	return id
}

// ProjectRole returns the caller's effective role set by RequireProjectRole.
func ProjectRole(c echo.Context) entity.Role {
	role, _ := c.Get(contextProjectRole).(entity.Role)
	return role
}
