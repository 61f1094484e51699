package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ProjectMemberController serves routes that sit behind RequireAuth and
// RequireProjectRole.
type ProjectMemberController struct {
	accessService service.ProjectAccessService
}

func NewProjectMemberController(accessService service.ProjectAccessService) *ProjectMemberController {
	return &ProjectMemberController{accessService: accessService}
}

// Access reports the caller's effective role, as resolved by the gate.
func (c *ProjectMemberController) Access(ctx echo.Context) error {
	userID, _ := middleware.UserID(ctx)
	return ctx.JSON(http.StatusOK, &types.ProjectAccessResponse{
		ProjectID: middleware.ProjectID(ctx),
		UserID:    userID,
		Role:      middleware.ProjectRole(ctx),
	})
}

func (c *ProjectMemberController) List(ctx echo.Context) error {
	projectID := middleware.ProjectID(ctx)
	members, err := c.accessService.ListMembers(ctx.Request().Context(), projectID)
	if err != nil {
		return writeServiceError(ctx, logrus.WithField("project_id", projectID), "List members", err)
	}
	return ctx.JSON(http.StatusOK, &types.ListMembersResponse{Members: members})
}

func (c *ProjectMemberController) Add(ctx echo.Context) error {
	req, err := types.NewAddMemberRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind add member request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("project_id", req.ProjectID).Debug("Add member validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithFields(logrus.Fields{"project_id": req.ProjectID, "email": req.Email})
	member, err := c.accessService.AddMember(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, log, "Add member", err)
	}

	log.WithFields(logrus.Fields{"user_id": member.UserID, "role": member.Role}).Info("Project member added")
	return ctx.JSON(http.StatusCreated, member)
}

func (c *ProjectMemberController) UpdateRole(ctx echo.Context) error {
	req, err := types.NewUpdateMemberRoleRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update member role request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("project_id", req.ProjectID).Debug("Update member role validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithFields(logrus.Fields{"project_id": req.ProjectID, "user_id": req.UserID})
	member, err := c.accessService.UpdateMemberRole(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, log, "Update member role", err)
	}

	log.WithField("role", member.Role).Info("Project member role updated")
	return ctx.JSON(http.StatusOK, member)
}

func (c *ProjectMemberController) Remove(ctx echo.Context) error {
	req, err := types.NewRemoveMemberRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Invalid remove member path")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithFields(logrus.Fields{"project_id": req.ProjectID, "user_id": req.UserID})
	if err = c.accessService.RemoveMember(ctx.Request().Context(), req); err != nil {
		return writeServiceError(ctx, log, "Remove member", err)
	}

	log.Info("Project member removed")
	return ctx.NoContent(http.StatusNoContent)
}
