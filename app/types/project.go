package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"

	"github.com/labstack/echo/v4"
)

var (
	errInvalidProjectID = errors.New("projectId is invalid")
	errInvalidUserID    = errors.New("userId is invalid")
)

// ParseProjectID reads the :projectId path parameter.
func ParseProjectID(ctx echo.Context) (uint64, error) {
	return parseID(ctx.Param("projectId"), errInvalidProjectID)
}

func parseID(raw string, invalid error) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

type AddMemberRequest struct {
	ProjectID uint64 `json:"-"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Role      string `json:"role" validate:"required,oneof=admin project_admin member"`
}

func NewAddMemberRequestFromContext(ctx echo.Context) (*AddMemberRequest, error) {
	var body AddMemberRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	projectID, err := ParseProjectID(ctx)
	if err != nil {
		return nil, err
	}
	body.ProjectID = projectID
	body.Email = strings.TrimSpace(body.Email)
	body.Role = strings.ToLower(strings.TrimSpace(body.Role))
	return &body, nil
}

func (r *AddMemberRequest) Validate() error {
	return validateStruct(r)
}

type UpdateMemberRoleRequest struct {
	ProjectID uint64 `json:"-"`
	UserID    uint64 `json:"-"`
	Role      string `json:"role" validate:"required,oneof=admin project_admin member"`
}

func NewUpdateMemberRoleRequestFromContext(ctx echo.Context) (*UpdateMemberRoleRequest, error) {
	var body UpdateMemberRoleRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	ids, err := memberPathIDs(ctx)
	if err != nil {
		return nil, err
	}
	body.ProjectID, body.UserID = ids[0], ids[1]
	body.Role = strings.ToLower(strings.TrimSpace(body.Role))
	return &body, nil
}

func (r *UpdateMemberRoleRequest) Validate() error {
	return validateStruct(r)
}

type RemoveMemberRequest struct {
	ProjectID uint64
	UserID    uint64
}

func NewRemoveMemberRequestFromContext(ctx echo.Context) (*RemoveMemberRequest, error) {
	ids, err := memberPathIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &RemoveMemberRequest{ProjectID: ids[0], UserID: ids[1]}, nil
}

func memberPathIDs(ctx echo.Context) ([2]uint64, error) {
	projectID, err := ParseProjectID(ctx)
	if err != nil {
		return [2]uint64{}, err
	}
	userID, err := parseID(ctx.Param("userId"), errInvalidUserID)
	if err != nil {
		return [2]uint64{}, err
	}
	return [2]uint64{projectID, userID}, nil
}

type ProjectAccessResponse struct {
	ProjectID uint64      `json:"project_id"`
	UserID    uint64      `json:"user_id"`
	Role      entity.Role `json:"role"`
}

type ListMembersResponse struct {
	Members []*entity.ProjectMember `json:"members"`
}
