package entity

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProjectAdmin Role = "project_admin"
	RoleMember       Role = "member"
)

var AvailableRoles = []Role{RoleAdmin, RoleProjectAdmin, RoleMember}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range AvailableRoles {
		if role == candidate {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type ProjectMember struct {
	ID        uint64    `db:"id" json:"id"`
	ProjectID uint64    `db:"project_id" json:"project_id"`
	UserID    uint64    `db:"user_id" json:"user_id"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
