package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"

	"github.com/vinovest/sqlx"
)

// ProjectMemberRepository stores (project, user, role) rows. The table has a
// unique key on (project_id, user_id).
type ProjectMemberRepository struct {
	db *sqlx.DB
}

func NewProjectMemberRepository(db *sqlx.DB) *ProjectMemberRepository {
	return &ProjectMemberRepository{db: db}
}

func (r *ProjectMemberRepository) FindOne(ctx context.Context, projectID, userID uint64) (*entity.ProjectMember, error) {
	query := `
		SELECT id, project_id, user_id, role, created_at, updated_at
		FROM project_members WHERE project_id = ? AND user_id = ?
	`
	var member entity.ProjectMember
	err := r.db.GetContext(ctx, &member, query, projectID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *ProjectMemberRepository) ListByProject(ctx context.Context, projectID uint64) ([]*entity.ProjectMember, error) {
	query := `
		SELECT id, project_id, user_id, role, created_at, updated_at
		FROM project_members WHERE project_id = ?
		ORDER BY id
	`
	members := make([]*entity.ProjectMember, 0)
	if err := r.db.SelectContext(ctx, &members, query, projectID); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *ProjectMemberRepository) Create(ctx context.Context, member *entity.ProjectMember) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		member.ProjectID,
		member.UserID,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	member.ID = uint64(id)
	return nil
}

func (r *ProjectMemberRepository) UpdateRole(ctx context.Context, projectID, userID uint64, role entity.Role, now time.Time) (bool, error) {
	query := `
		UPDATE project_members SET role = ?, updated_at = ?
		WHERE project_id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, role, now, projectID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ProjectMemberRepository) Delete(ctx context.Context, projectID, userID uint64) (bool, error) {
	query := `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
