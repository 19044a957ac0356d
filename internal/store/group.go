package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/todolist/apiserver/types"
)

// GroupRepository handles persistence for groups.
type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM groups`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name
		FROM groups
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := make([]types.Group, 0, limit)
	for rows.Next() {
		var group types.Group
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, 0, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

func (r *GroupRepository) Get(ctx context.Context, id int) (types.Group, error) {
	const query = `SELECT id, name FROM groups WHERE id = $1`
	var group types.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Group{}, ErrNotFound
		}
		return types.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) Create(ctx context.Context, group types.Group) (types.Group, error) {
	const query = `INSERT INTO groups (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, group.Name).Scan(&group.ID); err != nil {
		return types.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) Update(ctx context.Context, group types.Group) (types.Group, error) {
	const query = `UPDATE groups SET name = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, group.Name, group.ID)
	if err != nil {
		return types.Group{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Group{}, err
	}
	if affected == 0 {
		return types.Group{}, ErrNotFound
	}
	return group, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM groups WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
