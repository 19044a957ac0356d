package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todolist/apiserver/types"
)

// TodoRepository handles persistence for todos. Every query that touches
// existing rows takes the owner id explicitly and scopes on it, so a row that
// belongs to another user is indistinguishable from a missing one.
type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Todo, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM todos WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, user_id, task, done, attachment_key, attachment_name, attachment_content_type, created_at, updated_at
		FROM todos
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, ownerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	todos := make([]types.Todo, 0, limit)
	for rows.Next() {
		var todo types.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.UserID,
			&todo.Task,
			&todo.Done,
			&todo.Attachment.ObjectKey,
			&todo.Attachment.Filename,
			&todo.Attachment.ContentType,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return todos, total, nil
}

func (r *TodoRepository) GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error) {
	const query = `
		SELECT id, user_id, task, done, attachment_key, attachment_name, attachment_content_type, created_at, updated_at
		FROM todos
		WHERE id = $1 AND user_id = $2`
	var todo types.Todo
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Task,
		&todo.Done,
		&todo.Attachment.ObjectKey,
		&todo.Attachment.Filename,
		&todo.Attachment.ContentType,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Todo{}, ErrNotFound
		}
		return types.Todo{}, err
	}
	return todo, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	const query = `
		INSERT INTO todos (user_id, task, done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		todo.UserID,
		todo.Task,
		todo.Done,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID); err != nil {
		return types.Todo{}, err
	}
	return todo, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo types.Todo) (types.Todo, error) {
	todo.UpdatedAt = time.Now()

	const query = `
		UPDATE todos
		SET task = $1,
			done = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		todo.Task,
		todo.Done,
		todo.UpdatedAt,
		todo.ID,
		todo.UserID,
	)
	if err != nil {
		return types.Todo{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Todo{}, err
	}
	if affected == 0 {
		return types.Todo{}, ErrNotFound
	}
	return todo, nil
}

func (r *TodoRepository) SetAttachment(ctx context.Context, ownerID, id int, attachment types.Attachment) error {
	const query = `
		UPDATE todos
		SET attachment_key = $1,
			attachment_name = $2,
			attachment_content_type = $3,
			updated_at = $4
		WHERE id = $5 AND user_id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		attachment.ObjectKey,
		attachment.Filename,
		attachment.ContentType,
		time.Now(),
		id,
		ownerID,
	)
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

func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM todos WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
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
