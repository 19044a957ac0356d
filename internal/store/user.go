package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/todolist/apiserver/types"
)

// UserRepository handles persistence for users and their group memberships.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, username, email, first_name, last_name, password_hash, active, date_joined, updated_at
		FROM users
		ORDER BY date_joined DESC, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.PasswordHash,
			&user.Active,
			&user.DateJoined,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachGroupIDs(ctx, users); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, username, email, first_name, last_name, password_hash, active, date_joined, updated_at
		FROM users
		WHERE id = $1`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.User{}, err
	}

	users := []types.User{user}
	if err := r.attachGroupIDs(ctx, users); err != nil {
		return types.User{}, err
	}
	return users[0], nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, username, email, first_name, last_name, password_hash, active, date_joined, updated_at
		FROM users
		WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.DateJoined = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO users (username, email, first_name, last_name, password_hash, active, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Active,
		user.DateJoined,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}

	if err := replaceMemberships(ctx, tx, user.ID, user.GroupIDs); err != nil {
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			first_name = $3,
			last_name = $4,
			password_hash = $5,
			active = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := tx.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Active,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}

	if err := replaceMemberships(ctx, tx, user.ID, user.GroupIDs); err != nil {
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
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

func (r *UserRepository) scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Active,
		&user.DateJoined,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// attachGroupIDs fills GroupIDs for the given users with a single query.
func (r *UserRepository) attachGroupIDs(ctx context.Context, users []types.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(users))
	for _, user := range users {
		ids = append(ids, int64(user.ID))
	}

	const query = `
		SELECT user_id, group_id
		FROM user_groups
		WHERE user_id = ANY($1)
		ORDER BY group_id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	byUser := make(map[int][]int, len(users))
	for rows.Next() {
		var userID, groupID int
		if err := rows.Scan(&userID, &groupID); err != nil {
			return err
		}
		byUser[userID] = append(byUser[userID], groupID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range users {
		users[i].GroupIDs = byUser[users[i].ID]
	}
	return nil
}

func replaceMemberships(ctx context.Context, tx *sql.Tx, userID int, groupIDs []int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, groupID := range groupIDs {
		if _, err := tx.ExecContext(ctx, insertQuery, userID, groupID); err != nil {
			return err
		}
	}
	return nil
}
