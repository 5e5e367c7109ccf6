package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// CreateUser inserts a user and returns it with its assigned ID.
func (s *Store) CreateUser(ctx context.Context, u record.User) (record.User, error) {
	res, err := s.db.ExecContext(ctx, queryInsertUser, u.Name, nullString(u.Email))
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.name") {
				return record.User{}, fmt.Errorf("%w: user name %q already taken", domain.ErrInvalidInput, u.Name)
			}
			return record.User{}, fmt.Errorf("%w: email %q already registered", domain.ErrInvalidInput, u.Email)
		}
		return record.User{}, fmt.Errorf("insert user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return record.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns the user with id or domain.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (record.User, error) {
	row := s.db.QueryRowContext(ctx, querySelectUsers+` WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return record.User{}, notFound(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

// ListUsers returns all users in ID order.
func (s *Store) ListUsers(ctx context.Context) ([]record.User, error) {
	rows, err := s.db.QueryContext(ctx, querySelectUsers+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []record.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// TopAssignee returns the user owning the most tasks and that count.
// Ties go to the lowest user ID. No owned tasks yields domain.ErrNotFound.
func (s *Store) TopAssignee(ctx context.Context) (record.User, int, error) {
	var (
		u     record.User
		email sql.NullString
		count int
	)
	err := s.db.QueryRowContext(ctx, queryTopAssignee).Scan(&u.ID, &u.Name, &email, &count)
	if err != nil {
		return record.User{}, 0, notFound(err, "top assignee")
	}
	u.Email = email.String
	return u, count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (record.User, error) {
	var (
		u     record.User
		email sql.NullString
	)
	if err := sc.Scan(&u.ID, &u.Name, &email); err != nil {
		return record.User{}, err
	}
	u.Email = email.String
	return u, nil
}
