package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// CreateProject inserts a project. Owner, when set, is referenced by ID.
func (s *Store) CreateProject(ctx context.Context, p record.Project) (record.Project, error) {
	var ownerID int64
	if p.Owner != nil {
		ownerID = p.Owner.ID
	}

	res, err := s.db.ExecContext(ctx, queryInsertProject,
		p.Name, p.Status, p.PercentageCompleted,
		formatDate(p.StartDate), formatDate(p.EndDate), nullInt(ownerID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return record.Project{}, fmt.Errorf("%w: project %q already exists", domain.ErrInvalidInput, p.Name)
		}
		return record.Project{}, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return record.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject returns the project with id or domain.ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id int64) (record.Project, error) {
	row := s.db.QueryRowContext(ctx, querySelectProjects+` WHERE p.id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return record.Project{}, notFound(err, fmt.Sprintf("project %d", id))
	}
	return p, nil
}

// ProjectByName returns the project named name or domain.ErrNotFound.
func (s *Store) ProjectByName(ctx context.Context, name string) (record.Project, error) {
	row := s.db.QueryRowContext(ctx, querySelectProjects+` WHERE p.name = ?`, name)
	p, err := scanProject(row)
	if err != nil {
		return record.Project{}, notFound(err, fmt.Sprintf("project %q", name))
	}
	return p, nil
}

// ListProjects returns all projects in ID order with owners resolved.
func (s *Store) ListProjects(ctx context.Context) ([]record.Project, error) {
	rows, err := s.db.QueryContext(ctx, querySelectProjects+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []record.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func scanProject(sc scanner) (record.Project, error) {
	var (
		p          record.Project
		start, end sql.NullString
		ownerID    sql.NullInt64
		ownerName  sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Status, &p.PercentageCompleted,
		&start, &end, &ownerID, &ownerName); err != nil {
		return record.Project{}, err
	}

	var err error
	if p.StartDate, err = parseDate(start); err != nil {
		return record.Project{}, err
	}
	if p.EndDate, err = parseDate(end); err != nil {
		return record.Project{}, err
	}
	p.Owner = ref(ownerID, ownerName)
	return p, nil
}

func ref(id sql.NullInt64, name sql.NullString) *record.Ref {
	if !id.Valid {
		return nil
	}
	return &record.Ref{ID: id.Int64, Name: name.String}
}
