package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// CreateTask inserts a task. Project is required and referenced by ID;
// Owner is optional.
func (s *Store) CreateTask(ctx context.Context, t record.Task) (record.Task, error) {
	if t.Project == nil {
		return record.Task{}, fmt.Errorf("insert task: project is required")
	}
	var ownerID int64
	if t.Owner != nil {
		ownerID = t.Owner.ID
	}

	res, err := s.db.ExecContext(ctx, queryInsertTask,
		t.Name, t.Status, t.PercentageCompleted,
		formatDate(t.StartDate), formatDate(t.EndDate), t.Project.ID, nullInt(ownerID),
	)
	if err != nil {
		return record.Task{}, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return record.Task{}, fmt.Errorf("insert task: %w", err)
	}

	row := s.db.QueryRowContext(ctx, querySelectTasks+` WHERE t.id = ?`, id)
	created, err := scanTask(row)
	if err != nil {
		return record.Task{}, notFound(err, fmt.Sprintf("task %d", id))
	}
	return created, nil
}

// ListTasks returns all tasks in ID order with project and owner resolved.
func (s *Store) ListTasks(ctx context.Context) ([]record.Task, error) {
	return s.queryTasks(ctx, querySelectTasks+` ORDER BY t.id`)
}

// TasksByStatus returns the tasks with the given status in ID order.
func (s *Store) TasksByStatus(ctx context.Context, status string) ([]record.Task, error) {
	return s.queryTasks(ctx, querySelectTasks+` WHERE t.status = ? ORDER BY t.id`, status)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]record.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []record.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(sc scanner) (record.Task, error) {
	var (
		t                      record.Task
		start, end             sql.NullString
		projectID, ownerID     sql.NullInt64
		projectName, ownerName sql.NullString
	)
	if err := sc.Scan(&t.ID, &t.Name, &t.Status, &t.PercentageCompleted,
		&start, &end, &projectID, &projectName, &ownerID, &ownerName); err != nil {
		return record.Task{}, err
	}

	var err error
	if t.StartDate, err = parseDate(start); err != nil {
		return record.Task{}, err
	}
	if t.EndDate, err = parseDate(end); err != nil {
		return record.Task{}, err
	}
	t.Project = ref(projectID, projectName)
	t.Owner = ref(ownerID, ownerName)
	return t, nil
}
