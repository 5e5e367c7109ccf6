package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT UNIQUE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_name ON users(name);

CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'active',
    percentage_completed REAL NOT NULL DEFAULT 0,
    start_date TEXT,
    end_date TEXT,
    owner_id INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);

CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open',
    percentage_completed REAL NOT NULL DEFAULT 0,
    start_date TEXT,
    end_date TEXT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    owner_id INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

const (
	queryInsertUser = `INSERT INTO users (name, email) VALUES (?, ?)`

	querySelectUsers = `SELECT id, name, email FROM users`

	queryInsertProject = `INSERT INTO projects
		(name, status, percentage_completed, start_date, end_date, owner_id)
		VALUES (?, ?, ?, ?, ?, ?)`

	querySelectProjects = `SELECT p.id, p.name, p.status, p.percentage_completed,
		p.start_date, p.end_date, u.id, u.name
		FROM projects p
		LEFT JOIN users u ON u.id = p.owner_id`

	queryInsertTask = `INSERT INTO tasks
		(name, status, percentage_completed, start_date, end_date, project_id, owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	querySelectTasks = `SELECT t.id, t.name, t.status, t.percentage_completed,
		t.start_date, t.end_date, p.id, p.name, u.id, u.name
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		LEFT JOIN users u ON u.id = t.owner_id`

	queryTopAssignee = `SELECT u.id, u.name, u.email, COUNT(t.id) AS task_count
		FROM users u
		JOIN tasks t ON t.owner_id = u.id
		GROUP BY u.id
		ORDER BY task_count DESC, u.id ASC
		LIMIT 1`
)
