package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

var (
	_ portproject.Store  = (*Store)(nil)
	_ portproject.Pinger = (*Store)(nil)
)

// Fixed-width UTC layout so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT project_id, name, description, location, client_name, status, budget,
	start_date, end_date, created_at, updated_at FROM projects`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]domainproject.Project, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at, project_id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []domainproject.Project{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domainproject.Project, error) {
	p, err := scan(s.db.QueryRowContext(ctx, selectColumns+` WHERE project_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", id, domainproject.ErrNotFound)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Store) Insert(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, name, description, location, client_name, status, budget,
			start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectID, p.Name, p.Description, p.Location, p.ClientName, string(p.Status), p.Budget,
		formatDate(p.StartDate), formatDate(p.EndDate), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ProjectID, domainproject.ErrAlreadyExists)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, description = ?, location = ?, client_name = ?, status = ?, budget = ?,
		     start_date = ?, end_date = ?, updated_at = ?
		 WHERE project_id = ?`,
		p.Name, p.Description, p.Location, p.ClientName, string(p.Status), p.Budget,
		formatDate(p.StartDate), formatDate(p.EndDate), formatTime(p.UpdatedAt), p.ProjectID,
	)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}
	if n == 0 {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", p.ProjectID, domainproject.ErrNotFound)
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domainproject.Project, error) {
	var (
		p                    domainproject.Project
		status               string
		start, end           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&p.ProjectID, &p.Name, &p.Description, &p.Location, &p.ClientName, &status, &p.Budget,
		&start, &end, &createdAt, &updatedAt,
	); err != nil {
		return domainproject.Project{}, err
	}
	p.Status = domainproject.Status(status)

	var err error
	if p.StartDate, err = parseDate(start); err != nil {
		return domainproject.Project{}, err
	}
	if p.EndDate, err = parseDate(end); err != nil {
		return domainproject.Project{}, err
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domainproject.Project{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return domainproject.Project{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	return &t, nil
}
