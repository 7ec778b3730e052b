package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

var (
	_ portproject.Store  = (*Repository)(nil)
	_ portproject.Pinger = (*Repository)(nil)
)

const uniqueViolation = "23505"

const columns = `project_id, name, description, location, client_name, status, budget,
	start_date, end_date, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]domainproject.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM projects ORDER BY created_at, project_id`)
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

func (r *Repository) GetByID(ctx context.Context, id string) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM projects WHERE project_id = $1`, id)

	p, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", id, domainproject.ErrNotFound)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *Repository) Insert(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO projects (`+columns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+columns,
		p.ProjectID, p.Name, p.Description, p.Location, p.ClientName, string(p.Status), p.Budget,
		p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
	)

	out, err := scan(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ProjectID, domainproject.ErrAlreadyExists)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE projects
		 SET name = $2, description = $3, location = $4, client_name = $5, status = $6,
		     budget = $7, start_date = $8, end_date = $9, updated_at = $10
		 WHERE project_id = $1
		 RETURNING `+columns,
		p.ProjectID, p.Name, p.Description, p.Location, p.ClientName, string(p.Status),
		p.Budget, p.StartDate, p.EndDate, p.UpdatedAt,
	)

	out, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", p.ProjectID, domainproject.ErrNotFound)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE project_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scan(row pgx.Row) (domainproject.Project, error) {
	var p domainproject.Project
	var status string
	err := row.Scan(
		&p.ProjectID, &p.Name, &p.Description, &p.Location, &p.ClientName, &status, &p.Budget,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Status = domainproject.Status(status)
	return p, err
}
