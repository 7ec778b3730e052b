// Package seed loads fixture projects from YAML into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

// File is the on-disk layout:
//
//	projects:
//	  - project_id: riverside
//	    name: Riverside Tower
//	    status: in_progress
//	    start_date: 2025-03-01T00:00:00Z
type File struct {
	Projects []domainproject.Project `yaml:"projects"`
}

type Result struct {
	Created int
	Updated int
	Skipped int
}

func Decode(r io.Reader) ([]domainproject.Project, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return f.Projects, nil
}

// LoadFile decodes path and applies it to store.
func LoadFile(ctx context.Context, path string, store portproject.Store) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	projects, err := Decode(f)
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, store, projects)
}

// Apply upserts projects. An entry whose project_id already exists is updated;
// anything else is inserted. Entries failing validation are skipped and logged.
func Apply(ctx context.Context, store portproject.Store, projects []domainproject.Project) (Result, error) {
	var res Result
	for i, p := range projects {
		p.Normalize()
		if err := p.Validate(); err != nil {
			slog.WarnContext(ctx, "seed entry skipped", "index", i, "project_id", p.ProjectID, "error", err)
			res.Skipped++
			continue
		}

		exists := false
		if p.ProjectID != "" {
			_, err := store.GetByID(ctx, p.ProjectID)
			switch {
			case err == nil:
				exists = true
			case !errors.Is(err, domainproject.ErrNotFound):
				return res, fmt.Errorf("seed entry %d: %w", i, err)
			}
		}

		if exists {
			if _, err := store.Update(ctx, p); err != nil {
				return res, fmt.Errorf("seed entry %d: %w", i, err)
			}
			res.Updated++
			continue
		}
		if _, err := store.Insert(ctx, p); err != nil {
			return res, fmt.Errorf("seed entry %d: %w", i, err)
		}
		res.Created++
	}

	slog.InfoContext(ctx, "seed applied", "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}
