// Package publish pushes the combined guide files to a remote repository,
// creating each file by name or updating it in place.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"epg-combiner/logger"
)

var (
	// ErrUnauthorized means the credential was rejected; nothing further can be published.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrConflict means the revision handle passed to Update is stale.
	ErrConflict = errors.New("revision conflict")
	// ErrNoRepository means the publish target does not exist; nothing can be published.
	ErrNoRepository = errors.New("repository not found")
)

// Entry is a file that already exists remotely.
type Entry struct {
	Name     string
	Revision string
}

// Lookup is the result of Get. Found is false when the remote has no such file.
type Lookup struct {
	Found bool
	Entry Entry
}

type Repository interface {
	Get(ctx context.Context, name string) (Lookup, error)
	Update(ctx context.Context, name, message string, content []byte, revision string) error
	Create(ctx context.Context, name, message string, content []byte) error
}

type Report struct {
	Created []string
	Updated []string
	Failed  []string
	// Aborted is set when the credential was rejected or the repository is missing.
	Aborted bool
}

type Publisher struct {
	repo Repository
}

func New(repo Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish uploads each file under its base name. A rejected credential or a
// missing repository stops the whole step; any other failure only skips that file.
func (p *Publisher) Publish(ctx context.Context, files []string) Report {
	var report Report
	for _, path := range files {
		name := filepath.Base(path)
		created, err := p.publishOne(ctx, path, name)
		switch {
		case errors.Is(err, ErrUnauthorized):
			logger.L().Error("publish.unauthorized", "msg", "invalid token, check its permissions", "err", err)
			report.Aborted = true
			return report
		case errors.Is(err, ErrNoRepository):
			logger.L().Error("publish.no_repository", "err", err)
			report.Aborted = true
			return report
		case err != nil:
			logger.L().Error("publish.failed", "file", name, "err", err)
			report.Failed = append(report.Failed, name)
		case created:
			logger.L().Info("publish.created", "file", name)
			report.Created = append(report.Created, name)
		default:
			logger.L().Info("publish.updated", "file", name)
			report.Updated = append(report.Updated, name)
		}
	}
	return report
}

func (p *Publisher) publishOne(ctx context.Context, path, name string) (created bool, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	lookup, err := p.repo.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", name, err)
	}

	if lookup.Found {
		if err := p.repo.Update(ctx, name, "Update "+name, content, lookup.Entry.Revision); err != nil {
			return false, fmt.Errorf("update %s: %w", name, err)
		}
		return false, nil
	}

	if err := p.repo.Create(ctx, name, "Add "+name, content); err != nil {
		return false, fmt.Errorf("create %s: %w", name, err)
	}
	return true, nil
}
