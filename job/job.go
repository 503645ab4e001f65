// Package job runs one combine-and-publish pass from start to finish.
package job

import (
	"context"
	"path/filepath"

	"epg-combiner/archive"
	"epg-combiner/config"
	"epg-combiner/consts"
	"epg-combiner/epg"
	"epg-combiner/feed"
	"epg-combiner/gz"
	"epg-combiner/logger"
	"epg-combiner/publish"
	"epg-combiner/workdir"
)

// Options overrides where the job reads and writes. Zero values use the fixed names in consts,
// relative to Root (the process working directory when empty).
type Options struct {
	Root       string
	Repository publish.Repository
}

type Result struct {
	Inputs   []string
	Archived string
	Combined string
	Gzipped  string
	Publish  *publish.Report
}

func (o Options) path(name string) string {
	if o.Root == "" {
		return name
	}
	return filepath.Join(o.Root, name)
}

// Run downloads, archives, combines, compresses, publishes and cleans up.
// Only a failure to prepare or combine the guide is returned; publish problems are reported in Result.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	var res Result
	tempFolder := opts.path(consts.TEMP_FOLDER)
	combinedXML := opts.path(consts.COMBINED_XML_FILE)

	fetcher := feed.New(feed.Options{Timeout: cfg.HTTP.Timeout, UserAgent: cfg.HTTP.UserAgent})
	urls := cfg.SourceURLs()
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		seen[u] = true
	}
	for _, index := range cfg.Indexes {
		links, err := fetcher.Discover(ctx, index.URL, index.Selector)
		if err != nil {
			logger.L().Warn("job.index_skipped", "index", index.URL, "err", err)
			continue
		}
		for _, link := range links {
			if seen[link] {
				logger.L().Debug("job.duplicate_source", "url", link, "index", index.URL)
				continue
			}
			seen[link] = true
			urls = append(urls, link)
		}
	}

	inputs, err := fetcher.Download(ctx, urls, tempFolder)
	if err != nil {
		return res, err
	}
	res.Inputs = inputs

	res.Archived, err = archive.Archive(combinedXML, opts.path(consts.ARCHIVE_FOLDER))
	if err != nil {
		return res, err
	}

	res.Combined, err = epg.Combine(inputs, combinedXML)
	if err != nil {
		return res, err
	}
	if res.Combined == "" {
		return res, nil
	}

	res.Gzipped, err = gz.Compress(res.Combined)
	if err != nil {
		return res, err
	}

	repo := opts.Repository
	if repo == nil {
		repo, err = publish.NewGitHub(publish.GitHubOptions{
			Token:   cfg.GitHub.Token,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.RepoName,
			Branch:  cfg.GitHub.Branch,
			BaseURL: cfg.GitHub.APIURL,
		})
		if err != nil {
			return res, err
		}
	}
	report := publish.New(repo).Publish(ctx, []string{res.Gzipped, res.Combined})
	res.Publish = &report

	if err := workdir.Clean(tempFolder); err != nil {
		logger.L().Warn("job.cleanup_failed", "dir", tempFolder, "err", err)
	}
	return res, nil
}
