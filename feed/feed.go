// Package feed downloads compressed XMLTV feeds into the working folder.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"epg-combiner/gz"
	"epg-combiner/logger"
	"epg-combiner/workdir"
)

// Error describes why one source was skipped.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("feed %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("feed %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type Options struct {
	// Timeout of zero leaves requests bounded only by the transport.
	Timeout   time.Duration
	UserAgent string
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func New(opts Options) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
	}
}

func (f *Fetcher) fetchUrl(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "invalid request", Cause: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "request failed", Cause: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, &Error{URL: rawURL, Message: "unexpected status " + res.Status}
	}
	return res, nil
}

// Download fetches every URL into dir and decompresses it next to the download.
// Failed sources are logged and skipped; the returned paths keep source order.
func (f *Fetcher) Download(ctx context.Context, urls []string, dir string) ([]string, error) {
	if err := workdir.Ensure(dir); err != nil {
		return nil, err
	}

	var files []string
	used := map[string]bool{}
	for _, u := range urls {
		gzName, _, err := FileNames(u)
		if err != nil {
			logger.L().Warn("feed.skipped", "url", u, "err", &Error{URL: u, Message: "invalid URL", Cause: err})
			continue
		}
		gzName, xmlName := claimNames(gzName, used)

		xmlFile, err := f.downloadOne(ctx, u, filepath.Join(dir, gzName), filepath.Join(dir, xmlName))
		if err != nil {
			logger.L().Warn("feed.skipped", "url", u, "err", err)
			continue
		}
		files = append(files, xmlFile)
	}
	return files, nil
}

func (f *Fetcher) downloadOne(ctx context.Context, rawURL, gzFile, xmlFile string) (string, error) {
	res, err := f.fetchUrl(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	out, err := os.Create(gzFile)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, res.Body); err != nil {
		out.Close()
		return "", &Error{URL: rawURL, Message: "read body", Cause: err}
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	logger.L().Info("feed.downloaded", "url", rawURL, "path", gzFile)

	if err := gz.Decompress(gzFile, xmlFile); err != nil {
		return "", &Error{URL: rawURL, Message: "decompress", Cause: err}
	}
	return xmlFile, nil
}

// FileNames derives the downloaded and decompressed file names from a feed URL.
func FileNames(rawURL string) (gzName, xmlName string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}

	gzName = path.Base(u.Path)
	if gzName == "." || gzName == "/" {
		if u.Host == "" {
			return "", "", fmt.Errorf("no file name in %q", rawURL)
		}
		gzName = u.Hostname() + ".xml" + gz.Ext
	}

	return gzName, xmlNameFor(gzName), nil
}

func xmlNameFor(gzName string) string {
	xmlName := strings.TrimSuffix(gzName, gz.Ext)
	if xmlName == gzName {
		xmlName += ".xml"
	}
	return xmlName
}

// claimNames reserves a download/decompressed name pair in used. Feeds from
// different hosts often share a file name, so later ones get _N before the first dot.
func claimNames(gzName string, used map[string]bool) (string, string) {
	stem, ext := gzName, ""
	if i := strings.Index(gzName, "."); i >= 0 {
		stem, ext = gzName[:i], gzName[i:]
	}

	candidate := gzName
	for n := 1; ; n++ {
		xmlName := xmlNameFor(candidate)
		if !used[candidate] && !used[xmlName] {
			used[candidate] = true
			used[xmlName] = true
			return candidate, xmlName
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}
