package feed

import (
	"context"
	"net/url"
	"strings"

	"epg-combiner/logger"

	"github.com/PuerkitoBio/goquery"
)

// Discover lists the feed links of an HTML index page matching selector,
// resolved against the page URL, in document order and without repeats.
func (f *Fetcher) Discover(ctx context.Context, pageURL, selector string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "invalid URL", Cause: err}
	}

	res, err := f.fetchUrl(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "parse index", Cause: err}
	}

	seen := map[string]bool{}
	var links []string
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			logger.L().Debug("feed.bad_link", "index", pageURL, "href", href)
			return
		}
		link := base.ResolveReference(ref).String()
		if seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	logger.L().Info("feed.discovered", "index", pageURL, "links", len(links))
	return links, nil
}
