// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package links extracts document URLs from the listing page.
package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/memo-combiner/pkg/types"
)

// Extract scans the HTML in r for anchor elements whose href matches
// pattern and returns them as absolute URLs in document order. Relative
// references are resolved against base.
func Extract(r io.Reader, base *url.URL, pattern *regexp.Regexp) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	var urls []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !pattern.MatchString(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		if ref.IsAbs() {
			urls = append(urls, ref.String())
			return
		}
		urls = append(urls, base.ResolveReference(ref).String())
	})
	return urls, nil
}

// Fetch retrieves the configured listing page and extracts document URLs
// from it.
func Fetch(ctx context.Context, client *http.Client, cfg types.ScrapeConfig) ([]string, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", cfg.BaseURL, err)
	}
	pattern, err := regexp.Compile(cfg.LinkPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling link pattern %q: %w", cfg.LinkPattern, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ListingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, cfg.ListingURL)
	}

	return Extract(resp.Body, base, pattern)
}
