package crawl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks extracts all same-host links from HTML content, resolved
// against baseURL. URLs are deduplicated, fragments dropped, and trailing
// slashes trimmed so the visited set treats equivalent URLs as one.
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse base URL",
			Cause:   err,
		}
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	linkSet := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}

		absoluteURL := base.ResolveReference(linkURL)

		// Same-host test is exact host equality with the seed.
		if absoluteURL.Host != base.Host {
			return
		}

		absoluteURL.Fragment = ""
		urlString := strings.TrimSuffix(absoluteURL.String(), "/")

		if !linkSet[urlString] {
			linkSet[urlString] = true
			links = append(links, urlString)
		}
	})

	return links, nil
}
