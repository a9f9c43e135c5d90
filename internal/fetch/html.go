package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelectors are the elements whose text never belongs in a scraped
// job description or company page.
const boilerplateSelectors = "script, style, noscript, nav, header, footer, meta, head, input, iframe"

// VisibleText parses HTML and returns the visible page text with boilerplate
// elements (script, style, nav, header, meta and friends) removed,
// concatenated with single spaces.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(boilerplateSelectors).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	return strings.Join(strings.Fields(body.Text()), " "), nil
}

// ExtractMainText parses HTML and returns the main body text, trying the
// given content selectors in order and falling back to the body element.
func ExtractMainText(html string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// CompanyPageSelectors returns selectors for company pages (about, values, culture).
func CompanyPageSelectors() []string {
	return []string{
		"main",
		"article",
		".about-content",
		".content",
		"#content",
	}
}

// cleanWhitespace drops blank lines and trims each remaining line.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
