package extractor

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentExtractor = (*Extractor)(nil)

// Extractor turns raw page HTML into a clean title and Markdown body.
// The pipeline is readability → anchor sanitation → Markdown, and is
// deterministic for identical HTML and host inputs. The content hash
// depends on that.
type Extractor struct {
	converter *md.Converter
}

// New creates a content extractor.
func New() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Extractor{converter: converter}
}

// Extract isolates the readable article from rawHTML, sanitizes its
// anchors against host (the page origin, e.g. "https://example.com") and
// converts the result to Markdown. The title prefers the page's <title>
// tag over the readability-derived one. Returns
// domain.ErrNoReadableContent when the readability pass finds nothing.
func (e *Extractor) Extract(rawHTML, host string) (*domain.ExtractedPage, error) {
	pageURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse host %q: %w", host, err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoReadableContent, err)
	}

	if strings.TrimSpace(article.TextContent) == "" {
		return nil, domain.ErrNoReadableContent
	}

	cleaned, err := sanitizeHTML(article.Content, host)
	if err != nil {
		return nil, fmt.Errorf("sanitize content: %w", err)
	}

	content, err := e.converter.ConvertString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	title := pageTitle(rawHTML)
	if title == "" {
		title = article.Title
	}

	return &domain.ExtractedPage{
		Title:   title,
		Content: strings.TrimSpace(content),
	}, nil
}

// sanitizeHTML rewrites every anchor so links surfacing later in chat
// citations open safely: target=_blank, rel=noopener noreferrer, and
// relative hrefs qualified against the page origin.
func sanitizeHTML(content, host string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		link.SetAttr("target", "_blank")
		link.SetAttr("rel", "noopener noreferrer")

		if href, ok := link.Attr("href"); ok && strings.HasPrefix(href, "/") {
			link.SetAttr("href", host+href)
		}
	})

	return doc.Find("body").Html()
}

// pageTitle returns the trimmed <title> text of the raw page, or "".
func pageTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
