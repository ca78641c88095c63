package scrape

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// ExtractImageURL returns the page's social-preview image, preferring
// OpenGraph over Twitter cards.
func ExtractImageURL(n *html.Node) string {
	if url := metaContent(n, "//meta[@property = 'og:image']"); url != "" {
		return url
	}
	if url := metaContent(n, "//meta[@name = 'twitter:image']"); url != "" {
		return url
	}
	return ""
}

// ExtractOpenGraphTitle returns the og:title meta content, if present.
func ExtractOpenGraphTitle(n *html.Node) string {
	return metaContent(n, "//meta[@property = 'og:title']")
}

func metaContent(n *html.Node, xpath string) string {
	elem := htmlquery.FindOne(n, xpath)
	if elem != nil {
		for _, attr := range elem.Attr {
			if attr.Key == "content" {
				return strings.TrimSpace(attr.Val)
			}
		}
	}
	return ""
}

// SelectText returns the compacted text content of the first xpath match.
func SelectText(n *html.Node, xpath string) string {
	node := htmlquery.FindOne(n, xpath)
	if node == nil {
		return ""
	}
	buf := new(bytes.Buffer)
	dig(node, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}
