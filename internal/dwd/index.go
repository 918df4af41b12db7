package dwd

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// parseIndexListing extracts the file names linked from a DWD directory
// index page, filtered by prefix and suffix.
func parseIndexListing(page []byte, prefix, suffix string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing index page: %w", err)
	}

	var files []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := attr.Val
				if strings.HasPrefix(href, prefix) && strings.HasSuffix(href, suffix) {
					files = append(files, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return files, nil
}
