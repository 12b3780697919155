package fetch

import (
	"bytes"
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/net/html"

	"canasta/internal/price"
)

// Class names that carry the displayed price on the supported storefronts.
// Tried in order; the first element whose text parses as a price wins.
var priceClasses = []string{
	"vtex-product-price-1-x-sellingPriceValue",
	"vtex-product-price-1-x-currencyContainer",
	"product-price",
	"price-value",
	"atg_store_productPrice",
	"price",
}

// scrapePage fetches a product page and extracts the displayed price from
// the first recognised price element. The raw text is localized
// ("$1.234,56"); normalization is delegated to the price parser.
func (c *Client) scrapePage(ctx context.Context, url string) (float64, bool) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(url)
	if err != nil {
		logx.Errorf("scrape %s: %v", url, err)
		return 0, false
	}
	if resp.IsError() {
		logx.Errorf("scrape %s: status %d", url, resp.StatusCode())
		return 0, false
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		logx.Errorf("scrape %s: parse: %v", url, err)
		return 0, false
	}
	for _, class := range priceClasses {
		for _, node := range nodesWithClass(doc, class) {
			if value, ok := price.Parse(nodeText(node)); ok {
				return value, true
			}
		}
	}
	logx.Infof("scrape %s: no price element found", url)
	return 0, false
}

func nodesWithClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
