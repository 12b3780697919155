// Package fetch is the retailer price-source boundary. The core treats an
// absent price as a normal outcome; no failure crosses this boundary as an
// error.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zeromicro/go-zero/core/logx"
)

// PriceSource is the collaborator contract: given a retailer reference,
// return the current unit price or report absence.
type PriceSource interface {
	FetchPrice(ctx context.Context, ref string) (float64, bool)
}

const (
	defaultBaseURL = "https://diaonline.supermercadosdia.com.ar"
	defaultTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Client fetches prices from a VTEX-style catalog API by product code.
type Client struct {
	http *resty.Client
}

// Option customises the client.
type Option func(*Client)

// WithBaseURL overrides the catalog API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.http.SetBaseURL(baseURL)
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// NewClient constructs a catalog API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(defaultTimeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json").
			SetHeader("Accept-Language", "es-AR,es;q=0.9,en;q=0.8"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type vtexProduct struct {
	Items []struct {
		Sellers []struct {
			CommertialOffer struct {
				Price *float64 `json:"Price"`
			} `json:"commertialOffer"`
		} `json:"sellers"`
	} `json:"items"`
}

// FetchPrice returns the current unit price for a retailer reference. A
// plain product code goes through the catalog API; a full product URL is
// scraped from the page markup instead. Any transport or shape problem
// degrades to absence.
func (c *Client) FetchPrice(ctx context.Context, ref string) (float64, bool) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return c.scrapePage(ctx, ref)
	}

	var products []vtexProduct
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fq", fmt.Sprintf("productId:%s", ref)).
		SetResult(&products).
		Get("/api/catalog_system/pub/products/search")
	if err != nil {
		logx.Errorf("fetch %s: %v", ref, err)
		return 0, false
	}
	if resp.IsError() {
		logx.Errorf("fetch %s: status %d", ref, resp.StatusCode())
		return 0, false
	}
	if len(products) == 0 || len(products[0].Items) == 0 || len(products[0].Items[0].Sellers) == 0 {
		logx.Infof("fetch %s: no offer in catalog response", ref)
		return 0, false
	}
	price := products[0].Items[0].Sellers[0].CommertialOffer.Price
	if price == nil {
		logx.Infof("fetch %s: offer without price", ref)
		return 0, false
	}
	return *price, true
}
