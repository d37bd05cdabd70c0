package ecommerce

import (
	"strings"
)

// Default Wildberries API hosts
const (
	WBMarketplaceURL = "https://marketplace-api.wildberries.ru"
	WBSuppliersURL   = "https://suppliers-api.wildberries.ru"
	WBContentURL     = "https://content-api.wildberries.ru"
)

// WBConfig holds Wildberries API credentials and endpoints
type WBConfig struct {
	// Token is sent verbatim in the Authorization header
	Token string
	// WarehouseID pins stock pushes to one warehouse; when empty the
	// adapter asks its WarehouseResolver
	WarehouseID    string
	MarketplaceURL string
	SuppliersURL   string
	ContentURL     string
}

// IsConfigured reports whether the token is present
func (c WBConfig) IsConfigured() bool {
	return strings.TrimSpace(c.Token) != ""
}

func (c WBConfig) withDefaults() WBConfig {
	if c.MarketplaceURL == "" {
		c.MarketplaceURL = WBMarketplaceURL
	}
	if c.SuppliersURL == "" {
		c.SuppliersURL = WBSuppliersURL
	}
	if c.ContentURL == "" {
		c.ContentURL = WBContentURL
	}
	c.MarketplaceURL = strings.TrimRight(c.MarketplaceURL, "/")
	c.SuppliersURL = strings.TrimRight(c.SuppliersURL, "/")
	c.ContentURL = strings.TrimRight(c.ContentURL, "/")
	return c
}
