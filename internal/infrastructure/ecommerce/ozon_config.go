package ecommerce

import (
	"strings"
)

// OzonBaseURL is the Ozon Seller API host
const OzonBaseURL = "https://api-seller.ozon.ru"

// OzonConfig holds Ozon Seller API credentials
type OzonConfig struct {
	ClientID string
	APIKey   string
	// WarehouseID is attached to every stock line
	WarehouseID string
	BaseURL     string
}

// IsConfigured reports whether Client-Id and Api-Key are present
func (c OzonConfig) IsConfigured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.APIKey) != ""
}

func (c OzonConfig) missing() []string {
	var names []string
	if strings.TrimSpace(c.ClientID) == "" {
		names = append(names, "client_id")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		names = append(names, "api_key")
	}
	return names
}

func (c OzonConfig) withDefaults() OzonConfig {
	if c.BaseURL == "" {
		c.BaseURL = OzonBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}
