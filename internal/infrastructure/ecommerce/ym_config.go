package ecommerce

import (
	"strings"
)

// YMBaseURL is the Yandex Market Partner API host
const YMBaseURL = "https://api.partner.market.yandex.ru"

// YMConfig holds Yandex Market credentials
type YMConfig struct {
	Token      string
	CampaignID string
	BaseURL    string
}

// IsConfigured reports whether the token and campaign id are present
func (c YMConfig) IsConfigured() bool {
	return len(c.missing()) == 0
}

func (c YMConfig) missing() []string {
	var names []string
	if strings.TrimSpace(c.Token) == "" {
		names = append(names, "token")
	}
	if strings.TrimSpace(c.CampaignID) == "" {
		names = append(names, "campaign_id")
	}
	return names
}

func (c YMConfig) withDefaults() YMConfig {
	if c.BaseURL == "" {
		c.BaseURL = YMBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.CampaignID = strings.TrimSpace(c.CampaignID)
	return c
}
