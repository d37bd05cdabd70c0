package marketplace

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Platform identifies a marketplace
// ---------------------------------------------------------------------------

// Platform identifies a marketplace
type Platform string

const (
	// PlatformWB is Wildberries
	PlatformWB Platform = "wb"
	// PlatformOzon is Ozon Seller
	PlatformOzon Platform = "ozon"
	// PlatformYM is Yandex Market
	PlatformYM Platform = "ym"
)

// AllPlatforms returns every supported platform in reporting order
func AllPlatforms() []Platform {
	return []Platform{PlatformWB, PlatformOzon, PlatformYM}
}

// IsValid returns true if the platform is supported
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWB, PlatformOzon, PlatformYM:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform parses a platform code case-insensitively
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// ParsePlatforms parses a list of platform codes. An empty list means all platforms.
// Duplicates are collapsed and the result keeps AllPlatforms order.
func ParsePlatforms(codes []string) ([]Platform, error) {
	if len(codes) == 0 {
		return AllPlatforms(), nil
	}
	wanted := make(map[Platform]bool, len(codes))
	for _, code := range codes {
		p, err := ParsePlatform(code)
		if err != nil {
			return nil, err
		}
		wanted[p] = true
	}
	result := make([]Platform, 0, len(wanted))
	for _, p := range AllPlatforms() {
		if wanted[p] {
			result = append(result, p)
		}
	}
	return result, nil
}
