package models

import (
	"fmt"
	"strings"
)

// Platform is the closed set of marketplaces this tracker understands.
type Platform string

const (
	PlatformJumia  Platform = "jumia"
	PlatformKonga  Platform = "konga"
	PlatformAmazon Platform = "amazon"
	PlatformEbay   Platform = "ebay"
	PlatformJiji   Platform = "jiji"
)

func SupportedPlatforms() []Platform {
	return []Platform{PlatformJumia, PlatformKonga, PlatformAmazon, PlatformEbay, PlatformJiji}
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedPlatforms() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform: %q", s)
}
