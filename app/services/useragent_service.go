// Package services provides external service integrations for the application
package services

import (
	"strings"

	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
)

// UserAgentService is a keyword-heuristic user agent parser. It is
// intentionally small; unrecognized agents fall back to "desktop" so a broken
// or missing header never blocks rule matching or analytics.
type UserAgentService struct{}

// NewUserAgentService creates a new user agent parser
func NewUserAgentService() businessflow.UserAgentParser {
	return &UserAgentService{}
}

// Parse extracts the device type, browser and operating system
func (s *UserAgentService) Parse(userAgent string) businessflow.DeviceInfo {
	ua := strings.ToLower(userAgent)
	return businessflow.DeviceInfo{
		DeviceType: detectDeviceType(ua),
		Browser:    detectBrowser(ua),
		OS:         detectOS(ua),
	}
}

func detectDeviceType(ua string) string {
	for _, keyword := range []string{"bot", "crawler", "spider", "scraper", "curl", "wget"} {
		if strings.Contains(ua, keyword) {
			return "bot"
		}
	}
	// Tablets before mobiles: Android tablet agents also say "android".
	for _, keyword := range []string{"tablet", "ipad"} {
		if strings.Contains(ua, keyword) {
			return "tablet"
		}
	}
	for _, keyword := range []string{"mobile", "android", "iphone", "ipod", "blackberry", "windows phone"} {
		if strings.Contains(ua, keyword) {
			return "mobile"
		}
	}
	return "desktop"
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge"):
		return "edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "opera"
	case strings.Contains(ua, "chrome"):
		return "chrome"
	case strings.Contains(ua, "firefox"):
		return "firefox"
	case strings.Contains(ua, "safari"):
		return "safari"
	default:
		return "unknown"
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows phone"):
		return "windows phone"
	case strings.Contains(ua, "windows"):
		return "windows"
	case strings.Contains(ua, "android"):
		return "android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"), strings.Contains(ua, "ios"):
		return "ios"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		return "macos"
	case strings.Contains(ua, "linux"):
		return "linux"
	default:
		return "unknown"
	}
}

// ClientIP picks the visitor address from proxy headers, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then the raw remote address.
func ClientIP(remoteAddr, xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		if ips := strings.Split(xForwardedFor, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xRealIP != "" {
		return xRealIP
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
