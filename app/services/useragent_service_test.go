package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgentParse(t *testing.T) {
	parser := &UserAgentService{}

	cases := []struct {
		name       string
		userAgent  string
		deviceType string
		browser    string
		os         string
	}{
		{
			name:       "AndroidChrome",
			userAgent:  "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			deviceType: "mobile",
			browser:    "chrome",
			os:         "android",
		},
		{
			name:       "IPhoneSafari",
			userAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: "mobile",
			browser:    "safari",
			os:         "ios",
		},
		{
			name:       "IPadIsTablet",
			userAgent:  "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: "tablet",
			browser:    "safari",
			os:         "ios",
		},
		{
			name:       "AndroidTabletIsTablet",
			userAgent:  "Mozilla/5.0 (Linux; Android 13; SM-X910 Tablet) AppleWebKit/537.36 Chrome/119.0 Safari/537.36",
			deviceType: "tablet",
			browser:    "chrome",
			os:         "android",
		},
		{
			name:       "WindowsFirefox",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			deviceType: "desktop",
			browser:    "firefox",
			os:         "windows",
		},
		{
			name:       "MacEdge",
			userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0",
			deviceType: "desktop",
			browser:    "edge",
			os:         "macos",
		},
		{
			name:       "LinuxOpera",
			userAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 OPR/106.0",
			deviceType: "desktop",
			browser:    "opera",
			os:         "linux",
		},
		{
			name:       "GooglebotIsBot",
			userAgent:  "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			deviceType: "bot",
			browser:    "unknown",
			os:         "unknown",
		},
		{
			name:       "CurlIsBot",
			userAgent:  "curl/8.4.0",
			deviceType: "bot",
			browser:    "unknown",
			os:         "unknown",
		},
		{
			name:       "EmptyAgentIsDesktop",
			userAgent:  "",
			deviceType: "desktop",
			browser:    "unknown",
			os:         "unknown",
		},
		{
			name:       "WindowsPhone",
			userAgent:  "Mozilla/5.0 (Windows Phone 10.0; Android 6.0.1) AppleWebKit/537.36 Edge/15.15254",
			deviceType: "mobile",
			browser:    "edge",
			os:         "windows phone",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := parser.Parse(tc.userAgent)
			assert.Equal(t, tc.deviceType, info.DeviceType)
			assert.Equal(t, tc.browser, info.Browser)
			assert.Equal(t, tc.os, info.OS)
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Run("ForwardedForWins", func(t *testing.T) {
		assert.Equal(t, "203.0.113.5", ClientIP("10.0.0.1:443", "203.0.113.5, 10.0.0.2", "10.0.0.3"))
	})

	t.Run("RealIPNext", func(t *testing.T) {
		assert.Equal(t, "10.0.0.3", ClientIP("10.0.0.1:443", "", "10.0.0.3"))
	})

	t.Run("RemoteAddrPortStripped", func(t *testing.T) {
		assert.Equal(t, "10.0.0.1", ClientIP("10.0.0.1:443", "", ""))
		assert.Equal(t, "10.0.0.1", ClientIP("10.0.0.1", "", ""))
	})
}
