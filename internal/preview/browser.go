package preview

import "strings"

// Browser is the coarse identity derived from a User-Agent header.
type Browser string

const (
	BrowserSafari  Browser = "Safari"
	BrowserChrome  Browser = "Chrome"
	BrowserFirefox Browser = "Firefox"
	BrowserEdge    Browser = "Edge"
	BrowserUnknown Browser = "Unknown"
)

// Classify maps a User-Agent to a Browser. Checks run in order and the first
// match wins. Chromium based Edge carries a Chrome token and is reported as
// Chrome; only legacy Edge reaches the Edge branch.
func Classify(userAgent string) Browser {
	ua := strings.ToLower(userAgent)
	chromium := strings.Contains(ua, "chrome") || strings.Contains(ua, "chromium")

	switch {
	case strings.Contains(ua, "safari") && !chromium:
		return BrowserSafari
	case chromium:
		return BrowserChrome
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	default:
		return BrowserUnknown
	}
}

// RendersHEIF reports whether the browser displays heif images natively.
func (b Browser) RendersHEIF() bool {
	return b == BrowserSafari
}
