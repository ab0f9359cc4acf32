package events

import "strings"

// Classification bucket names surfaced in the dashboard.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	ReferrerDirect   = "Direct"
	ReferrerGoogle   = "Google"
	ReferrerLinkedIn = "LinkedIn"
	ReferrerGitHub   = "GitHub"
	ReferrerOther    = "Other"

	UnknownBrowser = "Unknown"
	UnknownOS      = "Unknown"
	UnknownCountry = "unknown"

	// DirectReferrer is the stored referrer value when the browser sent none.
	DirectReferrer = "direct"
)

// ClassifyDevice buckets a user agent into Mobile/Tablet/Desktop.
// Mobile markers are checked before the tablet and desktop fallbacks, so a
// UA containing both "iPhone" and "Mac" classifies as Mobile.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return DeviceMobile
	}
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	return DeviceDesktop
}

// ClassifyBrowser extracts a browser name from a user agent string.
func ClassifyBrowser(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Edge"):
		return "Edge"
	case strings.Contains(userAgent, "Opera"):
		return "Opera"
	default:
		return UnknownBrowser
	}
}

// ClassifyOS extracts an operating system name from a user agent string.
func ClassifyOS(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return "Windows"
	case strings.Contains(userAgent, "Mac"):
		return "macOS"
	case strings.Contains(userAgent, "Linux"):
		return "Linux"
	case strings.Contains(userAgent, "Android"):
		return "Android"
	case strings.Contains(userAgent, "iOS"):
		return "iOS"
	default:
		return UnknownOS
	}
}

// ClassifyReferrer buckets a raw referrer string for the dashboard.
// Empty and "direct" referrers count as Direct traffic.
func ClassifyReferrer(referrer string) string {
	if referrer == "" || referrer == DirectReferrer {
		return ReferrerDirect
	}

	ref := strings.ToLower(referrer)
	switch {
	case strings.Contains(ref, "google"):
		return ReferrerGoogle
	case strings.Contains(ref, "linkedin"):
		return ReferrerLinkedIn
	case strings.Contains(ref, "github"):
		return ReferrerGitHub
	default:
		return ReferrerOther
	}
}
