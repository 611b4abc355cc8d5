// Package waiver derives where a waiver was accepted from.
package waiver

import (
	"context"
	"strings"

	"github.com/mssola/useragent"

	"marathon/internal/registration/models"
	"marathon/pkg/requestcontext"
)

const (
	unknownDevice = "Unknown Device"
	unknownOS     = "Unknown OS"
	maxDeviceLen  = 200
)

// OriginFromContext reads client IP and user agent placed on the request
// context by the client metadata middleware.
func OriginFromContext(ctx context.Context) models.WaiverOrigin {
	return models.WaiverOrigin{
		IP:     requestcontext.ClientIP(ctx),
		Device: ParseUserAgent(requestcontext.UserAgent(ctx)),
	}
}

// ParseUserAgent renders a short "Browser version on OS" summary.
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	os := strings.TrimSpace(ua.OS())
	if os == "" {
		os = strings.TrimSpace(ua.Platform())
	}
	if os == "" {
		os = unknownOS
	}

	browser := strings.TrimSpace(strings.Join([]string{name, version}, " "))
	if browser == "" {
		browser = "Unknown Browser"
	}
	summary := browser + " on " + os
	if ua.Mobile() {
		summary += " (mobile)"
	}
	if len(summary) > maxDeviceLen {
		summary = strings.TrimSpace(summary[:maxDeviceLen])
	}
	return summary
}
