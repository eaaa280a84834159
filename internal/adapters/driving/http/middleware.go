package http

import (
	"net/http"
	"strings"
)

// botMarkers are user-agent fragments of crawlers and scrapers. The chat
// endpoint serves humans in the widget only.
var botMarkers = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"curl/",
	"wget/",
	"python-requests",
	"go-http-client",
	"headlesschrome",
	"phantomjs",
}

// isBotAgent reports whether the user agent looks automated. An empty
// user agent is treated as a bot: every real browser sends one.
func isBotAgent(userAgent string) bool {
	if userAgent == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// RejectBots blocks requests from automated user agents with 403.
func RejectBots(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isBotAgent(r.UserAgent()) {
			writeError(w, http.StatusForbidden, "automated traffic is not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
