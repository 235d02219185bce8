package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches bearer tokens in error messages and headers.
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._\-/]+`)

	// Matches OAuth token material in form bodies and error strings:
	// refresh_token=..., access_token=..., code=..., client_secret=...
	tokenPattern = regexp.MustCompile(`(?i)(refresh_token|access_token|client_secret|code)=[^;&\s"]+`)

	// Matches API keys: api_key=xxxx, apikey=xxxx.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[A-Za-z0-9-_]{10,}`)

	// Matches user:pass@host credentials embedded in URLs.
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeURL removes credential material from a URL before logging.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	sanitized := connStringPattern.ReplaceAllString(raw, "://"+RedactedText+"@"+RedactedText)
	sanitized = tokenPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// SanitizeError scrubs token and credential material from an error message.
// Every error from the vault, the token endpoint or the archive API goes
// through this before reaching a log line.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = tokenPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
