package deduplication

import (
	"net/url"
	"strings"
)

// trackingParams are dropped from links before comparison. Any parameter
// starting with "utm_" is dropped as well.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"dclid":   {},
	"msclkid": {},
	"yclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"igshid":  {},
	"ref":     {},
	"ref_src": {},
	"cmpid":   {},
	"ncid":    {},
	"_ga":     {},
	"spm":     {},
}

// IsTrackingParam reports whether a query key is stripped by NormalizeURL
func IsTrackingParam(key string) bool {
	lk := strings.ToLower(key)
	if strings.HasPrefix(lk, "utm_") {
		return true
	}
	_, ok := trackingParams[lk]
	return ok
}

// NormalizeURL returns the deduplication key for a link: lowercase scheme and
// host, no default port, no fragment, no tracking parameters, remaining
// parameters sorted, no trailing slash.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// fallback: lowercase and trim
		return strings.TrimRight(strings.ToLower(raw), "/")
	}

	// Lowercase scheme and host
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		if IsTrackingParam(k) {
			q.Del(k)
		}
	}
	// Encode sorts by key
	u.RawQuery = q.Encode()
	u.ForceQuery = false

	// trim the escaped form so %2F stays distinct from /
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	if p, err := url.PathUnescape(escaped); err == nil {
		u.Path = p
		u.RawPath = escaped
	}
	return u.String()
}
