package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeURL forces https and a lowercase host. Unparsable input yields "".
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if after, ok := strings.CutPrefix(s, "http://"); ok {
		s = after
	} else {
		s = strings.TrimPrefix(s, "https://")
	}

	u, err := url.Parse("https://" + s)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}
