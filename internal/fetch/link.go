package fetch

import (
	"net/http"
	"regexp"
)

var (
	linkRegex    = regexp.MustCompile(`<([^>]*)>([^<]*)`)
	relNextRegex = regexp.MustCompile(`(?i)rel\s*=\s*"?([^";,]*\s)?next(\s[^";,]*)?"?`)
)

// NextLink returns the rel="next" target of an RFC 8288 Link header, or "".
// Both GitHub and GitLab announce further pages this way.
func NextLink(h http.Header) string {
	for _, value := range h.Values("Link") {
		for _, m := range linkRegex.FindAllStringSubmatch(value, -1) {
			if relNextRegex.MatchString(m[2]) {
				return m[1]
			}
		}
	}
	return ""
}
