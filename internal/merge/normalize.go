package merge

import "strings"

// NormalizeName lowercases and collapses whitespace in a company name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeDomain reduces a website URL to its bare domain: lowercase, no
// scheme, no leading www, no path or port.
func NormalizeDomain(website string) string {
	s := strings.ToLower(strings.TrimSpace(website))
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return s
}

// IdentityKey derives the deduplication key for an investor record from its
// normalized name and website domain.
func IdentityKey(name, website string) string {
	return NormalizeName(name) + "|" + NormalizeDomain(website)
}
