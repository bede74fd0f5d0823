package workitem

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultPrefix is the short-code prefix used when none is configured.
const DefaultPrefix = "TASK"

// DefaultDomain is the workspace host matched in direct links.
const DefaultDomain = "notion.so"

// Identifiers holds the deduplicated, sorted references found in a text.
type Identifiers struct {
	ShortCodes  []string `json:"short_codes"`
	DirectLinks []string `json:"direct_links"`
}

// Empty reports whether nothing was found.
func (ids Identifiers) Empty() bool {
	return len(ids.ShortCodes) == 0 && len(ids.DirectLinks) == 0
}

// References flattens the identifiers, direct links first.
func (ids Identifiers) References() []Reference {
	refs := make([]Reference, 0, len(ids.ShortCodes)+len(ids.DirectLinks))
	for _, l := range ids.DirectLinks {
		refs = append(refs, Reference{Kind: KindDirectLink, Value: l})
	}
	for _, c := range ids.ShortCodes {
		refs = append(refs, Reference{Kind: KindShortCode, Value: c})
	}
	return refs
}

// Extractor finds short codes and workspace links in free text.
type Extractor struct {
	shortCode  *regexp.Regexp
	directLink *regexp.Regexp
}

// NewExtractor compiles the patterns for the given short-code prefix and
// workspace domain. Empty arguments fall back to the defaults.
func NewExtractor(prefix, domain string) *Extractor {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return &Extractor{
		shortCode:  regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(prefix) + `-\d+\b`),
		directLink: regexp.MustCompile(`https?://(?:[\w-]+\.)*` + regexp.QuoteMeta(domain) + `/[^\s)\]>]+`),
	}
}

// Extract scans title, body and branch for references.
func (e *Extractor) Extract(title, body, branch string) Identifiers {
	text := strings.Join([]string{title, body, branch}, "\n")

	codes := make(map[string]struct{})
	for _, m := range e.shortCode.FindAllString(text, -1) {
		codes[strings.ToUpper(m)] = struct{}{}
	}
	links := make(map[string]struct{})
	for _, m := range e.directLink.FindAllString(text, -1) {
		links[m] = struct{}{}
	}

	return Identifiers{
		ShortCodes:  sortedKeys(codes),
		DirectLinks: sortedKeys(links),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
