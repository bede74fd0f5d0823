// Package workitem defines work-item references found in free text and the
// workspace records they resolve to.
package workitem

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ReferenceKind classifies how a work item was mentioned.
type ReferenceKind string

const (
	KindShortCode  ReferenceKind = "short_code"
	KindDirectLink ReferenceKind = "direct_link"
)

// Reference is a single textual mention of a work item.
type Reference struct {
	Kind  ReferenceKind `json:"kind"`
	Value string        `json:"value"`
}

// CanonicalID is a workspace record id in lower-case 8-4-4-4-12 form.
type CanonicalID string

// Compact returns the id without hyphens, as used in workspace page URLs.
func (id CanonicalID) Compact() string {
	return strings.ReplaceAll(string(id), "-", "")
}

// recordIDPattern matches the last 32 hex characters, or the same run already
// hyphenated, before '?', '#', '/' or end of input. Slugs may end in hex
// letters with no separator.
var recordIDPattern = regexp.MustCompile(
	`([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|[0-9a-fA-F]{32})(?:[?#/]|$)`,
)

// ParseCanonicalID normalizes a raw 32-hex id (hyphenated or not).
func ParseCanonicalID(raw string) (CanonicalID, bool) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return CanonicalID(u.String()), true
}

// IDFromLink extracts the canonical record id embedded in a workspace URL.
// It returns false when the link carries no 32-hex run.
func IDFromLink(link string) (CanonicalID, bool) {
	m := recordIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return ParseCanonicalID(m[1])
}

// Record is a resolved workspace record.
type Record struct {
	ID         CanonicalID `json:"id"`
	DisplayURL string      `json:"url"`
	// Sources lists every reference text that resolved to this record.
	Sources []string `json:"sources,omitempty"`
	direct  bool
}

// Label returns a short human label: the first short code that resolved to
// the record, falling back to the record id.
func (r Record) Label() string {
	for _, s := range r.Sources {
		if !strings.Contains(s, "://") {
			return s
		}
	}
	return string(r.ID)
}

// Resolution is the outcome of resolving one Reference.
type Resolution struct {
	Reference Reference
	Record    *Record
}

// NewDirectRecord builds a record from a link whose id was decoded locally.
func NewDirectRecord(id CanonicalID, link string) *Record {
	return &Record{ID: id, DisplayURL: link, Sources: []string{link}, direct: true}
}

// NewSearchedRecord builds a record found through a workspace search.
func NewSearchedRecord(id CanonicalID, displayURL, code string) *Record {
	return &Record{ID: id, DisplayURL: displayURL, Sources: []string{code}}
}

// Merge collapses resolutions onto one Record per canonical id, keeping the
// order in which ids were first seen. Direct-link URLs take precedence over
// synthesized ones. Unresolved references are dropped.
func Merge(resolutions []Resolution) []Record {
	index := make(map[CanonicalID]int)
	var out []Record
	for _, res := range resolutions {
		if res.Record == nil {
			continue
		}
		rec := *res.Record
		i, seen := index[rec.ID]
		if !seen {
			index[rec.ID] = len(out)
			rec.Sources = append([]string(nil), rec.Sources...)
			out = append(out, rec)
			continue
		}
		existing := &out[i]
		if rec.direct && !existing.direct {
			existing.DisplayURL = rec.DisplayURL
			existing.direct = true
		}
		for _, s := range rec.Sources {
			if !contains(existing.Sources, s) {
				existing.Sources = append(existing.Sources, s)
			}
		}
	}
	if out == nil {
		out = []Record{}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LinkResult is the per-record outcome reported back to the caller.
type LinkResult struct {
	Record    Record `json:"record"`
	Annotated bool   `json:"annotated"`
	Notified  bool   `json:"notified"`
	Warning   string `json:"warning,omitempty"`
}
