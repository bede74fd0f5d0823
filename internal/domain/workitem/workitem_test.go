package workitem

import "testing"

const canonical = CanonicalID("01234567-89ab-cdef-0123-456789abcdef")

func TestIDFromLink(t *testing.T) {
	tests := []struct {
		link string
		want CanonicalID
		ok   bool
	}{
		{"https://www.notion.so/acme/Login-0123456789abcdef0123456789abcdef", canonical, true},
		{"https://www.notion.so/0123456789ABCDEF0123456789ABCDEF?pvs=4", canonical, true},
		{"https://notion.so/acme/0123456789abcdef0123456789abcdef#heading", canonical, true},
		{"https://notion.so/0123456789abcdef0123456789abcdef/child", canonical, true},
		{"https://notion.so/Title-01234567-89ab-cdef-0123-456789abcdef", canonical, true},
		{"https://notion.so/acme/Login", "", false},
		{"https://www.notion.so/acme/Cafe0123456789abcdef0123456789abcdef", canonical, true},
		{"https://notion.so/acme/Dead0123456789abcdef0123456789abcdef?pvs=4", canonical, true},
		{"https://notion.so/0123456789abcdef0123456789abcdefzz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, ok := IDFromLink(tt.link)
			if ok != tt.ok || got != tt.want {
				t.Errorf("IDFromLink() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCanonicalIDCompact(t *testing.T) {
	if got := canonical.Compact(); got != "0123456789abcdef0123456789abcdef" {
		t.Errorf("Compact() = %q", got)
	}
}

func TestParseCanonicalID(t *testing.T) {
	if _, ok := ParseCanonicalID("not-an-id"); ok {
		t.Error("expected invalid id to be rejected")
	}
	id, ok := ParseCanonicalID("0123456789ABCDEF0123456789ABCDEF")
	if !ok || id != canonical {
		t.Errorf("ParseCanonicalID() = (%q, %v)", id, ok)
	}
}

func TestMergeSameIDViaLinkAndSearch(t *testing.T) {
	link := "https://www.notion.so/acme/Login-0123456789abcdef0123456789abcdef"
	searched := "https://www.notion.so/0123456789abcdef0123456789abcdef"

	records := Merge([]Resolution{
		{Reference: Reference{Kind: KindShortCode, Value: "TASK-3374"}, Record: NewSearchedRecord(canonical, searched, "TASK-3374")},
		{Reference: Reference{Kind: KindDirectLink, Value: link}, Record: NewDirectRecord(canonical, link)},
		{Reference: Reference{Kind: KindShortCode, Value: "TASK-9"}, Record: nil},
	})

	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d: %+v", len(records), records)
	}
	if records[0].DisplayURL != link {
		t.Errorf("expected direct link to win, got %q", records[0].DisplayURL)
	}
	if len(records[0].Sources) != 2 {
		t.Errorf("expected both sources, got %v", records[0].Sources)
	}
	if records[0].Label() != "TASK-3374" {
		t.Errorf("expected short code label, got %q", records[0].Label())
	}
}

func TestMergeManyReferencesSameID(t *testing.T) {
	var res []Resolution
	for _, code := range []string{"TASK-1", "TASK-2", "TASK-3"} {
		res = append(res, Resolution{Record: NewSearchedRecord(canonical, "https://www.notion.so/x", code)})
	}
	res = append(res, Resolution{Record: NewDirectRecord(canonical, "https://notion.so/a-0123456789abcdef0123456789abcdef")})

	if got := Merge(res); len(got) != 1 {
		t.Fatalf("expected one merged record, got %d", len(got))
	}
}

func TestMergeKeepsFirstSeenOrder(t *testing.T) {
	other := CanonicalID("fedcba98-7654-3210-0123-456789abcdef")

	records := Merge([]Resolution{
		{Record: NewSearchedRecord(other, "https://www.notion.so/b", "TASK-2")},
		{Record: NewSearchedRecord(canonical, "https://www.notion.so/a", "TASK-1")},
		{Record: NewSearchedRecord(other, "https://www.notion.so/b", "TASK-2")},
	})

	if len(records) != 2 || records[0].ID != other || records[1].ID != canonical {
		t.Fatalf("unexpected merge order: %+v", records)
	}
}

func TestMergeEmpty(t *testing.T) {
	records := Merge(nil)
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}

func TestLabelFallsBackToID(t *testing.T) {
	r := NewDirectRecord(canonical, "https://notion.so/0123456789abcdef0123456789abcdef")
	if r.Label() != string(canonical) {
		t.Errorf("Label() = %q", r.Label())
	}
}
