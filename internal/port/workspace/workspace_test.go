package workspace

import "testing"

func TestBlockContains(t *testing.T) {
	const build = "https://expo.dev/accounts/acme/builds/123"

	tests := []struct {
		name  string
		block Block
		want  bool
	}{
		{"plain text", Block{Fragments: []Fragment{{PlainText: "Build finished: " + build}}}, true},
		{"link url only", Block{Fragments: []Fragment{{Content: "build", LinkURL: build}}}, true},
		{"href only", Block{Fragments: []Fragment{{Href: build + "?x=1"}}}, true},
		{"second fragment", Block{Fragments: []Fragment{{PlainText: "a"}, {Content: build}}}, true},
		{"different build", Block{Fragments: []Fragment{{PlainText: "https://expo.dev/accounts/acme/builds/124"}}}, false},
		{"no fragments", Block{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.Contains(build); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFragmentContainsEmptyNeedle(t *testing.T) {
	if (Fragment{PlainText: "anything"}).Contains("") {
		t.Fatal("empty needle must never match")
	}
}
