package notifier_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/Strob0t/buildrelay/internal/port/notifier"
)

type testNotifier struct {
	url string
}

func (n *testNotifier) Name() string { return "test-chat" }
func (n *testNotifier) Send(_ context.Context, _ notifier.Notification) error {
	return nil
}

func TestRegisterAndNew(t *testing.T) {
	notifier.Register("test-chat", func(url string, _ *http.Client) (notifier.Notifier, error) {
		return &testNotifier{url: url}, nil
	})

	n, err := notifier.New("test-chat", "https://chat.example/hook", http.DefaultClient)
	if err != nil {
		t.Fatal(err)
	}
	if n.Name() != "test-chat" {
		t.Fatalf("expected test-chat, got %s", n.Name())
	}
	if n.(*testNotifier).url != "https://chat.example/hook" {
		t.Fatal("expected webhook url to reach the factory")
	}

	found := false
	for _, name := range notifier.Available() {
		if name == "test-chat" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected test-chat in Available()")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := notifier.New("carrier-pigeon", "", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNotificationText(t *testing.T) {
	n := notifier.Notification{Title: "Build status: unknown"}
	if n.Text() != "Build status: unknown" {
		t.Fatalf("unexpected text %q", n.Text())
	}

	n.Lines = []string{"Branch: main", "Commit: fix"}
	if n.Text() != "Build status: unknown\nBranch: main\nCommit: fix" {
		t.Fatalf("unexpected text %q", n.Text())
	}
}
