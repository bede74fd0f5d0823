package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
	"github.com/Strob0t/buildrelay/internal/port/notifier"
	"github.com/Strob0t/buildrelay/internal/port/workspace"
)

var errFake = errors.New("fake remote failure")

// fakeWorkspace is an in-memory workspace with call counters.
type fakeWorkspace struct {
	mu        sync.Mutex
	pages     map[string][]workspace.Page // search query -> hits
	children  map[string][]workspace.Block
	searchErr error
	appendErr error
	panicOn   string // record id whose Children call panics

	searches int
	lists    int
	appends  int
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		pages:    make(map[string][]workspace.Page),
		children: make(map[string][]workspace.Block),
	}
}

func (f *fakeWorkspace) Search(_ context.Context, query string) ([]workspace.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.pages[query], nil
}

func (f *fakeWorkspace) Children(_ context.Context, recordID string, _ int) ([]workspace.Block, error) {
	if recordID == f.panicOn {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]workspace.Block(nil), f.children[recordID]...), nil
}

func (f *fakeWorkspace) AppendReference(_ context.Context, recordID, label, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.children[recordID] = append(f.children[recordID], workspace.Block{
		Type: "paragraph",
		Fragments: []workspace.Fragment{
			{PlainText: label + " ", Content: label + " "},
			{PlainText: url, Content: url, LinkURL: url},
		},
	})
	return nil
}

func (f *fakeWorkspace) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches + f.lists + f.appends
}

// fakeNotifier records sent notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifier.Notification
	err  error
}

func (f *fakeNotifier) Name() string { return "fake-chat" }

func (f *fakeNotifier) Send(_ context.Context, n notifier.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type sentComment struct {
	url  string
	body string
}

type sentEvent struct {
	endpoint string
	ev       gitprovider.RepositoryEvent
}

// fakeGit records repository events and comments.
type fakeGit struct {
	mu       sync.Mutex
	events   []sentEvent
	comments []sentComment
	err      error
}

func (f *fakeGit) Name() string { return "fake-git" }

func (f *fakeGit) DispatchEvent(_ context.Context, endpoint string, ev gitprovider.RepositoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{endpoint: endpoint, ev: ev})
	return f.err
}

func (f *fakeGit) CreateComment(_ context.Context, url, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, sentComment{url: url, body: body})
	return f.err
}

func (f *fakeGit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events) + len(f.comments)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
