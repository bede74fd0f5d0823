package gitprovider_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
)

type testProvider struct {
	token string
}

func (p *testProvider) Name() string { return "test-git" }
func (p *testProvider) DispatchEvent(_ context.Context, _ string, _ gitprovider.RepositoryEvent) error {
	return nil
}
func (p *testProvider) CreateComment(_ context.Context, _, _ string) error { return nil }

func TestRegisterAndNew(t *testing.T) {
	gitprovider.Register("test-git", func(token string, _ *http.Client) (gitprovider.Provider, error) {
		return &testProvider{token: token}, nil
	})

	p, err := gitprovider.New("test-git", "tok", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "test-git" {
		t.Fatalf("expected test-git, got %s", p.Name())
	}
	if p.(*testProvider).token != "tok" {
		t.Fatal("expected token to reach the factory")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := gitprovider.New("nonexistent", "", nil)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestAvailable(t *testing.T) {
	gitprovider.Register("test-git-available", func(string, *http.Client) (gitprovider.Provider, error) {
		return &testProvider{}, nil
	})

	found := false
	for _, n := range gitprovider.Available() {
		if n == "test-git-available" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected test-git-available in Available()")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	gitprovider.Register("test-git-dup", func(string, *http.Client) (gitprovider.Provider, error) {
		return &testProvider{}, nil
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	gitprovider.Register("test-git-dup", func(string, *http.Client) (gitprovider.Provider, error) {
		return &testProvider{}, nil
	})
}
