package github

import (
	"net/http"

	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
)

func init() {
	gitprovider.Register(providerName, func(token string, client *http.Client) (gitprovider.Provider, error) {
		return NewProvider(token, client), nil
	})
}
