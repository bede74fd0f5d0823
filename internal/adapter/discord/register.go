package discord

import (
	"net/http"

	"github.com/Strob0t/buildrelay/internal/port/notifier"
)

func init() {
	notifier.Register(providerName, func(webhookURL string, client *http.Client) (notifier.Notifier, error) {
		return NewNotifier(webhookURL, client), nil
	})
}
