package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Strob0t/buildrelay/internal/domain/webhook"
	"github.com/Strob0t/buildrelay/internal/domain/workitem"
)

const secretEnv = "BUILDRELAY_WEBHOOK_SECRET"

// runSign prints the signature header value for a payload read from -file
// or stdin. The secret comes from -secret, the environment, or a prompt.
func runSign(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	secret := fs.String("secret", "", "shared webhook secret (default $"+secretEnv+")")
	algo := fs.String("algo", "sha256", "digest algorithm: "+strings.Join(webhook.Algorithms(), ", "))
	file := fs.String("file", "", "payload file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *secret == "" {
		*secret = os.Getenv(secretEnv)
	}
	if *secret == "" && *file != "" && term.IsTerminal(int(syscall.Stdin)) { //nolint:unconvert // int conversion needed on some platforms
		s, err := promptSecret("Webhook secret: ")
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		*secret = s
	}
	if *secret == "" {
		return errors.New("a secret is required (-secret, $" + secretEnv + ", or -file with an interactive terminal)")
	}

	var body []byte
	var err error
	if *file != "" {
		body, err = os.ReadFile(*file) //nolint:gosec // G304: path given by the operator
	} else {
		body, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	sig, err := webhook.Sign(body, *secret, *algo)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, sig)
	return err
}

// runExtract prints the references found in the arguments, or in stdin
// when no text argument is given.
func runExtract(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	prefix := fs.String("prefix", workitem.DefaultPrefix, "short-code prefix")
	domain := fs.String("domain", workitem.DefaultDomain, "workspace domain for direct links")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		text = string(b)
	}

	ids := workitem.NewExtractor(*prefix, *domain).Extract(text, "", "")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ids)
}

// promptSecret reads a secret from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
