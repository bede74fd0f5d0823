package main

// Provider blank imports: each import activates a self-registering adapter.

import (
	_ "github.com/Strob0t/buildrelay/internal/adapter/discord"
	_ "github.com/Strob0t/buildrelay/internal/adapter/github"
	_ "github.com/Strob0t/buildrelay/internal/adapter/slack"
)
