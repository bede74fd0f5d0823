// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrAuthentication indicates the inbound payload signature did not match the
// configured shared secret.
var ErrAuthentication = errors.New("authentication failed: invalid webhook signature")

// ErrConfiguration indicates a destination credential or URL required by the
// configured mode is missing.
var ErrConfiguration = errors.New("configuration error")

// ErrDispatch indicates the outbound notification, re-dispatch or comment failed.
var ErrDispatch = errors.New("dispatch failed")
