// Package apperr holds the sentinel errors shared by the API and MCP layers.
package apperr

import "errors"

var (
	ErrInvalidMutation    = errors.New("invalid mutation")
	ErrInvalidTheme       = errors.New("invalid theme color")
	ErrPrinterUnavailable = errors.New("printer unavailable")
	ErrConflict           = errors.New("document changed")
)
