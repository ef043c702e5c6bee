package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSaveMode is returned for an unrecognized save mode.
var ErrInvalidSaveMode = errors.New("invalid save mode")

// SaveMode controls what a write does when the destination already exists.
type SaveMode string

const (
	// SaveOverwrite replaces existing output.
	SaveOverwrite SaveMode = "overwrite"
	// SaveIgnore keeps existing output and skips the write.
	SaveIgnore SaveMode = "ignore"
)

// Valid reports whether m is a known mode.
func (m SaveMode) Valid() bool { return m == SaveOverwrite || m == SaveIgnore }

// ParseSaveMode parses a config value. Empty means overwrite.
func ParseSaveMode(s string) (SaveMode, error) {
	switch m := SaveMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SaveOverwrite, nil
	case SaveOverwrite, SaveIgnore:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSaveMode, s)
	}
}
