// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that end
// up in pub/sub topic names, log lines, and URL paths. Using these
// validators keeps control characters and path separators out of those
// surfaces.
package validation

import (
	"fmt"
	"regexp"
)

// identifierPattern matches statute and user identifiers.
// Allows: letters, digits, then dots, underscores, colons, hyphens.
// Max length: 128 characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:\-]{0,127}$`)

// ValidateIdentifier validates a statute or user identifier.
//
// Valid identifiers:
//   - 1-128 characters
//   - start with a letter or digit
//   - continue with letters, digits, dots, underscores, colons, hyphens
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(statuteID); err != nil {
//	    return fmt.Errorf("bad statute id: %w", err)
//	}
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("identifier too long: %d characters (max 128)", len(id))
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier %q: must start with a letter or digit and contain only letters, digits, dots, underscores, colons, and hyphens", id)
	}
	return nil
}

// IsValidIdentifier reports whether id passes ValidateIdentifier.
func IsValidIdentifier(id string) bool {
	return ValidateIdentifier(id) == nil
}
