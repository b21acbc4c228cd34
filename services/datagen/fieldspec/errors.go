// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fieldspec

import "errors"

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnsupported marks operations that indicate profile or caller misuse:
	// merging two generators, WithNotNull on a null-only spec, negating an
	// offset relation. It is never absorbed as "unsatisfiable".
	ErrUnsupported = errors.New("unsupported operation")

	// ErrTypeMismatch marks a generator or value whose type does not match
	// the field it is applied to.
	ErrTypeMismatch = errors.New("type mismatch")
)

// OperationError records which component and operation failed.
//
// It unwraps to the underlying sentinel so callers can use errors.Is.
type OperationError struct {
	Component string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return e.Component + "." + e.Operation + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
