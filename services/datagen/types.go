// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datagen serves the data generation engine over HTTP.
package datagen

import (
	"encoding/json"

	"github.com/AleutianAI/datagen/services/datagen/generation"
)

// ServiceVersion is reported by the health endpoint and the CLI.
const ServiceVersion = "0.1.0"

// HealthResponse is returned by GET /v1/datagen/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RowSpecsRequest is the body of POST /v1/datagen/rowspecs.
type RowSpecsRequest struct {
	// Profile is a profile document as a JSON object, or a YAML document
	// as a JSON string.
	Profile json.RawMessage `json:"profile" binding:"required"`

	// Limit caps the row specs returned. 0 means the server maximum.
	Limit int `json:"limit" binding:"min=0"`
}

// RowSpecsResponse lists row specs in their string form.
type RowSpecsResponse struct {
	RowSpecs []string `json:"rowSpecs"`
	Count    int      `json:"count"`

	// Truncated is set when the limit stopped the listing.
	Truncated bool `json:"truncated"`
}

// RowsRequest is the body of POST /v1/datagen/rows.
type RowsRequest struct {
	Profile json.RawMessage `json:"profile" binding:"required"`

	// Limit caps the rows returned. 0 means the configured default.
	Limit int `json:"limit" binding:"min=0"`

	// Mode is "full" or "random". Empty means the configured default.
	Mode string `json:"mode" binding:"omitempty,oneof=full random"`

	// Seed overrides the configured seed.
	Seed *uint64 `json:"seed"`
}

// RowsResponse carries generated rows. Each row is an object in field
// order.
type RowsResponse struct {
	Fields []string         `json:"fields"`
	Rows   []generation.Row `json:"rows"`
	Count  int              `json:"count"`
}

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
