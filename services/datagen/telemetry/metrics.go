// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the engine's OTel instruments. All names carry the
// "datagen_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// CompileDuration records profile-to-tree compilation time in seconds.
	CompileDuration metric.Float64Histogram

	// PartitionsTotal counts independent partitions produced.
	PartitionsTotal metric.Int64Counter

	// RowSpecsTotal counts row specs produced by the engine.
	RowSpecsTotal metric.Int64Counter

	// RowsTotal counts generated rows by mode.
	RowsTotal metric.Int64Counter

	// RequestDuration records HTTP handling time by route and status.
	RequestDuration metric.Float64Histogram

	// ErrorsTotal counts failures by component and operation.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics registers every instrument with meter.
//
// Inputs:
//
//	meter - The meter, e.g. otel.Meter("datagen").
//
// Outputs:
//
//	*Metrics - Ready to use.
//	error - Non-nil if an instrument cannot be created.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.CompileDuration, err = meter.Float64Histogram(
		"datagen_compile_duration_seconds",
		metric.WithDescription("Profile compilation duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create compile_duration: %w", err)
	}
	if m.PartitionsTotal, err = meter.Int64Counter(
		"datagen_partitions_total",
		metric.WithDescription("Independent partitions solved"),
		metric.WithUnit("{partition}"),
	); err != nil {
		return nil, fmt.Errorf("create partitions_total: %w", err)
	}
	if m.RowSpecsTotal, err = meter.Int64Counter(
		"datagen_rowspecs_total",
		metric.WithDescription("Row specs produced"),
		metric.WithUnit("{rowspec}"),
	); err != nil {
		return nil, fmt.Errorf("create rowspecs_total: %w", err)
	}
	if m.RowsTotal, err = meter.Int64Counter(
		"datagen_rows_total",
		metric.WithDescription("Rows generated"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, fmt.Errorf("create rows_total: %w", err)
	}
	if m.RequestDuration, err = meter.Float64Histogram(
		"datagen_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}
	if m.ErrorsTotal, err = meter.Int64Counter(
		"datagen_errors_total",
		metric.WithDescription("Failed operations"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}
	return m, nil
}

// RecordCompile records one compilation.
func (m *Metrics) RecordCompile(ctx context.Context, d time.Duration, partitions int) {
	if m == nil {
		return
	}
	m.CompileDuration.Record(ctx, d.Seconds())
	m.PartitionsTotal.Add(ctx, int64(partitions))
}

// RecordRowSpecs counts produced row specs.
func (m *Metrics) RecordRowSpecs(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.RowSpecsTotal.Add(ctx, int64(n))
}

// RecordRows counts generated rows for a mode.
func (m *Metrics) RecordRows(ctx context.Context, mode string, n int) {
	if m == nil {
		return
	}
	m.RowsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordError counts a failure.
func (m *Metrics) RecordError(ctx context.Context, component, operation string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
	))
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
