// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package restrictions

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// ChronoUnit is a calendar step, ordered from finest to coarsest.
type ChronoUnit int

const (
	Millis ChronoUnit = iota
	Seconds
	Minutes
	Hours
	Days
	Months
	Years
)

var chronoUnitNames = map[ChronoUnit]string{
	Millis:  "millis",
	Seconds: "seconds",
	Minutes: "minutes",
	Hours:   "hours",
	Days:    "days",
	Months:  "months",
	Years:   "years",
}

func (u ChronoUnit) String() string {
	if name, ok := chronoUnitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// ParseChronoUnit accepts singular or plural unit names in any case.
func ParseChronoUnit(s string) (ChronoUnit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "millisecond" || name == "milliseconds" {
		name = "millis"
	}
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	for unit, n := range chronoUnitNames {
		if n == name {
			return unit, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown datetime unit %q", ErrInvalidGranularity, s)
}

// DateTimeGranularity is a grid of calendar units in UTC.
type DateTimeGranularity struct {
	Unit ChronoUnit
}

// NewDateTimeGranularity returns the granularity for a unit.
func NewDateTimeGranularity(unit ChronoUnit) DateTimeGranularity {
	return DateTimeGranularity{Unit: unit}
}

// IsCorrectScale reports whether t is already truncated to the unit.
func (g DateTimeGranularity) IsCorrectScale(t time.Time) bool {
	return g.Trim(t).Equal(t)
}

// Trim truncates t to the start of its unit.
func (g DateTimeGranularity) Trim(t time.Time) time.Time {
	t = t.UTC()
	switch g.Unit {
	case Millis:
		return t.Truncate(time.Millisecond)
	case Seconds:
		return t.Truncate(time.Second)
	case Minutes:
		return t.Truncate(time.Minute)
	case Hours:
		return t.Truncate(time.Hour)
	case Days:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Months:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Next moves t by n units.
func (g DateTimeGranularity) Next(t time.Time, n int) time.Time {
	t = t.UTC()
	switch g.Unit {
	case Millis:
		return t.Add(time.Duration(n) * time.Millisecond)
	case Seconds:
		return t.Add(time.Duration(n) * time.Second)
	case Minutes:
		return t.Add(time.Duration(n) * time.Minute)
	case Hours:
		return t.Add(time.Duration(n) * time.Hour)
	case Days:
		return t.AddDate(0, 0, n)
	case Months:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}

// Merge keeps the coarser unit.
func (g DateTimeGranularity) Merge(other Granularity[time.Time]) Granularity[time.Time] {
	o, ok := other.(DateTimeGranularity)
	if !ok || g.Unit >= o.Unit {
		return g
	}
	return o
}

// Finest keeps the finer unit.
func (g DateTimeGranularity) Finest(other Granularity[time.Time]) Granularity[time.Time] {
	o, ok := other.(DateTimeGranularity)
	if !ok || g.Unit <= o.Unit {
		return g
	}
	return o
}

// Random picks an instant between lo and hi and trims it to the grid.
// Spans are sampled in whole seconds so ranges wider than time.Duration
// can express still cover the full interval.
func (g DateTimeGranularity) Random(lo, hi time.Time, rng *rand.Rand) time.Time {
	secs := hi.Unix() - lo.Unix()
	if !hi.After(lo) || secs < 0 {
		return lo
	}
	v := g.Trim(time.Unix(lo.Unix()+rng.Int64N(secs+1), rng.Int64N(int64(time.Second))).UTC())
	if v.Before(lo) {
		return lo
	}
	if v.After(hi) {
		return hi
	}
	return v
}

func (g DateTimeGranularity) String() string {
	return g.Unit.String()
}
