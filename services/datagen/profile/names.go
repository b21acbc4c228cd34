// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package profile

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
)

// NameType selects a built-in weighted list of personal names.
type NameType string

const (
	FirstName NameType = "firstname"
	LastName  NameType = "lastname"

	// FullName pairs every first name with every last name. The weight of
	// a pair is the sum of its parts' weights.
	FullName NameType = "fullname"
)

// ErrUnknownNameType is returned by ParseNameType.
var ErrUnknownNameType = errors.New("unknown name type")

// ParseNameType validates a name type.
func ParseNameType(s string) (NameType, error) {
	switch NameType(s) {
	case FirstName, LastName, FullName:
		return NameType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNameType, s)
	}
}

//go:embed names/*.csv
var nameFiles embed.FS

var (
	namesOnce sync.Once
	firstList fieldspec.DistributedList
	lastList  fieldspec.DistributedList
	namesErr  error
)

// Names returns the weighted list of a name type.
func Names(t NameType) (fieldspec.DistributedList, error) {
	namesOnce.Do(func() {
		firstList, namesErr = readEmbedded("names/firstname.csv")
		if namesErr != nil {
			return
		}
		lastList, namesErr = readEmbedded("names/lastname.csv")
	})
	if namesErr != nil {
		return fieldspec.DistributedList{}, namesErr
	}

	switch t {
	case FirstName:
		return firstList, nil
	case LastName:
		return lastList, nil
	case FullName:
		return combineNames(firstList, lastList), nil
	default:
		return fieldspec.DistributedList{}, fmt.Errorf("%w: %q", ErrUnknownNameType, t)
	}
}

func readEmbedded(path string) (fieldspec.DistributedList, error) {
	f, err := nameFiles.Open(path)
	if err != nil {
		return fieldspec.DistributedList{}, err
	}
	defer f.Close()
	return ReadWeightedCSV(f)
}

func combineNames(first, last fieldspec.DistributedList) fieldspec.DistributedList {
	elements := make([]fieldspec.WeightedElement, 0, first.Len()*last.Len())
	for _, f := range first.Elements() {
		for _, l := range last.Elements() {
			elements = append(elements, fieldspec.WeightedElement{
				Value:  f.Value.(string) + " " + l.Value.(string),
				Weight: f.Weight + l.Weight,
			})
		}
	}
	return fieldspec.NewDistributedList(elements...)
}

// -----------------------------------------------------------------------------
// Weighted CSV sets
// -----------------------------------------------------------------------------

// ReadWeightedCSV reads a weighted string set.
//
// Description:
//
//	Each record is a value and an optional positive weight; a missing
//	weight counts as 1. A first record whose weight is not a number is
//	taken as a header and skipped. Blank values are ignored.
//
// Outputs:
//
//	fieldspec.DistributedList - Values in file order.
//	error - Malformed CSV or a non-positive weight, with its line number.
func ReadWeightedCSV(r io.Reader) (fieldspec.DistributedList, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var elements []fieldspec.WeightedElement
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fieldspec.DistributedList{}, err
		}
		value := strings.TrimSpace(record[0])
		if value == "" {
			continue
		}
		weight := 1.0
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			w, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
			if err != nil && line == 1 {
				continue
			}
			if err != nil || w <= 0 {
				return fieldspec.DistributedList{}, fmt.Errorf("line %d: weight must be a positive number, got %q", line, record[1])
			}
			weight = w
		}
		elements = append(elements, fieldspec.WeightedElement{Value: value, Weight: weight})
	}
	return fieldspec.NewDistributedList(elements...), nil
}

// readWeightedFile opens path and reads it with ReadWeightedCSV.
func readWeightedFile(path string) (fieldspec.DistributedList, error) {
	f, err := os.Open(path)
	if err != nil {
		return fieldspec.DistributedList{}, err
	}
	defer f.Close()
	list, err := ReadWeightedCSV(f)
	if err != nil {
		return fieldspec.DistributedList{}, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}
