// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Walker Metrics
// -----------------------------------------------------------------------------

var (
	// rowSpecsEmitted counts row specs yielded by the solver.
	rowSpecsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "datagen",
		Subsystem: "walker",
		Name:      "row_specs_emitted_total",
		Help:      "Total row specs yielded by the solver",
	})

	// optionsPruned counts decision options rejected by forward checking.
	//
	// Labels:
	//   - stage: "branch" when rejected on entry, "lookahead" when removed
	//     from a pending decision
	optionsPruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "walker",
			Name:      "options_pruned_total",
			Help:      "Total decision options rejected as unsatisfiable",
		},
		[]string{"stage"},
	)

	// branchesExplored counts options the solver descended into.
	branchesExplored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "datagen",
		Subsystem: "walker",
		Name:      "branches_explored_total",
		Help:      "Total decision options descended into",
	})

	// solveErrors counts solves aborted by unsupported operations.
	solveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "datagen",
		Subsystem: "walker",
		Name:      "solve_errors_total",
		Help:      "Total solves aborted with an error",
	})
)
