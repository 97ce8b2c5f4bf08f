// Copyright 2024 The slicealloc Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The baseline_allocation command solves the link-budget baseline: each selected
// (slice, link) pair counts once, links carry at most their capacity in selected
// pairs and each slice uses at most its budget of links per time slot.
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/netslice/slicealloc/netslice/allocation"
	"github.com/netslice/slicealloc/netslice/scenario"
)

func baselineAllocation() error {
	inst := scenario.Baseline()
	f, err := allocation.Formulate(inst)
	if err != nil {
		return fmt.Errorf("failed to formulate the model: %w", err)
	}
	res, err := f.Solve(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	if err := allocation.Check(inst, res); err != nil {
		return fmt.Errorf("invalid allocation: %w", err)
	}

	fmt.Printf("Status: %v\n", res.Status)
	if !res.Status.HasSolution() {
		return nil
	}
	fmt.Printf("Selected pairs: %v\n", res.Objective)
	return allocation.ReportJSON(os.Stdout, inst, res)
}

func main() {
	if err := baselineAllocation(); err != nil {
		log.Exitf("baselineAllocation returned with error: %v", err)
	}
}
