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

// The basic_allocation command assigns three network slices to two links in a
// single time slot, building the model directly on the milp package.
package main

import (
	"context"
	"fmt"

	log "github.com/golang/glog"
	"github.com/netslice/slicealloc/netslice/milp"
)

var (
	slices   = []string{"slice1", "slice2", "slice3"}
	links    = []string{"link1", "link2"}
	capacity = map[string]float64{"link1": 100, "link2": 120}
	// demand[slice][link] in Mbps.
	demand = map[string]map[string]float64{
		"slice1": {"link1": 50, "link2": 40},
		"slice2": {"link1": 30, "link2": 60},
		"slice3": {"link1": 40, "link2": 50},
	}
)

func basicAllocation() error {
	model := milp.NewBuilder("basic_allocation")

	// x[s][l] is true when link l carries the demand of slice s.
	x := make(map[string]map[string]milp.BoolVar)
	for _, s := range slices {
		x[s] = make(map[string]milp.BoolVar)
		for _, l := range links {
			x[s][l] = model.NewBoolVar().WithName(fmt.Sprintf("x_%s_%s", s, l))
		}
	}

	// Served demand on a link stays within its capacity.
	for _, l := range links {
		served := milp.NewLinearExpr()
		for _, s := range slices {
			served.AddTerm(x[s][l], demand[s][l])
		}
		model.AddLessOrEqual(served, milp.NewConstant(capacity[l])).WithName("Capacity_" + l)
	}

	// Every slice is served by at least one link.
	for _, s := range slices {
		var used []milp.LinearArgument
		for _, l := range links {
			used = append(used, x[s][l])
		}
		model.AddGreaterOrEqual(milp.NewLinearExpr().AddSum(used...), milp.NewConstant(1)).WithName("Fairness_" + s)
	}

	obj := milp.NewLinearExpr()
	for _, s := range slices {
		for _, l := range links {
			obj.AddTerm(x[s][l], demand[s][l])
		}
	}
	model.Maximize(obj)

	m, err := model.Model()
	if err != nil {
		return fmt.Errorf("failed to instantiate the model: %w", err)
	}
	response, err := milp.Solve(context.Background(), m, nil)
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}

	fmt.Printf("Status: %v\n", response.Status)
	if !response.Status.HasSolution() {
		fmt.Println("Model is infeasible or not optimal.")
		return nil
	}

	var total float64
	for _, s := range slices {
		for _, l := range links {
			if milp.SolutionBooleanValue(response, x[s][l]) {
				fmt.Printf("%s → %s: %v Mbps\n", s, l, demand[s][l])
				total += demand[s][l]
			}
		}
	}
	fmt.Printf("Total allocated bandwidth: %v Mbps\n", total)
	fmt.Printf("Objective: %v\n", response.Objective)
	return nil
}

func main() {
	if err := basicAllocation(); err != nil {
		log.Exitf("basicAllocation returned with error: %v", err)
	}
}
