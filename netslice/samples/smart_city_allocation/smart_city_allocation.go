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

// The smart_city_allocation command allocates a day of hourly smart-city slice
// demand over fiber, microwave, mmWave and sub-6GHz links and prints the
// allocation with the utilization of every link.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/netslice/slicealloc/netslice/allocation"
	"github.com/netslice/slicealloc/netslice/milp"
	"github.com/netslice/slicealloc/netslice/scenario"
)

func smartCityAllocation() error {
	inst := scenario.SmartCity()
	f, err := allocation.Formulate(inst)
	if err != nil {
		return fmt.Errorf("failed to formulate the model: %w", err)
	}
	fmt.Printf("Model: %d variables, %d constraints\n", f.Model().NumVars(), f.Model().NumConstraints())

	res, err := f.Solve(context.Background(), &milp.Parameters{TimeLimit: time.Minute})
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	if err := allocation.Report(os.Stdout, inst, res); err != nil {
		return err
	}
	if !res.Status.HasSolution() {
		return nil
	}

	fmt.Println("\nPeak hour per link:")
	usage := res.LinkUsage()
	for _, l := range inst.Links {
		var peak float64
		var hour int
		for _, t := range inst.TimeSlots {
			if u := usage[allocation.LinkSlot{Link: l.Name, TimeSlot: t}]; u > peak {
				peak, hour = u, t
			}
		}
		fmt.Printf("  %-10s %6v %s at hour %2d (%.1f%% of %v)\n", l.Name, peak, inst.Unit, hour, 100*peak/l.Capacity, l.Capacity)
	}
	return nil
}

func main() {
	if err := smartCityAllocation(); err != nil {
		log.Exitf("smartCityAllocation returned with error: %v", err)
	}
}
