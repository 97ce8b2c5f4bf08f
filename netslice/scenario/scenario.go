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

// Package scenario provides the built-in slicing instances and loads custom ones from
// YAML files.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/netslice/slicealloc/netslice/allocation"
)

// ErrUnknownScenario is returned by Lookup for names that are not built in.
var ErrUnknownScenario = errors.New("unknown scenario")

// Default is the scenario solved when nothing else is requested.
const Default = "simple"

var builtins = map[string]func() *allocation.Instance{
	"basic":      Basic,
	"simple":     Simple,
	"smart_city": SmartCity,
	"baseline":   Baseline,
	"infeasible": Infeasible,
}

// Lookup returns a fresh copy of the built-in scenario `name`.
func Lookup(name string) (*allocation.Instance, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w (known: %v)", name, ErrUnknownScenario, Names())
	}
	return mk(), nil
}

// Names returns the names of the built-in scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func threeSlicesTwoLinks(name string, capacity1, capacity2 float64) *allocation.Instance {
	return &allocation.Instance{
		Name:   name,
		Unit:   "Mbps",
		Slices: []string{"slice1", "slice2", "slice3"},
		Links: []allocation.Link{
			{Name: "link1", Capacity: capacity1},
			{Name: "link2", Capacity: capacity2},
		},
		Demand: allocation.Demand{},
	}
}

// Basic is three slices on two links in one time slot. Its optimum serves 200 Mbps.
func Basic() *allocation.Instance {
	inst := threeSlicesTwoLinks("basic", 100, 120)
	inst.TimeSlots = []int{1}
	setDemand(inst.Demand, 1, map[string][2]float64{
		"slice1": {50, 40},
		"slice2": {30, 60},
		"slice3": {40, 50},
	})
	return inst
}

// Simple extends Basic with a second time slot.
func Simple() *allocation.Instance {
	inst := threeSlicesTwoLinks("simple", 100, 120)
	inst.TimeSlots = []int{1, 2}
	setDemand(inst.Demand, 1, map[string][2]float64{
		"slice1": {50, 40},
		"slice2": {30, 60},
		"slice3": {40, 50},
	})
	setDemand(inst.Demand, 2, map[string][2]float64{
		"slice1": {30, 35},
		"slice2": {40, 50},
		"slice3": {45, 40},
	})
	return inst
}

// Baseline counts served links instead of bandwidth: each slice may use at most its
// budget of links per time slot and each link carries at most its capacity in slices.
func Baseline() *allocation.Instance {
	inst := threeSlicesTwoLinks("baseline", 5, 4)
	inst.TimeSlots = []int{1, 2}
	inst.Fairness = allocation.FairnessDemandCap
	inst.Budget = map[allocation.SliceSlot]float64{
		{Slice: "slice1", TimeSlot: 1}: 5,
		{Slice: "slice1", TimeSlot: 2}: 3,
		{Slice: "slice2", TimeSlot: 1}: 3,
		{Slice: "slice2", TimeSlot: 2}: 1,
		{Slice: "slice3", TimeSlot: 1}: 1,
		{Slice: "slice3", TimeSlot: 2}: 3,
	}
	return inst
}

// Infeasible has links too small for any slice, so no slice can be served.
func Infeasible() *allocation.Instance {
	inst := threeSlicesTwoLinks("infeasible", 20, 25)
	inst.TimeSlots = []int{1}
	setDemand(inst.Demand, 1, map[string][2]float64{
		"slice1": {50, 40},
		"slice2": {30, 60},
		"slice3": {40, 50},
	})
	return inst
}

// setDemand fills link1/link2 demand of time slot `t`.
func setDemand(d allocation.Demand, t int, perSlice map[string][2]float64) {
	for s, v := range perSlice {
		d[allocation.Key{Slice: s, Link: "link1", TimeSlot: t}] = v[0]
		d[allocation.Key{Slice: s, Link: "link2", TimeSlot: t}] = v[1]
	}
}
