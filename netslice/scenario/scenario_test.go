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

package scenario

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/netslice/slicealloc/netslice/allocation"
	"github.com/netslice/slicealloc/netslice/milp"
)

func TestLookup(t *testing.T) {
	want := []string{"baseline", "basic", "infeasible", "simple", "smart_city"}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() returned unexpected diff (-want+got): %v", diff)
	}
	for _, name := range Names() {
		inst, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) returned with unexpected error %v", name, err)
		}
		if inst.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, inst.Name)
		}
		if err := inst.Validate(); err != nil {
			t.Errorf("Lookup(%q).Validate() returned with unexpected error %v", name, err)
		}
	}
	if _, err := Lookup("rural"); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("Lookup(rural) returned with error %v, want %v", err, ErrUnknownScenario)
	}
}

func TestLookup_FreshCopy(t *testing.T) {
	first, err := Lookup(Default)
	if err != nil {
		t.Fatalf("Lookup(%q) returned with unexpected error %v", Default, err)
	}
	first.Demand[allocation.Key{Slice: "slice1", Link: "link1", TimeSlot: 1}] = 0
	second, err := Lookup(Default)
	if err != nil {
		t.Fatalf("Lookup(%q) returned with unexpected error %v", Default, err)
	}
	if got := second.Demand[allocation.Key{Slice: "slice1", Link: "link1", TimeSlot: 1}]; got != 50 {
		t.Errorf("Lookup() shares demand between calls, got %v, want 50", got)
	}
}

func TestSmartCity(t *testing.T) {
	inst := SmartCity()

	if got, want := len(inst.TimeSlots), 24; got != want {
		t.Errorf("len(TimeSlots) = %v, want %v", got, want)
	}
	testCases := []struct {
		key  allocation.Key
		want float64
	}{
		{allocation.Key{Slice: "eMBB", Link: "fiber", TimeSlot: 18}, 900},
		{allocation.Key{Slice: "eMBB", Link: "mmwave", TimeSlot: 1}, 60},
		{allocation.Key{Slice: "mMTC", Link: "microwave", TimeSlot: 4}, 17},
		{allocation.Key{Slice: "PublicSafety", Link: "fiber", TimeSlot: 14}, 47},
		{allocation.Key{Slice: "VideoSurveillance", Link: "sub6ghz", TimeSlot: 4}, 180},
		{allocation.Key{Slice: "uRLLC", Link: "microwave", TimeSlot: 8}, 0},
	}
	for _, tc := range testCases {
		if got := inst.Demand[tc.key]; got != tc.want {
			t.Errorf("Demand[%v] = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	inst, err := Load("testdata/campus.yaml")
	if err != nil {
		t.Fatalf("Load() returned with unexpected error %v", err)
	}
	want := &allocation.Instance{
		Name:   "campus",
		Unit:   "Mbps",
		Slices: []string{"video", "iot"},
		Links: []allocation.Link{
			{Name: "fiber", Capacity: 100},
			{Name: "radio", Capacity: 40},
		},
		TimeSlots: []int{1, 2},
		Demand: allocation.Demand{
			{Slice: "video", Link: "fiber", TimeSlot: 1}: 80,
			{Slice: "video", Link: "radio", TimeSlot: 1}: 30,
			{Slice: "iot", Link: "fiber", TimeSlot: 1}:   25,
			{Slice: "iot", Link: "radio", TimeSlot: 1}:   10,
			{Slice: "video", Link: "fiber", TimeSlot: 2}: 60,
			{Slice: "iot", Link: "radio", TimeSlot: 2}:   35,
		},
	}
	if diff := cmp.Diff(want, inst); diff != "" {
		t.Errorf("Load() returned unexpected diff (-want+got): %v", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "", wantErr: "empty scenario"},
		{name: "noName", yaml: "slices: [a]\n", wantErr: "scenario without name"},
		{name: "unknownField", yaml: "name: x\ncapacity: 3\n", wantErr: "field capacity not found"},
		{name: "badFairness", yaml: "name: x\nfairness: strict\n", wantErr: "unknown fairness"},
		{
			name:    "duplicateDemand",
			yaml:    "name: x\ndemand:\n  - {slice: a, link: l, slot: 1, bandwidth: 1}\n  - {slice: a, link: l, slot: 1, bandwidth: 2}\n",
			wantErr: "given twice",
		},
		{
			name:    "duplicateBudget",
			yaml:    "name: x\nbudget:\n  - {slice: a, slot: 1, links: 1}\n  - {slice: a, slot: 1, links: 2}\n",
			wantErr: "budget for a/T1 given twice",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Parse() returned with error %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestParse_Budget(t *testing.T) {
	const in = `
name: capped
fairness: demand_cap
slices: [a]
links: [{name: l, capacity: 2}]
time_slots: [1]
budget:
  - {slice: a, slot: 1, links: 1}
`
	inst, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse() returned with unexpected error %v", err)
	}
	if got, want := inst.Fairness, allocation.FairnessDemandCap; got != want {
		t.Errorf("Fairness = %v, want %v", got, want)
	}
	if got, want := inst.Budget[allocation.SliceSlot{Slice: "a", TimeSlot: 1}], 1.0; got != want {
		t.Errorf("Budget[a/T1] = %v, want %v", got, want)
	}
}

func solveScenario(t *testing.T, inst *allocation.Instance) *allocation.Result {
	t.Helper()
	f, err := allocation.Formulate(inst)
	if err != nil {
		t.Fatalf("Formulate(%q) returned with unexpected error %v", inst.Name, err)
	}
	res, err := f.Solve(context.Background(), &milp.Parameters{TimeLimit: time.Minute})
	if err != nil {
		t.Fatalf("Solve(%q) returned with unexpected error %v", inst.Name, err)
	}
	return res
}

func TestBuiltins_Solve(t *testing.T) {
	var smartCityDemand float64
	for _, d := range SmartCity().Demand {
		smartCityDemand += d
	}

	testCases := []struct {
		name          string
		wantStatus    milp.Status
		wantObjective float64
	}{
		{name: "basic", wantStatus: milp.Optimal, wantObjective: 200},
		// Slot 2 serves slice2 and slice3 on link1 (85) and slice1 and slice2 on link2 (85).
		{name: "simple", wantStatus: milp.Optimal, wantObjective: 370},
		{name: "baseline", wantStatus: milp.Optimal, wantObjective: 10},
		{name: "infeasible", wantStatus: milp.Infeasible},
		// Every link has room for every slice, so all demand is served.
		{name: "smart_city", wantStatus: milp.Optimal, wantObjective: smartCityDemand},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := Lookup(tc.name)
			if err != nil {
				t.Fatalf("Lookup(%q) returned with unexpected error %v", tc.name, err)
			}
			res := solveScenario(t, inst)
			if res.Status != tc.wantStatus {
				t.Fatalf("Solve(%q) returned status = %v, want %v", tc.name, res.Status, tc.wantStatus)
			}
			if math.Abs(res.Objective-tc.wantObjective) > 1e-6 {
				t.Errorf("Solve(%q) returned objective = %v, want %v", tc.name, res.Objective, tc.wantObjective)
			}
			if err := allocation.Check(inst, res); err != nil {
				t.Errorf("Check(%q) returned with unexpected error %v", tc.name, err)
			}
		})
	}
}
