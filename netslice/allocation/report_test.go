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

package allocation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/netslice/slicealloc/netslice/milp"
)

// basicResult is the optimal allocation of basicInstance.
func basicResult() *Result {
	return &Result{
		Status:       milp.Optimal,
		SolverStatus: "Optimal",
		Objective:    200,
		Allocations: []Allocation{
			{Key: Key{"slice1", "link1", 1}, Bandwidth: 50},
			{Key: Key{"slice2", "link2", 1}, Bandwidth: 60},
			{Key: Key{"slice3", "link1", 1}, Bandwidth: 40},
			{Key: Key{"slice3", "link2", 1}, Bandwidth: 50},
		},
		TotalBandwidth: 200,
		NumVars:        6,
		NumRows:        5,
	}
}

func TestReport(t *testing.T) {
	var b bytes.Buffer
	if err := Report(&b, basicInstance(), basicResult()); err != nil {
		t.Fatalf("Report() returned with unexpected error %v", err)
	}

	want := `==================================================
NETWORK SLICING OPTIMIZATION: basic
==================================================
Status: OPTIMAL
Solver: HiGHS
Model: 6 variables, 5 constraints, at_least_one fairness
Solution Time: 0.00 seconds

==================================================
ALLOCATION RESULTS
==================================================

 Time Slot 1:
----------------------------------------
  slice1     → link1: 50 Mbps
  slice2     → link2: 60 Mbps
  slice3     → link1: 40 Mbps, link2: 50 Mbps

==================================================
 Total Optimized Bandwidth: 200 Mbps
 Objective Value: 200.0
 Average Utilization: 90.9%
 Peak Utilization: 91.7% (link2 at T1)
==================================================
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Report() returned unexpected diff (-want+got): %v", diff)
	}
}

func TestReport_WithBound(t *testing.T) {
	res := basicResult()
	res.Bound = 220
	res.HasBound = true

	var b bytes.Buffer
	if err := Report(&b, basicInstance(), res); err != nil {
		t.Fatalf("Report() returned with unexpected error %v", err)
	}
	if want := " LP Bound: 220.0 (gap 9.09%)\n"; !strings.Contains(b.String(), want) {
		t.Errorf("Report() = %q, want it to contain %q", b.String(), want)
	}
}

func TestReport_NotOptimal(t *testing.T) {
	testCases := []struct {
		name   string
		status milp.Status
	}{
		{name: "infeasible", status: milp.Infeasible},
		{name: "timeLimit", status: milp.TimeLimit},
		{name: "unknown", status: milp.Unknown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var b bytes.Buffer
			res := &Result{Status: tc.status, SolverStatus: "raw"}
			if err := Report(&b, basicInstance(), res); err != nil {
				t.Fatalf("Report() returned with unexpected error %v", err)
			}
			got := b.String()
			for _, want := range []string{" Model is infeasible or not optimal.\n", "Status: " + tc.status.String() + "\n"} {
				if !strings.Contains(got, want) {
					t.Errorf("Report() = %q, want it to contain %q", got, want)
				}
			}
			if strings.Contains(got, "ALLOCATION RESULTS") {
				t.Errorf("Report() printed allocations for status %v", tc.status)
			}
		})
	}
}

func TestReport_Feasible(t *testing.T) {
	res := basicResult()
	res.Status = milp.Feasible

	var b bytes.Buffer
	if err := Report(&b, basicInstance(), res); err != nil {
		t.Fatalf("Report() returned with unexpected error %v", err)
	}
	if want := "Time limit reached, optimality not proven.\n"; !strings.Contains(b.String(), want) {
		t.Errorf("Report() = %q, want it to contain %q", b.String(), want)
	}
}

func baselineResult() *Result {
	return &Result{
		Status:       milp.Optimal,
		SolverStatus: "Optimal",
		Objective:    3,
		Allocations: []Allocation{
			{Key: Key{"slice1", "link1", 1}, Bandwidth: 1},
			{Key: Key{"slice1", "link2", 1}, Bandwidth: 1},
			{Key: Key{"slice2", "link1", 2}, Bandwidth: 1},
		},
		TotalBandwidth: 3,
		NumVars:        12,
		NumRows:        10,
	}
}

func TestReport_DemandCap(t *testing.T) {
	var b bytes.Buffer
	if err := Report(&b, baselineInstance(), baselineResult()); err != nil {
		t.Fatalf("Report() returned with unexpected error %v", err)
	}
	got := b.String()
	for _, want := range []string{
		"  slice1     → link1, link2\n",
		"  slice2     → link1\n",
		" Total Selected Links: 3\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Report() = %q, want it to contain %q", got, want)
		}
	}
	for _, unwanted := range []string{"1 Mbps", "Total Optimized Bandwidth"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("Report() = %q, want it not to contain %q", got, unwanted)
		}
	}
}

func TestReportStruct_DemandCap(t *testing.T) {
	got, err := ReportStruct(baselineInstance(), baselineResult())
	if err != nil {
		t.Fatalf("ReportStruct() returned with unexpected error %v", err)
	}
	fields := got.GetFields()
	if got, want := fields["selectedLinks"].GetNumberValue(), 3.0; got != want {
		t.Errorf("selectedLinks = %v, want %v", got, want)
	}
	if _, ok := fields["totalBandwidth"]; ok {
		t.Errorf("ReportStruct() has totalBandwidth under demand_cap fairness")
	}
	slot := fields["timeSlots"].GetListValue().GetValues()[0].GetStructValue()
	alloc := slot.GetFields()["allocations"].GetListValue().GetValues()[0].GetStructValue()
	want, err := structpb.NewStruct(map[string]any{"slice": "slice1", "link": "link1"})
	if err != nil {
		t.Fatalf("structpb.NewStruct() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, alloc, protocmp.Transform()); diff != "" {
		t.Errorf("ReportStruct() allocation returned unexpected diff (-want+got): %v", diff)
	}
}

func TestReportJSON(t *testing.T) {
	var b bytes.Buffer
	if err := ReportJSON(&b, basicInstance(), basicResult()); err != nil {
		t.Fatalf("ReportJSON() returned with unexpected error %v", err)
	}

	got := &structpb.Struct{}
	if err := protojson.Unmarshal(b.Bytes(), got); err != nil {
		t.Fatalf("protojson.Unmarshal() returned with unexpected error %v", err)
	}
	want, err := structpb.NewStruct(map[string]any{
		"scenario":     "basic",
		"fairness":     "at_least_one",
		"unit":         "Mbps",
		"status":       "OPTIMAL",
		"solverStatus": "Optimal",
		"variables":    6,
		"constraints":  5,
		"solveSeconds": 0,
		"timeSlots": []any{
			map[string]any{
				"timeSlot": 1,
				"allocations": []any{
					map[string]any{"slice": "slice1", "link": "link1", "bandwidth": 50},
					map[string]any{"slice": "slice2", "link": "link2", "bandwidth": 60},
					map[string]any{"slice": "slice3", "link": "link1", "bandwidth": 40},
					map[string]any{"slice": "slice3", "link": "link2", "bandwidth": 50},
				},
			},
		},
		"objective":          200,
		"totalBandwidth":     200,
		"averageUtilization": 200.0 / 220,
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("ReportJSON() returned unexpected diff (-want+got): %v", diff)
	}
}

func TestReportJSON_Infeasible(t *testing.T) {
	var b bytes.Buffer
	res := &Result{Status: milp.Infeasible, SolverStatus: "Infeasible"}
	if err := ReportJSON(&b, basicInstance(), res); err != nil {
		t.Fatalf("ReportJSON() returned with unexpected error %v", err)
	}

	got := &structpb.Struct{}
	if err := protojson.Unmarshal(b.Bytes(), got); err != nil {
		t.Fatalf("protojson.Unmarshal() returned with unexpected error %v", err)
	}
	if _, ok := got.GetFields()["timeSlots"]; ok {
		t.Errorf("ReportJSON() contains timeSlots for an infeasible result")
	}
	if got, want := got.GetFields()["status"].GetStringValue(), "INFEASIBLE"; got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(*Result)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Result) {},
		},
		{
			name: "overCapacity",
			modify: func(r *Result) {
				r.Allocations = append(r.Allocations, Allocation{Key: Key{"slice2", "link1", 1}, Bandwidth: 30})
				r.Objective += 30
			},
			wantErr: "link link1 at T1 serves 120, capacity 100",
		},
		{
			name: "unfair",
			modify: func(r *Result) {
				r.Allocations = r.Allocations[:1]
				r.Objective = 50
			},
			wantErr: "slice slice2 at T1 has no active link",
		},
		{
			name:    "objectiveMismatch",
			modify:  func(r *Result) { r.Objective = 210 },
			wantErr: "objective 210 differs from selected bandwidth 200",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := basicResult()
			tc.modify(res)
			err := Check(basicInstance(), res)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Check() returned with unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Check() returned with error %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestResult_Gap(t *testing.T) {
	res := basicResult()
	if _, ok := res.Gap(); ok {
		t.Errorf("Gap() ok = true without a bound, want false")
	}
	res.Bound, res.HasBound = 250, true
	gap, ok := res.Gap()
	if !ok || gap != 0.2 {
		t.Errorf("Gap() = (%v, %v), want (0.2, true)", gap, ok)
	}
}
