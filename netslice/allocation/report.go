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
	"bufio"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/netslice/slicealloc/netslice/milp"
)

const ruleWidth = 50

// Report writes the human-readable allocation of `r` to `w`: for every time slot the
// served links of each slice with their bandwidth, then the totals. Under
// FairnessDemandCap allocations carry no bandwidth, so only the selected links and
// their count are printed. A result without a solution prints the status instead.
func Report(w io.Writer, inst *Instance, r *Result) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "NETWORK SLICING OPTIMIZATION: %s\n", inst.Name)
	fmt.Fprintln(bw, rule)

	if !r.Status.HasSolution() {
		fmt.Fprintln(bw, " Model is infeasible or not optimal.")
		fmt.Fprintf(bw, "Status: %v\n", r.Status)
		fmt.Fprintf(bw, "Solver status: %s\n", r.SolverStatus)
		return bw.Flush()
	}

	fmt.Fprintf(bw, "Status: %v\n", r.Status)
	if r.Status == milp.Feasible {
		fmt.Fprintln(bw, "Time limit reached, optimality not proven.")
	}
	fmt.Fprintln(bw, "Solver: HiGHS")
	fmt.Fprintf(bw, "Model: %d variables, %d constraints, %v fairness\n", r.NumVars, r.NumRows, inst.Fairness)
	fmt.Fprintf(bw, "Solution Time: %.2f seconds\n", r.WallTime.Seconds())
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "ALLOCATION RESULTS")
	fmt.Fprintln(bw, rule)

	width := 10
	for _, s := range inst.Slices {
		width = max(width, len(s))
	}
	counting := inst.Fairness == FairnessDemandCap
	bySlot := groupBySlot(r.Allocations)
	for _, t := range inst.TimeSlots {
		fmt.Fprintf(bw, "\n Time Slot %d:\n", t)
		fmt.Fprintln(bw, strings.Repeat("-", 40))
		for _, s := range inst.Slices {
			var parts []string
			for _, a := range bySlot[t] {
				switch {
				case a.Slice != s:
				case counting:
					parts = append(parts, a.Link)
				default:
					parts = append(parts, fmt.Sprintf("%s: %v %s", a.Link, a.Bandwidth, inst.Unit))
				}
			}
			if len(parts) > 0 {
				fmt.Fprintf(bw, "  %-*s → %s\n", width, s, strings.Join(parts, ", "))
			}
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, rule)
	if counting {
		fmt.Fprintf(bw, " Total Selected Links: %d\n", len(r.Allocations))
	} else {
		fmt.Fprintf(bw, " Total Optimized Bandwidth: %v %s\n", r.TotalBandwidth, inst.Unit)
	}
	fmt.Fprintf(bw, " Objective Value: %.1f\n", r.Objective)
	fmt.Fprintf(bw, " Average Utilization: %.1f%%\n", 100*r.AverageUtilization(inst))
	if peak, at := r.PeakUtilization(inst); peak > 0 {
		fmt.Fprintf(bw, " Peak Utilization: %.1f%% (%s at T%d)\n", 100*peak, at.Link, at.TimeSlot)
	}
	if gap, ok := r.Gap(); ok {
		fmt.Fprintf(bw, " LP Bound: %.1f (gap %.2f%%)\n", r.Bound, 100*gap)
	}
	fmt.Fprintln(bw, rule)
	return bw.Flush()
}

func groupBySlot(as []Allocation) map[int][]Allocation {
	g := make(map[int][]Allocation)
	for _, a := range as {
		g[a.TimeSlot] = append(g[a.TimeSlot], a)
	}
	return g
}

// ReportStruct returns the content of Report as a protobuf Struct.
func ReportStruct(inst *Instance, r *Result) (*structpb.Struct, error) {
	fields := map[string]any{
		"scenario":     inst.Name,
		"fairness":     inst.Fairness.String(),
		"unit":         inst.Unit,
		"status":       r.Status.String(),
		"solverStatus": r.SolverStatus,
		"variables":    r.NumVars,
		"constraints":  r.NumRows,
		"solveSeconds": r.WallTime.Seconds(),
	}
	if r.Status.HasSolution() {
		counting := inst.Fairness == FairnessDemandCap
		bySlot := groupBySlot(r.Allocations)
		var slots []any
		for _, t := range inst.TimeSlots {
			var allocs []any
			for _, a := range bySlot[t] {
				alloc := map[string]any{"slice": a.Slice, "link": a.Link}
				if !counting {
					alloc["bandwidth"] = a.Bandwidth
				}
				allocs = append(allocs, alloc)
			}
			slots = append(slots, map[string]any{
				"timeSlot":    t,
				"allocations": allocs,
			})
		}
		fields["timeSlots"] = slots
		fields["objective"] = r.Objective
		if counting {
			fields["selectedLinks"] = len(r.Allocations)
		} else {
			fields["totalBandwidth"] = r.TotalBandwidth
		}
		fields["averageUtilization"] = r.AverageUtilization(inst)
		if gap, ok := r.Gap(); ok {
			fields["lpBound"] = r.Bound
			fields["gap"] = gap
		}
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building report for %q: %w", inst.Name, err)
	}
	return s, nil
}

// ReportJSON writes the report of `r` to `w` as indented JSON.
func ReportJSON(w io.Writer, inst *Instance, r *Result) error {
	s, err := ReportStruct(inst, r)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling report for %q: %w", inst.Name, err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}
