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

package milp

import (
	"context"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/lanl/highs"
)

// feasibilityTol is the tolerance used to accept an incumbent returned on a time limit.
const feasibilityTol = 1e-6

// Status is the outcome of a solve.
type Status int

// These are the values a Status accepts.
const (
	Unknown Status = iota
	Optimal
	// Feasible means the time limit was reached with an incumbent that is not proven optimal.
	Feasible
	Infeasible
	Unbounded
	// TimeLimit means the time limit was reached without any incumbent.
	TimeLimit
)

var statusNames = map[Status]string{
	Unknown:    "UNKNOWN",
	Optimal:    "OPTIMAL",
	Feasible:   "FEASIBLE",
	Infeasible: "INFEASIBLE",
	Unbounded:  "UNBOUNDED",
	TimeLimit:  "TIME_LIMIT",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution returns true if the status carries variable values.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Parameters holds the solver options that are forwarded to HiGHS. A nil *Parameters
// means HiGHS defaults with output suppressed.
type Parameters struct {
	// TimeLimit bounds the wall-clock solve time. Zero means no limit.
	TimeLimit time.Duration
	// RelativeGap is the relative MIP gap at which the solver stops. Zero keeps the default.
	RelativeGap float64
	// Threads is the number of solver threads. Zero keeps the default.
	Threads int
	// RandomSeed makes tie-breaking between equivalent optima reproducible.
	RandomSeed int
	// Verbose enables the HiGHS log on stdout.
	Verbose bool
}

// Response is the result of Solve.
type Response struct {
	Status Status
	// SolverStatus is the raw HiGHS model status, kept for reporting.
	SolverStatus string
	Objective    float64
	// Values has one entry per column when Status.HasSolution() is true.
	Values   []float64
	WallTime time.Duration
}

// Solve hands the model to HiGHS and blocks until it returns. HiGHS cannot be
// interrupted, so ctx is only consulted before the solve starts: its deadline
// tightens the time limit in `params`, and cancellation after that point has no
// effect. Statuses other than Optimal are returned as-is; the caller decides what
// to report.
func Solve(ctx context.Context, m *Model, params *Parameters) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		params = &Parameters{}
	}
	if m.NumVars() == 0 {
		// HiGHS rejects models without columns. Rows are constants, so the model is
		// either infeasible or optimal at its offset.
		if !m.isFeasible(nil, feasibilityTol) {
			return &Response{Status: Infeasible, SolverStatus: "Infeasible"}, nil
		}
		return &Response{Status: Optimal, SolverStatus: "Optimal", Objective: m.Offset}, nil
	}

	limit := params.TimeLimit
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); limit == 0 || remaining < limit {
			limit = remaining
		}
		if limit <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	raw, err := m.highsModel().ToRawModel()
	if err != nil {
		return nil, fmt.Errorf("converting model %q for HiGHS failed: %w", m.Name, err)
	}
	if err := raw.SetBoolOption("output_flag", params.Verbose); err != nil {
		return nil, fmt.Errorf("setting output_flag failed: %w", err)
	}
	if limit > 0 {
		if err := raw.SetFloat64Option("time_limit", limit.Seconds()); err != nil {
			return nil, fmt.Errorf("setting time_limit failed: %w", err)
		}
	}
	if params.RelativeGap > 0 {
		if err := raw.SetFloat64Option("mip_rel_gap", params.RelativeGap); err != nil {
			return nil, fmt.Errorf("setting mip_rel_gap failed: %w", err)
		}
	}
	if params.Threads > 0 {
		if err := raw.SetIntOption("threads", params.Threads); err != nil {
			return nil, fmt.Errorf("setting threads failed: %w", err)
		}
	}
	if params.RandomSeed != 0 {
		if err := raw.SetIntOption("random_seed", params.RandomSeed); err != nil {
			return nil, fmt.Errorf("setting random_seed failed: %w", err)
		}
	}

	log.V(1).Infof("solving %q: %d vars, %d constraints, %d nonzeros, time limit %v",
		m.Name, m.NumVars(), m.NumConstraints(), m.NumNonzeros(), limit)
	start := time.Now()
	sol, err := raw.Solve()
	if err != nil {
		return nil, fmt.Errorf("HiGHS failed on model %q: %w", m.Name, err)
	}

	res := &Response{
		SolverStatus: sol.Status.String(),
		WallTime:     time.Since(start),
	}
	switch sol.Status {
	case highs.Optimal:
		res.Status = Optimal
	case highs.Infeasible:
		res.Status = Infeasible
	case highs.UnboundedOrInfeasible:
		// Every column is bounded, so the model cannot be unbounded.
		res.Status = Infeasible
	case highs.Unbounded:
		res.Status = Unbounded
	case highs.TimeLimit:
		res.Status = TimeLimit
		if m.isFeasible(sol.ColumnPrimal, feasibilityTol) {
			res.Status = Feasible
		}
	default:
		res.Status = Unknown
	}
	if res.Status.HasSolution() {
		res.Values = append([]float64(nil), sol.ColumnPrimal...)
		// HiGHS reports the objective including the offset.
		res.Objective = sol.Objective
	}
	log.V(1).Infof("solved %q: status %v (HiGHS %v), objective %v in %v",
		m.Name, res.Status, res.SolverStatus, res.Objective, res.WallTime)

	return res, nil
}

// SolutionBooleanValue returns the value of BoolVar `bv` in the response. Values
// above 0.5 count as true to absorb the solver's integrality tolerance.
func SolutionBooleanValue(r *Response, bv BoolVar) bool {
	return bv.evaluateSolutionValue(r) > 0.5
}

// SolutionValue returns the value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) float64 {
	return la.evaluateSolutionValue(r)
}
