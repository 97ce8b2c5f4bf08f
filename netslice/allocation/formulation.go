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
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/netslice/slicealloc/netslice/milp"
)

// Formulation is the binary program built for one Instance.
type Formulation struct {
	inst  *Instance
	model *milp.Model
	vars  map[Key]milp.BoolVar
	// keys lists the triples in variable creation order.
	keys []Key
}

// Formulate builds the model for `inst`: one binary variable per (slice, link, time
// slot), a maximization objective, one capacity constraint per (link, time slot) and one
// fairness constraint per (slice, time slot). Slices, links and time slots are visited in
// input order, so identical instances yield identical models.
//
// Demand values are not checked: negative demand or capacities that cannot be met are
// passed to the solver, which reports infeasibility.
func Formulate(inst *Instance) (*Formulation, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("instance %q: %w", inst.Name, err)
	}

	model := milp.NewBuilder(inst.Name)
	f := &Formulation{
		inst: inst,
		vars: make(map[Key]milp.BoolVar, len(inst.Slices)*len(inst.Links)*len(inst.TimeSlots)),
	}

	// x[s,l,t] is true if the demand of slice s on link l at time t is served.
	for _, s := range inst.Slices {
		for _, l := range inst.Links {
			for _, t := range inst.TimeSlots {
				k := Key{Slice: s, Link: l.Name, TimeSlot: t}
				f.vars[k] = model.NewBoolVar().WithName(fmt.Sprintf("x_%s_%s_T%d", s, l.Name, t))
				f.keys = append(f.keys, k)
			}
		}
	}

	objective := milp.NewLinearExpr()
	for _, k := range f.keys {
		objective.AddTerm(f.vars[k], inst.weight(k))
	}
	model.Maximize(objective)

	for _, l := range inst.Links {
		for _, t := range inst.TimeSlots {
			usage := milp.NewLinearExpr()
			for _, s := range inst.Slices {
				k := Key{Slice: s, Link: l.Name, TimeSlot: t}
				usage.AddTerm(f.vars[k], inst.weight(k))
			}
			model.AddLessOrEqual(usage, milp.NewConstant(l.Capacity)).
				WithName(fmt.Sprintf("Capacity_%s_T%d", l.Name, t))
		}
	}

	for _, s := range inst.Slices {
		for _, t := range inst.TimeSlots {
			active := milp.NewLinearExpr()
			for _, l := range inst.Links {
				active.Add(f.vars[Key{Slice: s, Link: l.Name, TimeSlot: t}])
			}
			switch inst.Fairness {
			case FairnessDemandCap:
				budget := inst.Budget[SliceSlot{Slice: s, TimeSlot: t}]
				model.AddLessOrEqual(active, milp.NewConstant(budget)).
					WithName(fmt.Sprintf("Demand_%s_T%d", s, t))
			default:
				model.AddGreaterOrEqual(active, milp.NewConstant(1)).
					WithName(fmt.Sprintf("Fairness_%s_T%d", s, t))
			}
		}
	}

	m, err := model.Model()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate the model for %q: %w", inst.Name, err)
	}
	f.model = m
	log.V(1).Infof("formulated %q with %v fairness: %d variables, %d constraints",
		inst.Name, inst.Fairness, m.NumVars(), m.NumConstraints())

	return f, nil
}

// Instance returns the input the formulation was built from.
func (f *Formulation) Instance() *Instance {
	return f.inst
}

// Model returns the assembled model.
func (f *Formulation) Model() *milp.Model {
	return f.model
}

// Var returns the decision variable of triple `k`.
func (f *Formulation) Var(k Key) (milp.BoolVar, bool) {
	v, ok := f.vars[k]
	return v, ok
}

// Keys returns the triples in variable creation order.
func (f *Formulation) Keys() []Key {
	return append([]Key(nil), f.keys...)
}

// RelaxationBound returns the optimum of the linear relaxation, an upper bound on the
// objective of any allocation.
func (f *Formulation) RelaxationBound() (float64, error) {
	return milp.RelaxationBound(f.model)
}

// Solve hands the model to the solver and converts the response into a Result. Only
// solver or plumbing failures are returned as errors; infeasibility is a status.
func (f *Formulation) Solve(ctx context.Context, params *milp.Parameters) (*Result, error) {
	resp, err := milp.Solve(ctx, f.model, params)
	if err != nil {
		return nil, fmt.Errorf("failed to solve %q: %w", f.inst.Name, err)
	}

	res := &Result{
		Status:       resp.Status,
		SolverStatus: resp.SolverStatus,
		WallTime:     resp.WallTime,
		NumVars:      f.model.NumVars(),
		NumRows:      f.model.NumConstraints(),
	}
	if !resp.Status.HasSolution() {
		return res, nil
	}

	res.Objective = resp.Objective
	res.selected = make(map[Key]bool)
	for _, t := range f.inst.TimeSlots {
		for _, s := range f.inst.Slices {
			for _, l := range f.inst.Links {
				k := Key{Slice: s, Link: l.Name, TimeSlot: t}
				if !milp.SolutionBooleanValue(resp, f.vars[k]) {
					continue
				}
				res.selected[k] = true
				bw := f.inst.weight(k)
				res.Allocations = append(res.Allocations, Allocation{Key: k, Bandwidth: bw})
				res.TotalBandwidth += bw
			}
		}
	}
	return res, nil
}
