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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/netslice/slicealloc/netslice/milp"
)

// checkTol absorbs floating point noise when verifying a result.
const checkTol = 1e-6

// Allocation is one served triple and the bandwidth it contributes.
type Allocation struct {
	Key
	Bandwidth float64
}

// Result is the solved allocation of one Formulation.
type Result struct {
	Status       milp.Status
	SolverStatus string
	Objective    float64
	// Allocations is ordered by time slot, then slice, then link, in instance order.
	Allocations    []Allocation
	TotalBandwidth float64
	WallTime       time.Duration
	NumVars        int
	NumRows        int

	// Bound is the linear relaxation optimum when HasBound is set.
	Bound    float64
	HasBound bool

	selected map[Key]bool
}

// Selected reports whether triple `k` is served.
func (r *Result) Selected(k Key) bool {
	return r.selected[k]
}

// Gap returns the relative distance between the objective and the relaxation bound.
func (r *Result) Gap() (float64, bool) {
	if !r.HasBound || !r.Status.HasSolution() {
		return 0, false
	}
	if r.Bound == 0 {
		return 0, true
	}
	return (r.Bound - r.Objective) / math.Abs(r.Bound), true
}

// LinkUsage returns the bandwidth served per (link, time slot).
func (r *Result) LinkUsage() map[LinkSlot]float64 {
	usage := make(map[LinkSlot]float64)
	for _, a := range r.Allocations {
		usage[LinkSlot{Link: a.Link, TimeSlot: a.TimeSlot}] += a.Bandwidth
	}
	return usage
}

// AverageUtilization returns the served bandwidth over the capacity of all links
// summed over all time slots.
func (r *Result) AverageUtilization(inst *Instance) float64 {
	total := inst.TotalCapacity()
	if total == 0 {
		return 0
	}
	return r.TotalBandwidth / total
}

// PeakUtilization returns the highest served/capacity ratio of any (link, time slot)
// with positive capacity and the pair where it occurs.
func (r *Result) PeakUtilization(inst *Instance) (float64, LinkSlot) {
	var peak float64
	var at LinkSlot
	usage := r.LinkUsage()
	for _, t := range inst.TimeSlots {
		for _, l := range inst.Links {
			if l.Capacity <= 0 {
				continue
			}
			ls := LinkSlot{Link: l.Name, TimeSlot: t}
			if u := usage[ls] / l.Capacity; u > peak {
				peak, at = u, ls
			}
		}
	}
	return peak, at
}

// Check verifies that `r` respects every capacity and fairness constraint of `inst` and
// that the objective equals the bandwidth of the selected triples. Results without a
// solution are not checked.
func Check(inst *Instance, r *Result) error {
	if !r.Status.HasSolution() {
		return nil
	}

	var errs []error
	usage := r.LinkUsage()
	for _, l := range inst.Links {
		for _, t := range inst.TimeSlots {
			if u := usage[LinkSlot{Link: l.Name, TimeSlot: t}]; u > l.Capacity+checkTol {
				errs = append(errs, fmt.Errorf("link %s at T%d serves %v, capacity %v", l.Name, t, u, l.Capacity))
			}
		}
	}

	active := make(map[SliceSlot]int)
	for _, a := range r.Allocations {
		active[SliceSlot{Slice: a.Slice, TimeSlot: a.TimeSlot}]++
	}
	for _, s := range inst.Slices {
		for _, t := range inst.TimeSlots {
			ss := SliceSlot{Slice: s, TimeSlot: t}
			n := active[ss]
			switch inst.Fairness {
			case FairnessDemandCap:
				if b := inst.Budget[ss]; float64(n) > b+checkTol {
					errs = append(errs, fmt.Errorf("slice %s at T%d uses %d links, budget %v", s, t, n, b))
				}
			default:
				if n < 1 {
					errs = append(errs, fmt.Errorf("slice %s at T%d has no active link", s, t))
				}
			}
		}
	}

	var sum float64
	for _, a := range r.Allocations {
		sum += inst.weight(a.Key)
	}
	if math.Abs(sum-r.Objective) > checkTol*math.Max(1, math.Abs(sum)) {
		errs = append(errs, fmt.Errorf("objective %v differs from selected bandwidth %v", r.Objective, sum))
	}
	return errors.Join(errs...)
}
