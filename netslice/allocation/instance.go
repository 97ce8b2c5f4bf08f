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

// Package allocation formulates the assignment of network-slice bandwidth demand to
// links over discrete time slots as a binary integer program, solves it with HiGHS
// and reports the resulting allocation.
//
// One binary variable x[s,l,t] exists per (slice, link, time slot) triple. The model
// maximizes the served demand subject to one capacity constraint per (link, time slot)
// and one fairness constraint per (slice, time slot).
package allocation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReference is returned when demand or budget data names a slice, link or
	// time slot that is not part of the instance.
	ErrUnknownReference = errors.New("unknown slice, link or time slot")
	// ErrDuplicateName is returned when a slice, link or time slot is declared twice.
	ErrDuplicateName = errors.New("duplicate slice, link or time slot")
)

// Link is a transport path with a fixed capacity.
type Link struct {
	Name     string
	Capacity float64
}

// Key identifies one (slice, link, time slot) triple.
type Key struct {
	Slice    string
	Link     string
	TimeSlot int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/T%d", k.Slice, k.Link, k.TimeSlot)
}

// SliceSlot identifies one (slice, time slot) pair.
type SliceSlot struct {
	Slice    string
	TimeSlot int
}

// LinkSlot identifies one (link, time slot) pair.
type LinkSlot struct {
	Link     string
	TimeSlot int
}

// Demand maps triples to bandwidth. Missing entries are zero.
type Demand map[Key]float64

// Fairness selects the per-(slice, time slot) constraint family.
type Fairness int

const (
	// FairnessAtLeastOne requires every slice to be served on at least one link in every
	// time slot. The objective weighs each variable by its demand.
	FairnessAtLeastOne Fairness = iota
	// FairnessDemandCap caps the number of links a slice may use in a time slot by its
	// budget. The objective and the capacity rows count selected variables.
	FairnessDemandCap
)

var fairnessNames = map[Fairness]string{
	FairnessAtLeastOne: "at_least_one",
	FairnessDemandCap:  "demand_cap",
}

func (f Fairness) String() string {
	if n, ok := fairnessNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Fairness(%d)", int(f))
}

// ParseFairness parses the names returned by Fairness.String.
func ParseFairness(s string) (Fairness, error) {
	for f, n := range fairnessNames {
		if n == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown fairness %q, want one of at_least_one, demand_cap", s)
}

// Instance is the immutable input of one run.
type Instance struct {
	Name string
	// Unit labels bandwidth figures in reports, e.g. "Mbps".
	Unit      string
	Slices    []string
	Links     []Link
	TimeSlots []int
	Demand    Demand
	// Budget is the per-(slice, time slot) right-hand side of FairnessDemandCap rows.
	Budget   map[SliceSlot]float64
	Fairness Fairness
}

// Capacity returns the capacity of link `name`.
func (inst *Instance) Capacity(name string) (float64, bool) {
	for _, l := range inst.Links {
		if l.Name == name {
			return l.Capacity, true
		}
	}
	return 0, false
}

// TotalCapacity returns the sum of all link capacities over all time slots.
func (inst *Instance) TotalCapacity() float64 {
	var c float64
	for _, l := range inst.Links {
		c += l.Capacity
	}
	return c * float64(len(inst.TimeSlots))
}

// weight is the coefficient of x[k] in the objective and in its capacity row.
func (inst *Instance) weight(k Key) float64 {
	if inst.Fairness == FairnessDemandCap {
		return 1
	}
	return inst.Demand[k]
}

// Validate checks that names are unique and that demand and budget entries only
// reference declared slices, links and time slots.
func (inst *Instance) Validate() error {
	slices := make(map[string]bool, len(inst.Slices))
	for _, s := range inst.Slices {
		if slices[s] {
			return fmt.Errorf("slice %q: %w", s, ErrDuplicateName)
		}
		slices[s] = true
	}
	links := make(map[string]bool, len(inst.Links))
	for _, l := range inst.Links {
		if links[l.Name] {
			return fmt.Errorf("link %q: %w", l.Name, ErrDuplicateName)
		}
		links[l.Name] = true
	}
	slots := make(map[int]bool, len(inst.TimeSlots))
	for _, t := range inst.TimeSlots {
		if slots[t] {
			return fmt.Errorf("time slot %d: %w", t, ErrDuplicateName)
		}
		slots[t] = true
	}
	for k := range inst.Demand {
		if !slices[k.Slice] || !links[k.Link] || !slots[k.TimeSlot] {
			return fmt.Errorf("demand entry %v: %w", k, ErrUnknownReference)
		}
	}
	for ss := range inst.Budget {
		if !slices[ss.Slice] || !slots[ss.TimeSlot] {
			return fmt.Errorf("budget entry %s/T%d: %w", ss.Slice, ss.TimeSlot, ErrUnknownReference)
		}
	}
	return nil
}
