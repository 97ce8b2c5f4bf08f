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
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netslice/slicealloc/netslice/allocation"
)

// File is the YAML layout of a scenario.
//
//	name: campus
//	unit: Mbps
//	fairness: at_least_one
//	slices: [video, iot]
//	links:
//	  - {name: fiber, capacity: 1000}
//	time_slots: [1, 2]
//	demand:
//	  - {slice: video, link: fiber, slot: 1, bandwidth: 400}
//	budget:
//	  - {slice: video, slot: 1, links: 2}
type File struct {
	Name      string        `yaml:"name"`
	Unit      string        `yaml:"unit,omitempty"`
	Fairness  string        `yaml:"fairness,omitempty"`
	Slices    []string      `yaml:"slices"`
	Links     []LinkEntry   `yaml:"links"`
	TimeSlots []int         `yaml:"time_slots"`
	Demand    []DemandEntry `yaml:"demand,omitempty"`
	Budget    []BudgetEntry `yaml:"budget,omitempty"`
}

// LinkEntry declares one link.
type LinkEntry struct {
	Name     string  `yaml:"name"`
	Capacity float64 `yaml:"capacity"`
}

// DemandEntry is the bandwidth of one (slice, link, slot) triple.
type DemandEntry struct {
	Slice     string  `yaml:"slice"`
	Link      string  `yaml:"link"`
	Slot      int     `yaml:"slot"`
	Bandwidth float64 `yaml:"bandwidth"`
}

// BudgetEntry is the number of links a slice may use in one slot.
type BudgetEntry struct {
	Slice string  `yaml:"slice"`
	Slot  int     `yaml:"slot"`
	Links float64 `yaml:"links"`
}

// Load reads the scenario file at `path`.
func Load(path string) (*allocation.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	inst, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return inst, nil
}

// Parse decodes a YAML scenario. Unknown fields are rejected. References between the
// sections are checked when the instance is formulated.
func Parse(r io.Reader) (*allocation.Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sf File
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	return sf.Instance()
}

// Instance converts the file layout into an allocation instance.
func (sf *File) Instance() (*allocation.Instance, error) {
	if sf.Name == "" {
		return nil, errors.New("scenario without name")
	}
	inst := &allocation.Instance{
		Name:      sf.Name,
		Unit:      sf.Unit,
		Slices:    sf.Slices,
		TimeSlots: sf.TimeSlots,
		Demand:    make(allocation.Demand, len(sf.Demand)),
	}
	if inst.Unit == "" {
		inst.Unit = "Mbps"
	}
	if sf.Fairness != "" {
		fairness, err := allocation.ParseFairness(sf.Fairness)
		if err != nil {
			return nil, err
		}
		inst.Fairness = fairness
	}
	for _, l := range sf.Links {
		inst.Links = append(inst.Links, allocation.Link{Name: l.Name, Capacity: l.Capacity})
	}
	for _, d := range sf.Demand {
		k := allocation.Key{Slice: d.Slice, Link: d.Link, TimeSlot: d.Slot}
		if _, ok := inst.Demand[k]; ok {
			return nil, fmt.Errorf("demand for %v given twice", k)
		}
		inst.Demand[k] = d.Bandwidth
	}
	if len(sf.Budget) > 0 {
		inst.Budget = make(map[allocation.SliceSlot]float64, len(sf.Budget))
		for _, b := range sf.Budget {
			ss := allocation.SliceSlot{Slice: b.Slice, TimeSlot: b.Slot}
			if _, ok := inst.Budget[ss]; ok {
				return nil, fmt.Errorf("budget for %s/T%d given twice", b.Slice, b.Slot)
			}
			inst.Budget[ss] = b.Links
		}
	}
	return inst, nil
}
