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
	"math"

	"github.com/netslice/slicealloc/netslice/allocation"
)

// Hourly demand of each slice in Mbps, hour 1 first.
var hourlyDemand = map[string][24]float64{
	// Mobile broadband peaks during commute hours.
	"eMBB": {200, 150, 100, 80, 100, 300, 800, 1200, 1000, 600, 500, 600,
		700, 650, 700, 900, 1500, 1800, 1400, 900, 600, 400, 300, 250},
	// Low-latency traffic of autonomous vehicles follows rush hours.
	"uRLLC": {50, 30, 20, 20, 40, 150, 400, 600, 500, 300, 250, 280,
		300, 280, 300, 350, 700, 800, 600, 350, 200, 120, 80, 60},
	"mMTC": {100, 95, 90, 88, 90, 100, 110, 120, 115, 105, 100, 105,
		110, 108, 110, 115, 125, 130, 120, 110, 105, 102, 100, 98},
	"PublicSafety": {50, 50, 50, 50, 50, 60, 70, 80, 75, 65, 60, 65,
		70, 68, 70, 75, 85, 90, 85, 75, 65, 60, 55, 50},
	// Surveillance video is heavier at night.
	"VideoSurveillance": {300, 350, 400, 450, 400, 350, 280, 250, 230, 220, 210, 215,
		220, 215, 220, 240, 260, 280, 300, 350, 380, 360, 340, 320},
}

// linkShare is the fraction of a slice's hourly demand offered to each link. Links
// missing from a slice's row carry no demand for it.
var linkShare = map[string]map[string]float64{
	"eMBB":              {"fiber": 0.5, "mmwave": 0.3, "sub6ghz": 0.2},
	"uRLLC":             {"fiber": 0.6, "mmwave": 0.4},
	"mMTC":              {"fiber": 0.3, "microwave": 0.2, "mmwave": 0.2, "sub6ghz": 0.3},
	"PublicSafety":      {"fiber": 0.7, "microwave": 0.3},
	"VideoSurveillance": {"fiber": 0.6, "sub6ghz": 0.4},
}

// SmartCity is five service slices on four radio and wired links over a day of hourly
// time slots. Demand per link is the hourly demand times the link share, truncated to
// whole Mbps.
func SmartCity() *allocation.Instance {
	inst := &allocation.Instance{
		Name:   "smart_city",
		Unit:   "Mbps",
		Slices: []string{"eMBB", "uRLLC", "mMTC", "PublicSafety", "VideoSurveillance"},
		Links: []allocation.Link{
			{Name: "fiber", Capacity: 10000},
			{Name: "microwave", Capacity: 2000},
			{Name: "mmwave", Capacity: 5000},
			{Name: "sub6ghz", Capacity: 3000},
		},
		Demand: allocation.Demand{},
	}
	for hour := 1; hour <= 24; hour++ {
		inst.TimeSlots = append(inst.TimeSlots, hour)
		for _, s := range inst.Slices {
			for link, share := range linkShare[s] {
				k := allocation.Key{Slice: s, Link: link, TimeSlot: hour}
				inst.Demand[k] = math.Trunc(hourlyDemand[s][hour-1] * share)
			}
		}
	}
	return inst
}
