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

// Package metrics exports solve statistics of an allocation run as Prometheus
// collectors, so runs driven from cron can be scraped through a node-exporter
// textfile.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netslice/slicealloc/netslice/allocation"
)

const namespace = "slicealloc"

// Collector bundles the metrics of allocation runs.
type Collector struct {
	gatherer prometheus.Gatherer

	Variables     *prometheus.GaugeVec
	Constraints   *prometheus.GaugeVec
	SolveDuration *prometheus.HistogramVec
	Solves        *prometheus.CounterVec
	Objective     *prometheus.GaugeVec
	LinkUsage     *prometheus.GaugeVec
}

// NewCollector registers the collectors against `reg`, defaulting to the global
// registry when nil. Registering twice on the same registry returns the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	variables, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_variables",
		Help:      "Number of binary allocation variables in the last formulated model.",
	}, []string{"scenario"}))
	if err != nil {
		return nil, err
	}
	constraints, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_constraints",
		Help:      "Number of linear constraints in the last formulated model.",
	}, []string{"scenario"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solve_duration_seconds",
		Help:      "Wall time spent in the MILP solver.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}, []string{"scenario"}))
	if err != nil {
		return nil, err
	}
	solves, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solves_total",
		Help:      "Number of solves, labeled by scenario and final status.",
	}, []string{"scenario", "status"}))
	if err != nil {
		return nil, err
	}
	objective, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "objective",
		Help:      "Objective value of the last solve with a solution.",
	}, []string{"scenario"}))
	if err != nil {
		return nil, err
	}
	usage, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_utilization_ratio",
		Help:      "Served demand over capacity per link and time slot.",
	}, []string{"scenario", "link", "timeslot"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Variables:     variables,
		Constraints:   constraints,
		SolveDuration: duration,
		Solves:        solves,
		Objective:     objective,
		LinkUsage:     usage,
	}, nil
}

// Record updates the collectors from one solve of `inst`.
func (c *Collector) Record(inst *allocation.Instance, r *allocation.Result) {
	if c == nil || r == nil {
		return
	}
	name := inst.Name
	c.Variables.WithLabelValues(name).Set(float64(r.NumVars))
	c.Constraints.WithLabelValues(name).Set(float64(r.NumRows))
	c.SolveDuration.WithLabelValues(name).Observe(r.WallTime.Seconds())
	c.Solves.WithLabelValues(name, r.Status.String()).Inc()
	if !r.Status.HasSolution() {
		return
	}
	c.Objective.WithLabelValues(name).Set(r.Objective)

	usage := r.LinkUsage()
	for _, t := range inst.TimeSlots {
		for _, l := range inst.Links {
			if l.Capacity <= 0 {
				continue
			}
			served := usage[allocation.LinkSlot{Link: l.Name, TimeSlot: t}]
			c.LinkUsage.WithLabelValues(name, l.Name, strconv.Itoa(t)).Set(served / l.Capacity)
		}
	}
}

// WriteTextfile writes every metric of the collector's registry to `path` in the
// text exposition format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
