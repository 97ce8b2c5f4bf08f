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

// The slicealloc command assigns network-slice bandwidth demand to links over
// time slots and prints the optimal allocation. Without arguments it solves the
// built-in "simple" scenario.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netslice/slicealloc/netslice/allocation"
	"github.com/netslice/slicealloc/netslice/config"
	"github.com/netslice/slicealloc/netslice/metrics"
	"github.com/netslice/slicealloc/netslice/scenario"
)

var (
	configFile = flag.String("config", "", "Optional config file (yaml, json or toml).")

	_ = flag.String(config.KeyScenario, scenario.Default, "Built-in scenario, one of "+strings.Join(scenario.Names(), ", ")+".")
	_ = flag.String(config.KeyScenarioFile, "", "YAML scenario file; takes precedence over -scenario.")
	_ = flag.String(config.KeyFairness, "", "Fairness rule overriding the scenario's: at_least_one or demand_cap.")
	_ = flag.Duration(config.KeyTimeLimit, 0, "Solver time limit.")
	_ = flag.Float64(config.KeyGap, 0, "Relative MIP gap at which the solver stops.")
	_ = flag.Int(config.KeyThreads, 0, "Solver threads, 0 for the solver default.")
	_ = flag.Int(config.KeyRandomSeed, 0, "Solver random seed.")
	_ = flag.String(config.KeyFormat, config.FormatText, "Report format: text or json.")
	_ = flag.Bool(config.KeyVerify, false, "Verify the allocation against capacity and fairness.")
	_ = flag.Bool(config.KeyLPBound, false, "Report the LP relaxation bound and the optimality gap.")
	_ = flag.String(config.KeyMetricsFile, "", "Write Prometheus metrics of the run to this textfile.")
	_ = flag.Bool(config.KeySolverLog, false, "Print the solver log.")
)

func loadInstance(cfg *config.Config) (*allocation.Instance, error) {
	var (
		inst *allocation.Instance
		err  error
	)
	if cfg.ScenarioFile != "" {
		inst, err = scenario.Load(cfg.ScenarioFile)
	} else {
		inst, err = scenario.Lookup(cfg.Scenario)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Fairness != "" {
		fairness, err := allocation.ParseFairness(cfg.Fairness)
		if err != nil {
			return nil, err
		}
		inst.Fairness = fairness
	}
	return inst, nil
}

// run solves the configured scenario and writes the report to w. A solve without
// solution is reported, not returned as an error.
func run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	inst, err := loadInstance(cfg)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	f, err := allocation.Formulate(inst)
	if err != nil {
		return fmt.Errorf("formulating %s: %w", inst.Name, err)
	}
	m := f.Model()
	log.V(1).Infof("Scenario %s: %d variables, %d constraints, %d nonzeros", inst.Name, m.NumVars(), m.NumConstraints(), m.NumNonzeros())

	res, err := f.Solve(ctx, cfg.SolverParameters())
	if err != nil {
		return fmt.Errorf("solving %s: %w", inst.Name, err)
	}
	log.V(1).Infof("Scenario %s solved: %v in %v", inst.Name, res.Status, res.WallTime)

	if cfg.LPBound {
		bound, err := f.RelaxationBound()
		if err != nil {
			log.Warningf("LP bound of %s unavailable: %v", inst.Name, err)
		} else {
			res.Bound, res.HasBound = bound, true
		}
	}
	if cfg.Verify {
		if err := allocation.Check(inst, res); err != nil {
			return fmt.Errorf("verifying %s: %w", inst.Name, err)
		}
	}

	switch cfg.Format {
	case config.FormatJSON:
		err = allocation.ReportJSON(w, inst, res)
	default:
		err = allocation.Report(w, inst, res)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if cfg.MetricsFile != "" {
		c, err := metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		c.Record(inst, res)
		if err := c.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	defer log.Flush()

	cfg, err := config.Load(*configFile, flag.CommandLine)
	if err != nil {
		log.Exitf("config.Load returned with error: %v", err)
	}

	// The solve is bounded by -time_limit; an interrupt kills the process.
	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		log.Exitf("run returned with error: %v", err)
	}
}
