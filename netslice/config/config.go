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

// Package config resolves the settings of an allocation run from defaults, an
// optional config file, SLICEALLOC_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/netslice/slicealloc/netslice/allocation"
	"github.com/netslice/slicealloc/netslice/milp"
	"github.com/netslice/slicealloc/netslice/scenario"
)

// EnvPrefix is prepended to every key when looking up environment variables,
// e.g. SLICEALLOC_TIME_LIMIT.
const EnvPrefix = "SLICEALLOC"

// Keys. Command-line flags carry the same names.
const (
	KeyScenario     = "scenario"
	KeyScenarioFile = "scenario_file"
	KeyFairness     = "fairness"
	KeyTimeLimit    = "time_limit"
	KeyGap          = "gap"
	KeyThreads      = "threads"
	KeyRandomSeed   = "random_seed"
	KeyFormat       = "format"
	KeyVerify       = "verify"
	KeyLPBound      = "lp_bound"
	KeyMetricsFile  = "metrics_file"
	KeySolverLog    = "solver_log"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings of one run.
type Config struct {
	Scenario     string
	ScenarioFile string
	// Fairness overrides the scenario's fairness rule when set.
	Fairness    string
	TimeLimit   time.Duration
	RelativeGap float64
	Threads     int
	RandomSeed  int
	Format      string
	Verify      bool
	LPBound     bool
	MetricsFile string
	SolverLog   bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyScenario, scenario.Default)
	v.SetDefault(KeyScenarioFile, "")
	v.SetDefault(KeyFairness, "")
	v.SetDefault(KeyTimeLimit, 30*time.Second)
	v.SetDefault(KeyGap, 0.0)
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyRandomSeed, 0)
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeyVerify, false)
	v.SetDefault(KeyLPBound, false)
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeySolverLog, false)
}

// Load resolves the configuration. `path` names an optional config file in any
// format viper understands. Only flags explicitly set on `fs` override the other
// sources; fs may be nil.
func Load(path string, fs *flag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if fs != nil {
		fs.Visit(func(f *flag.Flag) {
			if isKey(f.Name) {
				v.Set(f.Name, f.Value.String())
			}
		})
	}

	c := &Config{
		Scenario:     v.GetString(KeyScenario),
		ScenarioFile: v.GetString(KeyScenarioFile),
		Fairness:     v.GetString(KeyFairness),
		TimeLimit:    v.GetDuration(KeyTimeLimit),
		RelativeGap:  v.GetFloat64(KeyGap),
		Threads:      v.GetInt(KeyThreads),
		RandomSeed:   v.GetInt(KeyRandomSeed),
		Format:       v.GetString(KeyFormat),
		Verify:       v.GetBool(KeyVerify),
		LPBound:      v.GetBool(KeyLPBound),
		MetricsFile:  v.GetString(KeyMetricsFile),
		SolverLog:    v.GetBool(KeySolverLog),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func isKey(name string) bool {
	switch name {
	case KeyScenario, KeyScenarioFile, KeyFairness, KeyTimeLimit, KeyGap, KeyThreads,
		KeyRandomSeed, KeyFormat, KeyVerify, KeyLPBound, KeyMetricsFile, KeySolverLog:
		return true
	}
	return false
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Scenario == "" && c.ScenarioFile == "" {
		errs = append(errs, errors.New("no scenario given"))
	}
	if c.Fairness != "" {
		if _, err := allocation.ParseFairness(c.Fairness); err != nil {
			errs = append(errs, err)
		}
	}
	if c.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", KeyTimeLimit, c.TimeLimit))
	}
	if c.RelativeGap < 0 || c.RelativeGap >= 1 {
		errs = append(errs, fmt.Errorf("%s must be in [0, 1), got %v", KeyGap, c.RelativeGap))
	}
	if c.Threads < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyThreads, c.Threads))
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", KeyFormat, FormatText, FormatJSON, c.Format))
	}
	return errors.Join(errs...)
}

// SolverParameters returns the solver settings of the run.
func (c *Config) SolverParameters() *milp.Parameters {
	return &milp.Parameters{
		TimeLimit:   c.TimeLimit,
		RelativeGap: c.RelativeGap,
		Threads:     c.Threads,
		RandomSeed:  c.RandomSeed,
		Verbose:     c.SolverLog,
	}
}
