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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrRelaxationInfeasible is returned by RelaxationBound when even the linear relaxation
// has no solution, which proves the integer model infeasible.
var ErrRelaxationInfeasible = errors.New("linear relaxation is infeasible")

const simplexTol = 1e-10

// RelaxationBound solves the linear relaxation of `m` (binary columns relaxed to [0, 1])
// and returns its optimal objective. For a maximization model this is an upper bound on
// the integer optimum, for a minimization model a lower bound.
//
// The relaxation is built densely and is meant for diagnostics on small models.
func RelaxationBound(m *Model) (float64, error) {
	n := m.NumVars()
	if n == 0 {
		return m.Offset, nil
	}

	// minimize c'x subject to G x <= h, with the sign of c flipped for maximization.
	c := make([]float64, n)
	for j, cost := range m.ColCosts {
		if m.Maximize {
			cost = -cost
		}
		c[j] = cost
	}

	var gRows [][]float64
	var h []float64
	addRow := func(terms []Term, sign, rhs float64) {
		row := make([]float64, n)
		for _, t := range terms {
			row[t.Col] += sign * t.Coeff
		}
		gRows = append(gRows, row)
		h = append(h, sign*rhs)
	}
	for i, terms := range m.Rows {
		if !math.IsInf(m.RowUpper[i], 1) {
			addRow(terms, 1, m.RowUpper[i])
		}
		if !math.IsInf(m.RowLower[i], -1) {
			addRow(terms, -1, m.RowLower[i])
		}
	}
	for j := 0; j < n; j++ {
		col := []Term{{Col: j, Coeff: 1}}
		addRow(col, 1, m.ColUpper[j])
		addRow(col, -1, m.ColLower[j])
	}

	g := mat.NewDense(len(gRows), n, nil)
	for i, row := range gRows {
		g.SetRow(i, row)
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	opt, _, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, fmt.Errorf("model %q: %w", m.Name, ErrRelaxationInfeasible)
	case err != nil:
		return 0, fmt.Errorf("simplex on relaxation of %q failed: %w", m.Name, err)
	}

	if m.Maximize {
		opt = -opt
	}
	return opt + m.Offset, nil
}
