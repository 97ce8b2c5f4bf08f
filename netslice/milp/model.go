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
	"math"

	"github.com/lanl/highs"
)

// Term is one weighted column of a constraint row.
type Term struct {
	Col   int
	Coeff float64
}

// Model is a binary integer linear program in row form. All columns are binary.
type Model struct {
	Name     string
	Maximize bool
	Offset   float64

	ColCosts []float64
	ColLower []float64
	ColUpper []float64
	VarNames []string

	RowLower []float64
	RowUpper []float64
	Rows     [][]Term
	RowNames []string
}

// NumVars returns the number of columns of the model.
func (m *Model) NumVars() int {
	return len(m.ColLower)
}

// NumConstraints returns the number of rows of the model.
func (m *Model) NumConstraints() int {
	return len(m.RowLower)
}

// NumNonzeros returns the number of nonzero coefficients in the constraint matrix.
func (m *Model) NumNonzeros() int {
	n := 0
	for _, r := range m.Rows {
		n += len(r)
	}
	return n
}

// ObjectiveValue evaluates the objective at `values`.
func (m *Model) ObjectiveValue(values []float64) float64 {
	obj := m.Offset
	for j, c := range m.ColCosts {
		obj += c * values[j]
	}
	return obj
}

// RowActivity returns the value of row `i` at `values`.
func (m *Model) RowActivity(i int, values []float64) float64 {
	var a float64
	for _, t := range m.Rows[i] {
		a += t.Coeff * values[t.Col]
	}
	return a
}

// isFeasible reports whether `values` is integral and satisfies every bound and row
// within `tol`.
func (m *Model) isFeasible(values []float64, tol float64) bool {
	if len(values) != m.NumVars() {
		return false
	}
	for j, v := range values {
		if v < m.ColLower[j]-tol || v > m.ColUpper[j]+tol {
			return false
		}
		if math.Abs(v-math.Round(v)) > tol {
			return false
		}
	}
	for i := range m.Rows {
		a := m.RowActivity(i, values)
		if a < m.RowLower[i]-tol || a > m.RowUpper[i]+tol {
			return false
		}
	}
	return true
}

// highsModel converts the model to the high-level HiGHS representation.
func (m *Model) highsModel() *highs.Model {
	hm := &highs.Model{
		Maximize: m.Maximize,
		Offset:   m.Offset,
		ColCosts: append([]float64(nil), m.ColCosts...),
		ColLower: append([]float64(nil), m.ColLower...),
		ColUpper: append([]float64(nil), m.ColUpper...),
		RowLower: append([]float64(nil), m.RowLower...),
		RowUpper: append([]float64(nil), m.RowUpper...),
		VarTypes: make([]highs.VariableType, m.NumVars()),
	}
	for j := range hm.VarTypes {
		hm.VarTypes[j] = highs.IntegerType
	}
	hm.ConstMatrix = make([]highs.Nonzero, 0, m.NumNonzeros())
	for i, r := range m.Rows {
		for _, t := range r {
			hm.ConstMatrix = append(hm.ConstMatrix, highs.Nonzero{Row: i, Col: t.Col, Val: t.Coeff})
		}
	}
	return hm
}
