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

// Package milp offers a small builder API for binary integer linear programs
// that are handed to the HiGHS solver.
//
// The `Builder` struct owns the model under construction and provides helper methods
// for adding Boolean variables, linear constraints and a linear objective.
// `BoolVar` is a reference to a column of the model. `LinearExpr` collects weighted
// variables and a constant offset and is used both for constraints and the objective.
package milp

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// ErrMixedModels holds the error when elements added to a model are different.
var ErrMixedModels = errors.New("elements are not part of the same model")

type (
	// VarIndex is the index of a variable (a column) in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint (a row) in the model.
	ConstrIndex int32
)

// LinearArgument provides an interface for BoolVar and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
	evaluateSolutionValue(r *Response) float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
	b     *Builder
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	return l.AddTerm(la, 1)
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// NumTerms returns the number of weighted variables in the expression, duplicates included.
func (l *LinearExpr) NumTerms() int {
	return len(l.varCoeffs)
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c, b: vc.b})
	}
	e.offset += l.offset * c
}

func (l *LinearExpr) evaluateSolutionValue(r *Response) float64 {
	result := l.offset
	for _, vc := range l.varCoeffs {
		result += r.Values[vc.ind] * vc.coeff
	}
	return result
}

// terms merges repeated variables and drops zero coefficients. The order of first
// appearance is kept so that the emitted rows are deterministic.
func (l *LinearExpr) terms() []Term {
	pos := make(map[VarIndex]int, len(l.varCoeffs))
	var ts []Term
	for _, vc := range l.varCoeffs {
		if i, ok := pos[vc.ind]; ok {
			ts[i].Coeff += vc.coeff
			continue
		}
		pos[vc.ind] = len(ts)
		ts = append(ts, Term{Col: int(vc.ind), Coeff: vc.coeff})
	}
	out := ts[:0]
	for _, t := range ts {
		if t.Coeff != 0 {
			out = append(out, t)
		}
	}
	return out
}

// BoolVar is a reference to a binary variable in the model.
type BoolVar struct {
	ind VarIndex
	cpb *Builder
}

// Name returns the name of the variable.
func (b BoolVar) Name() string {
	return b.cpb.m.VarNames[b.ind]
}

// Index returns the index of the variable.
func (b BoolVar) Index() VarIndex {
	return b.ind
}

// WithName sets the name of the variable.
func (b BoolVar) WithName(s string) BoolVar {
	b.cpb.m.VarNames[b.ind] = s
	return b
}

func (b BoolVar) addToLinearExpr(e *LinearExpr, c float64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: b.ind, coeff: c, b: b.cpb})
}

func (b BoolVar) evaluateSolutionValue(r *Response) float64 {
	return r.Values[b.ind]
}

// Constraint is a reference to a linear constraint in the model.
type Constraint struct {
	ind ConstrIndex
	cpb *Builder
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.cpb.m.RowNames[c.ind] = s
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.cpb.m.RowNames[c.ind]
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Builder accumulates variables, constraints and the objective of a model.
type Builder struct {
	m *Model
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new Builder for a model called `name`.
func NewBuilder(name string) *Builder {
	return &Builder{m: &Model{Name: name}}
}

// checkExprAndSetErrorf returns true if every variable of `e` was created by `cp`.
// If not, an error with the error message `format` is set on `cp` if `cp.err`
// is nil.
func (cp *Builder) checkExprAndSetErrorf(e *LinearExpr, format string, a ...any) bool {
	for _, vc := range e.varCoeffs {
		if vc.b == cp {
			continue
		}
		args := make([]any, len(a)+1)
		copy(args, a)
		args[len(a)] = ErrMixedModels
		err := fmt.Errorf(format+": %w", args...)
		log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
		if cp.err == nil {
			cp.err = err
		}
		return false
	}
	return true
}

// NewBoolVar creates a new binary variable in the model.
func (cp *Builder) NewBoolVar() BoolVar {
	boolVar := BoolVar{cpb: cp, ind: VarIndex(len(cp.m.ColLower))}

	cp.m.ColLower = append(cp.m.ColLower, 0)
	cp.m.ColUpper = append(cp.m.ColUpper, 1)
	cp.m.ColCosts = append(cp.m.ColCosts, 0)
	cp.m.VarNames = append(cp.m.VarNames, "")

	return boolVar
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`. Infinite bounds
// are allowed on either side.
func (cp *Builder) AddLinearConstraint(expr LinearArgument, lb, ub float64) Constraint {
	le := NewLinearExpr().Add(expr)
	ct := Constraint{cpb: cp, ind: ConstrIndex(len(cp.m.RowLower))}
	if !cp.checkExprAndSetErrorf(le, "invalid expression added to constraint %v", ct.ind) {
		return ct
	}

	// The constant offset is moved to the bounds, infinities stay infinite.
	cp.m.RowLower = append(cp.m.RowLower, lb-le.offset)
	cp.m.RowUpper = append(cp.m.RowUpper, ub-le.offset)
	cp.m.Rows = append(cp.m.Rows, le.terms())
	cp.m.RowNames = append(cp.m.RowNames, "")

	return ct
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (cp *Builder) AddLessOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	expr := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return cp.AddLinearConstraint(expr, math.Inf(-1), 0)
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (cp *Builder) AddGreaterOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	expr := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return cp.AddLinearConstraint(expr, 0, math.Inf(1))
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (cp *Builder) AddEquality(lhs LinearArgument, rhs LinearArgument) Constraint {
	expr := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return cp.AddLinearConstraint(expr, 0, 0)
}

func (cp *Builder) setObjective(obj LinearArgument, maximize bool) {
	o := NewLinearExpr().Add(obj)
	if !cp.checkExprAndSetErrorf(o, "invalid expression set as objective") {
		return
	}

	for i := range cp.m.ColCosts {
		cp.m.ColCosts[i] = 0
	}
	for _, t := range o.terms() {
		cp.m.ColCosts[t.Col] = t.Coeff
	}
	cp.m.Offset = o.offset
	cp.m.Maximize = maximize
}

// Minimize sets a linear minimization objective.
func (cp *Builder) Minimize(obj LinearArgument) {
	cp.setObjective(obj, false)
}

// Maximize sets a linear maximization objective.
func (cp *Builder) Maximize(obj LinearArgument) {
	cp.setObjective(obj, true)
}

// Model returns the built model. The model returned is a pointer to the model in Builder,
// and if modified, future calls to the Builder API can result in an invalid model.
//
// Model returns an error when invalid parameters have been used during model building (e.g.
// passing variables from other builders).
func (cp *Builder) Model() (*Model, error) {
	if cp.err != nil {
		return nil, cp.err
	}
	return cp.m, nil
}
