package sat

import (
	"fmt"
	"math"
)

// Bound sentinels for constraints that are only bounded on one side.
// They are kept well away from the int64 limits so that sums of bounds
// never overflow during propagation.
const (
	NoLowerBound int64 = math.MinInt64 / 4
	NoUpperBound int64 = math.MaxInt64 / 4
)

// IntVar identifies a decision variable inside a Model.
type IntVar int

// Literal references a boolean variable, optionally negated.
// A boolean variable is an IntVar with domain [0, 1].
type Literal struct {
	Var     IntVar
	Negated bool
}

// Lit returns the positive literal for the variable.
func (v IntVar) Lit() Literal {
	return Literal{Var: v}
}

// Not returns the negated literal for the variable.
func (v IntVar) Not() Literal {
	return Literal{Var: v, Negated: true}
}

// Term is a single coefficient*variable product inside a linear expression.
type Term struct {
	Var  IntVar
	Coef int64
}

// Constraint is a linear constraint of the form
//
//	lo <= sum(coef_i * var_i) <= hi
//
// optionally gated by enforcement literals: the constraint only has to hold
// when every enforcement literal is true. This is a one-directional
// implication - nothing forces the literals true when the constraint happens
// to hold, which is exactly the shape indicator constraints need.
type Constraint struct {
	terms   []Term
	lo, hi  int64
	enforce []Literal
}

// OnlyEnforceIf gates the constraint on the given literals. It returns the
// constraint so calls can be chained onto AddLinear.
func (c *Constraint) OnlyEnforceIf(lits ...Literal) *Constraint {
	c.enforce = append(c.enforce, lits...)
	return c
}

// Model is a bounded-integer linear program: variables with finite domains,
// linear constraints over them, and a linear maximization objective.
// A Model is built once and is read-only during solving.
type Model struct {
	names     []string
	lo, hi    []int64
	cons      []*Constraint
	objective []Term
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewIntVar adds an integer variable with the inclusive domain [lo, hi].
func (m *Model) NewIntVar(lo, hi int64, name string) IntVar {
	if lo > hi {
		panic(fmt.Sprintf("sat: variable %q has empty domain [%d, %d]", name, lo, hi))
	}
	m.names = append(m.names, name)
	m.lo = append(m.lo, lo)
	m.hi = append(m.hi, hi)
	return IntVar(len(m.names) - 1)
}

// NewBoolVar adds a boolean variable (an integer variable over [0, 1]).
func (m *Model) NewBoolVar(name string) IntVar {
	return m.NewIntVar(0, 1, name)
}

// AddLinear adds the constraint lo <= sum(terms) <= hi.
// Use NoLowerBound / NoUpperBound for one-sided constraints.
func (m *Model) AddLinear(terms []Term, lo, hi int64) *Constraint {
	c := &Constraint{terms: terms, lo: lo, hi: hi}
	m.cons = append(m.cons, c)
	return c
}

// AddFixed pins a variable to a single value.
func (m *Model) AddFixed(v IntVar, value int64) *Constraint {
	return m.AddLinear([]Term{{Var: v, Coef: 1}}, value, value)
}

// Maximize sets the objective to maximize sum(terms).
func (m *Model) Maximize(terms []Term) {
	m.objective = terms
}

// NumVars returns the number of variables in the model.
func (m *Model) NumVars() int {
	return len(m.names)
}

// NumConstraints returns the number of constraints in the model.
func (m *Model) NumConstraints() int {
	return len(m.cons)
}

// Name returns the name a variable was created with.
func (m *Model) Name(v IntVar) string {
	return m.names[v]
}
