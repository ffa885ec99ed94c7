package sat

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status reports how a solve run ended.
type Status int

const (
	// StatusUnknown means no solution was found and infeasibility was not
	// proved before the search was interrupted.
	StatusUnknown Status = iota

	// StatusOptimal means the search completed and proved no better
	// objective value exists.
	StatusOptimal

	// StatusFeasible means the time budget ran out before an optimality
	// proof; the returned assignment satisfies every constraint but may be
	// suboptimal.
	StatusFeasible

	// StatusInfeasible means the search completed and no satisfying
	// assignment exists.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// Options configures a solve run.
type Options struct {
	// TimeLimit bounds the wall-clock time of the search. Zero means no
	// limit (the search runs until it completes or the context is done).
	TimeLimit time.Duration

	// Workers is the number of parallel search workers. Workers explore the
	// same tree with different value orderings and share the incumbent.
	// Values below 1 mean a single worker.
	Workers int
}

// Stats carries counters from a solve run.
type Stats struct {
	Nodes   int64
	Elapsed time.Duration
	Workers int
}

// Result is the outcome of a solve run. Values are only meaningful when
// HasSolution reports true.
type Result struct {
	Status    Status
	Objective int64
	Stats     Stats

	values []int64
}

// HasSolution reports whether the result carries a full assignment.
func (r *Result) HasSolution() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}

// Value returns the solved value of a variable.
func (r *Result) Value(v IntVar) int64 {
	return r.values[v]
}

// BoolValue returns the truth value of a literal in the solved assignment.
func (r *Result) BoolValue(l Literal) bool {
	truth := r.values[l.Var] != 0
	if l.Negated {
		return !truth
	}
	return truth
}

// Solve runs a complete branch-and-bound search over the model, maximizing
// the objective. The search is exact: given enough time it either proves
// optimality or proves infeasibility. When interrupted by the time limit or
// the context it degrades to the best assignment found so far.
//
// Solve never returns an assignment that violates a constraint.
func Solve(ctx context.Context, m *Model, opts Options) *Result {
	start := time.Now()

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	// Objective coefficients by variable, for value ordering and bounding.
	objCoef := make([]int64, m.NumVars())
	for _, t := range m.objective {
		objCoef[t.Var] += t.Coef
	}

	// Branch on objective-bearing variables first: fixing them makes the
	// node's objective bound exact, so whole profiles that cannot beat the
	// incumbent are pruned before any of the remaining variables are
	// touched. The rest follow in creation order.
	order := make([]int, 0, m.NumVars())
	for v := 0; v < m.NumVars(); v++ {
		if objCoef[v] != 0 {
			order = append(order, v)
		}
	}
	for v := 0; v < m.NumVars(); v++ {
		if objCoef[v] == 0 {
			order = append(order, v)
		}
	}

	inc := &incumbent{best: math.MinInt64}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu         sync.Mutex
		complete   bool
		totalNodes int64
	)

	g, searchCtx := errgroup.WithContext(searchCtx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			s := &search{
				m:        m,
				objCoef:  objCoef,
				order:    order,
				inc:      inc,
				ctx:      searchCtx,
				deadline: deadline,
				lowFirst: w%2 == 1,
			}
			finished := s.run()

			mu.Lock()
			totalNodes += s.nodes
			if finished {
				complete = true
			}
			mu.Unlock()

			if finished {
				// One completed search is a full proof; stop the others.
				cancel()
			}
			return nil
		})
	}
	// Workers never return errors; Wait is only used as a barrier.
	_ = g.Wait()

	res := &Result{
		Stats: Stats{
			Nodes:   totalNodes,
			Elapsed: time.Since(start),
			Workers: workers,
		},
	}

	inc.mu.Lock()
	found := inc.found
	if found {
		res.Objective = inc.best
		res.values = slices.Clone(inc.values)
	}
	inc.mu.Unlock()

	switch {
	case complete && found:
		res.Status = StatusOptimal
	case complete:
		res.Status = StatusInfeasible
	case found:
		res.Status = StatusFeasible
	default:
		res.Status = StatusUnknown
	}
	return res
}

// incumbent is the best assignment found so far, shared between workers.
type incumbent struct {
	mu     sync.Mutex
	found  bool
	best   int64
	values []int64
}

// bound returns the objective value any new solution must strictly beat.
func (inc *incumbent) bound() int64 {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if !inc.found {
		return math.MinInt64
	}
	return inc.best
}

// offer records the assignment if it strictly improves on the incumbent.
func (inc *incumbent) offer(obj int64, values []int64) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if !inc.found || obj > inc.best {
		inc.found = true
		inc.best = obj
		inc.values = slices.Clone(values)
	}
}

// search is one worker's depth-first traversal of the branch tree.
type search struct {
	m        *Model
	objCoef  []int64
	order    []int
	inc      *incumbent
	ctx      context.Context
	deadline time.Time
	lowFirst bool
	nodes    int64
	stopped  bool
}

// run explores the whole tree. It returns true when the traversal completed,
// which makes the worker's result a proof (of optimality or infeasibility).
func (s *search) run() bool {
	lo := slices.Clone(s.m.lo)
	hi := slices.Clone(s.m.hi)
	if s.propagate(lo, hi) {
		s.branch(lo, hi)
	}
	return !s.stopped
}

func (s *search) interrupted() bool {
	if s.stopped {
		return true
	}
	if s.nodes&63 == 0 {
		if s.ctx.Err() != nil {
			s.stopped = true
		} else if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.stopped = true
		}
	}
	return s.stopped
}

func (s *search) branch(lo, hi []int64) {
	s.nodes++
	if s.interrupted() {
		return
	}

	// Prune subtrees that cannot strictly improve on the incumbent.
	if s.objectiveUpper(lo, hi) <= s.inc.bound() {
		return
	}

	// Pick the first unfixed variable in branch order.
	branchVar := -1
	for _, v := range s.order {
		if lo[v] < hi[v] {
			branchVar = v
			break
		}
	}

	// All variables fixed: propagation already verified every active
	// constraint, so this is a full solution.
	if branchVar == -1 {
		var obj int64
		for _, t := range s.m.objective {
			obj += t.Coef * lo[t.Var]
		}
		s.inc.offer(obj, lo)
		return
	}

	for _, val := range s.valueOrder(branchVar, lo[branchVar], hi[branchVar]) {
		childLo := slices.Clone(lo)
		childHi := slices.Clone(hi)
		childLo[branchVar] = val
		childHi[branchVar] = val
		if s.propagate(childLo, childHi) {
			s.branch(childLo, childHi)
		}
		if s.stopped {
			return
		}
	}
}

// valueOrder lists the candidate values for a variable, best-guess first:
// variables with positive objective weight try their maximum first so good
// incumbents appear early; everything else starts from the minimum, which
// keeps solutions free of gratuitous assignments.
func (s *search) valueOrder(v int, lo, hi int64) []int64 {
	descending := s.objCoef[v] > 0
	if s.lowFirst {
		descending = !descending
	}
	vals := make([]int64, 0, int(hi-lo+1))
	if descending {
		for val := hi; val >= lo; val-- {
			vals = append(vals, val)
		}
	} else {
		for val := lo; val <= hi; val++ {
			vals = append(vals, val)
		}
	}
	return vals
}

// objectiveUpper computes an optimistic bound on the objective value
// reachable within the given domains.
func (s *search) objectiveUpper(lo, hi []int64) int64 {
	var ub int64
	for _, t := range s.m.objective {
		if t.Coef > 0 {
			ub += t.Coef * hi[t.Var]
		} else {
			ub += t.Coef * lo[t.Var]
		}
	}
	return ub
}

type enforcement int

const (
	enfActive enforcement = iota
	enfInactive
	enfPending
)

// propagate runs bounds-consistency propagation to a fixpoint.
// It returns false when a conflict proves the current domains infeasible.
func (s *search) propagate(lo, hi []int64) bool {
	for {
		changed := false
		for _, c := range s.m.cons {
			state, unfixed := enforcementState(c, lo, hi)
			if state == enfInactive {
				continue
			}

			minSum, maxSum := sumBounds(c.terms, lo, hi)

			if state == enfPending {
				// The constraint cannot hold: the enforcement conjunction
				// must fail. Only sound to conclude anything when a single
				// literal is still open.
				if minSum > c.hi || maxSum < c.lo {
					if lit, ok := singleUnfixed(c, lo, hi, unfixed); ok {
						want := int64(0)
						if lit.Negated {
							want = 1
						}
						if want < lo[lit.Var] || want > hi[lit.Var] {
							return false
						}
						if lo[lit.Var] != want || hi[lit.Var] != want {
							lo[lit.Var] = want
							hi[lit.Var] = want
							changed = true
						}
					}
				}
				continue
			}

			// Active constraint.
			if minSum > c.hi || maxSum < c.lo {
				return false
			}

			for _, t := range c.terms {
				var contribMin, contribMax int64
				if t.Coef > 0 {
					contribMin = t.Coef * lo[t.Var]
					contribMax = t.Coef * hi[t.Var]
				} else {
					contribMin = t.Coef * hi[t.Var]
					contribMax = t.Coef * lo[t.Var]
				}
				restMin := minSum - contribMin
				restMax := maxSum - contribMax

				// Bounds on t.Coef * x.
				scaledLo := c.lo - restMax
				scaledHi := c.hi - restMin

				var newLo, newHi int64
				if t.Coef > 0 {
					newLo = ceilDiv(scaledLo, t.Coef)
					newHi = floorDiv(scaledHi, t.Coef)
				} else {
					newLo = ceilDiv(scaledHi, t.Coef)
					newHi = floorDiv(scaledLo, t.Coef)
				}

				if newLo > lo[t.Var] {
					lo[t.Var] = newLo
					changed = true
				}
				if newHi < hi[t.Var] {
					hi[t.Var] = newHi
					changed = true
				}
				if lo[t.Var] > hi[t.Var] {
					return false
				}
			}
		}
		if !changed {
			return true
		}
	}
}

// enforcementState classifies a constraint against the current domains and
// counts its unfixed enforcement literals.
func enforcementState(c *Constraint, lo, hi []int64) (enforcement, int) {
	unfixed := 0
	for _, lit := range c.enforce {
		if lo[lit.Var] < hi[lit.Var] {
			unfixed++
			continue
		}
		truth := lo[lit.Var] != 0
		if lit.Negated {
			truth = !truth
		}
		if !truth {
			return enfInactive, 0
		}
	}
	if unfixed > 0 {
		return enfPending, unfixed
	}
	return enfActive, 0
}

func singleUnfixed(c *Constraint, lo, hi []int64, unfixed int) (Literal, bool) {
	if unfixed != 1 {
		return Literal{}, false
	}
	for _, lit := range c.enforce {
		if lo[lit.Var] < hi[lit.Var] {
			return lit, true
		}
	}
	return Literal{}, false
}

func sumBounds(terms []Term, lo, hi []int64) (int64, int64) {
	var minSum, maxSum int64
	for _, t := range terms {
		if t.Coef > 0 {
			minSum += t.Coef * lo[t.Var]
			maxSum += t.Coef * hi[t.Var]
		} else {
			minSum += t.Coef * hi[t.Var]
			maxSum += t.Coef * lo[t.Var]
		}
	}
	return minSum, maxSum
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
