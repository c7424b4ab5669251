package allocation

import "errors"

// ErrEmptyDomain means the run had nothing to allocate (no candidate
// classes, or no students in either population): not a failure, the caller
// should log it and treat the empty Solution as a successful, empty run.
var ErrEmptyDomain = errors.New("allocation: empty domain, nothing to allocate")

// ErrInfeasible means the solver proved no feasible assignment exists. Per
// the error taxonomy this is reported cleanly, not treated as fatal: the
// caller clears the output tables and exits 0.
var ErrInfeasible = errors.New("allocation: não há solução")
