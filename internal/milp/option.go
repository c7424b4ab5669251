package milp

// Option configures a Model at construction time.
type Option func(*Model) error

// WithLogger attaches a Logger that receives branch-and-bound progress
// messages (one per integer-feasible node, with its objective value).
func WithLogger(logger Logger) Option {
	return func(m *Model) error {
		m.logger = logger
		return nil
	}
}

// WithMaxNodes bounds the number of branch-and-bound nodes explored before
// the solve is abandoned as ErrNoFeasibleFound (if no incumbent was found)
// or SolutionSuboptimal (if one was). Zero (the default) means unbounded.
func WithMaxNodes(n int) Option {
	return func(m *Model) error {
		m.maxNodes = n
		return nil
	}
}
