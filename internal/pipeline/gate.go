package pipeline

// GateResult is the outcome of a single admissibility gate.
type GateResult struct {
	Admitted bool
	Reason   string // refusal reason; empty when admitted
}

// Gate is the interface every admissibility gate must implement.
// Gates are pure functions of the query: no I/O, no shared state, and
// refusal is a normal return value, never an error.
type Gate interface {
	// Name returns the gate's unique identifier (e.g., "domain").
	Name() string

	// Admit decides whether the query may proceed to the next stage.
	Admit(q Query) GateResult
}
