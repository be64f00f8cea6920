package index

import "errors"

// ErrCorruptIndex signals an internal invariant violation, such as a
// removal for a path or source the index never recorded. It indicates a
// defect in the engine, not bad user input: callers abort the affected
// operation and escalate to logs instead of returning a wrong answer.
var ErrCorruptIndex = errors.New("index corruption detected")
