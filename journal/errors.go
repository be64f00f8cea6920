package journal

import "fmt"

// SyntaxError describes one malformed line or token. Syntax errors never
// abort a parse; they are collected on the Journal so that a diagnostics
// layer can surface them later.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}
