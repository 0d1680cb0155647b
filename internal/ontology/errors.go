// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ontology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingID is returned for a [Term] block without an id field.
	ErrMissingID = errors.New("term block has no id")

	// ErrDuplicateTerm is returned when a term id is added twice.
	ErrDuplicateTerm = errors.New("duplicate term id")
)

// ParseError reports malformed OBO input at a line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("obo line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnresolvedParentError reports an is_a edge to a term that is not in the
// graph, under the DanglingError policy.
type UnresolvedParentError struct {
	TermID   string
	ParentID string
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf("term %s: parent %s not found", e.TermID, e.ParentID)
}

// CycleError reports an is_a cycle found while computing levels. Path lists
// the term ids along the cycle, starting and ending at TermID.
type CycleError struct {
	TermID string
	Path   []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("is_a cycle through %s: %s", e.TermID, strings.Join(e.Path, " -> "))
}
