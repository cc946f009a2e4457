package design

import (
	"errors"
	"fmt"
)

var (
	// ErrCyclicTree is returned when a node is reachable from itself.
	ErrCyclicTree = errors.New("design tree contains a cycle")
	// ErrDuplicateID is returned when two nodes share an id.
	ErrDuplicateID = errors.New("design tree contains duplicate node ids")
	// ErrMissingID is returned for a node without an id. Output nodes are
	// traced back to their source by id.
	ErrMissingID = errors.New("design node has no id")
	// ErrNilRoot is returned when there is nothing to classify.
	ErrNilRoot = errors.New("design tree has no root")
)

// Validate checks the structural preconditions the classifier relies on:
// the tree is finite and acyclic, and every node has a unique id.
func Validate(root *Node) error {
	if root == nil {
		return ErrNilRoot
	}
	v := &validator{
		onPath: make(map[*Node]bool),
		seen:   make(map[*Node]bool),
		ids:    make(map[string]bool),
	}
	return v.visit(root)
}

type validator struct {
	onPath map[*Node]bool
	seen   map[*Node]bool
	ids    map[string]bool
}

func (v *validator) visit(n *Node) error {
	if v.onPath[n] {
		return fmt.Errorf("%w: node %q", ErrCyclicTree, n.ID)
	}
	if v.seen[n] {
		// Shared subtree: the same node would be emitted twice.
		return fmt.Errorf("%w: node %q appears under two parents", ErrDuplicateID, n.ID)
	}
	v.seen[n] = true
	if n.ID == "" {
		return fmt.Errorf("%w: %s %q", ErrMissingID, n.Type, n.Name)
	}
	if v.ids[n.ID] {
		return fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
	}
	v.ids[n.ID] = true

	v.onPath[n] = true
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if err := v.visit(c); err != nil {
			return err
		}
	}
	delete(v.onPath, n)
	return nil
}
