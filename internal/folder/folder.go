// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package folder resolves a named folder inside a mail store's folder tree.
//
// The tree is supplied by the caller through the Node interface. Resolve walks
// it depth-first in pre-order, in the child order the provider returns, and
// stops at the first folder whose name equals the target case-insensitively.
package folder

import (
	"errors"
	"fmt"
	"strings"
)

// DeletedItemsMarker identifies the reserved deleted-items folder. Any folder
// whose name contains it is reported in Result.DeletedItems.
const DeletedItemsMarker = "Deleted Items"

// DefaultMaxDepth bounds traversal depth. Folder trees from a live store are
// expected to be shallow; a deeper walk indicates a cycle in the provider.
const DefaultMaxDepth = 64

var (
	// ErrNotFound is returned when no folder in the tree matches the target.
	ErrNotFound = errors.New("folder not found")

	// ErrTooDeep is returned when traversal exceeds the depth bound.
	ErrTooDeep = errors.New("folder tree exceeds maximum depth")
)

// Node is a folder-like element of a mail store. Children must return the
// sub-folders in provider order.
type Node interface {
	Name() string
	Children() []Node
}

// Result holds the outcome of a successful Resolve.
type Result struct {
	// Folder is the first folder, in pre-order, whose name matches the target.
	Folder Node

	// DeletedItems is the last folder visited before the match whose name
	// contains DeletedItemsMarker, or nil when none was visited.
	DeletedItems Node
}

// NotFoundError reports a failed lookup, naming both the target and the
// root that was searched.
type NotFoundError struct {
	Target string
	Root   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Folder %s not found in mailbox %s!", e.Target, e.Root)
}

// Is makes errors.Is(err, ErrNotFound) hold for *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Option configures Resolve.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

type frame struct {
	node  Node
	depth int
}

// Resolve searches the descendants of root for target. The root itself is
// the mailbox and never matches. On a miss the returned error is a
// *NotFoundError; errors.Is(err, ErrNotFound) reports true.
func Resolve(root Node, target string, opts ...Option) (Result, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	stack := pushChildren(nil, root, 1)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth > o.maxDepth {
			return Result{}, fmt.Errorf("searching %s for %s: %w (%d)", root.Name(), target, ErrTooDeep, o.maxDepth)
		}

		name := top.node.Name()
		if strings.EqualFold(name, target) {
			res.Folder = top.node
			return res, nil
		}
		if strings.Contains(name, DeletedItemsMarker) {
			res.DeletedItems = top.node
		}

		stack = pushChildren(stack, top.node, top.depth+1)
	}

	return Result{}, &NotFoundError{Target: target, Root: root.Name()}
}

// pushChildren pushes n's children in reverse so the first child is popped
// first.
func pushChildren(stack []frame, n Node, depth int) []frame {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: children[i], depth: depth})
	}
	return stack
}

// Walk visits root's descendants in pre-order, calling fn with each node and
// its depth (1 for direct children). Walk stops when fn returns false or the
// depth bound is exceeded.
func Walk(root Node, fn func(n Node, depth int) bool, opts ...Option) error {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	stack := pushChildren(nil, root, 1)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth > o.maxDepth {
			return fmt.Errorf("walking %s: %w (%d)", root.Name(), ErrTooDeep, o.maxDepth)
		}
		if !fn(top.node, top.depth) {
			return nil
		}
		stack = pushChildren(stack, top.node, top.depth+1)
	}
	return nil
}
