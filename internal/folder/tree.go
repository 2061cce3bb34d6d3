// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package folder

import "strings"

// Tree is an in-memory folder node. Mail stores materialise their folder
// listing into a Tree before resolving.
type Tree struct {
	name     string
	path     string
	children []*Tree
}

// NewTree returns a root node named name with no path.
func NewTree(name string) *Tree {
	return &Tree{name: name}
}

// Name returns the folder's own name (the last path segment).
func (t *Tree) Name() string { return t.name }

// Path returns the full mailbox path, empty for the root.
func (t *Tree) Path() string { return t.path }

// Children returns the sub-folders in insertion order.
func (t *Tree) Children() []Node {
	nodes := make([]Node, len(t.children))
	for i, c := range t.children {
		nodes[i] = c
	}
	return nodes
}

// Add appends a child named name with the given full path and returns it.
func (t *Tree) Add(name, path string) *Tree {
	child := &Tree{name: name, path: path}
	t.children = append(t.children, child)
	return child
}

// child returns the direct child named name, or nil.
func (t *Tree) child(name string) *Tree {
	for _, c := range t.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Insert places path under t, splitting it on delim and creating any missing
// intermediate folders. Existing folders keep their position, so insertion
// order of first appearance is preserved. A zero delim treats path as a
// single segment.
func (t *Tree) Insert(path string, delim rune) *Tree {
	segments := []string{path}
	if delim != 0 {
		segments = strings.Split(path, string(delim))
	}

	node := t
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		next := node.child(seg)
		if next == nil {
			full := seg
			if delim != 0 {
				full = strings.Join(segments[:i+1], string(delim))
			}
			next = node.Add(seg, full)
		}
		node = next
	}
	return node
}
