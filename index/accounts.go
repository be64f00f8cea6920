// Package index maintains the workspace-wide completion index: a
// hierarchical account tree and a ranked payee set, aggregated from the
// parsed snapshots of every open document. All mutation happens through
// Workspace.Apply so that readers never observe a half-applied update.
package index

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Source identifies which document contributed a reference, so that a
// document's contributions can be removed when it changes or closes.
// Typically a document URI.
type Source string

// AccountTree is a prefix tree over account hierarchy segments. Inserting
// "Expenses:Food:Groceries" creates the node chain Expenses → Food →
// Groceries, so every interior prefix is itself a queryable account node.
// Each node carries a per-source reference multiset used only for removal
// and an aggregate count used to rank children by popularity.
//
// AccountTree is not safe for concurrent use; Workspace serializes access.
type AccountTree struct {
	root *accountNode
}

type accountNode struct {
	segment  string
	children map[string]*accountNode
	refs     map[Source]int
	total    int
}

func newAccountNode(segment string) *accountNode {
	return &accountNode{
		segment:  segment,
		children: make(map[string]*accountNode),
		refs:     make(map[Source]int),
	}
}

// NewAccountTree creates an empty account tree.
func NewAccountTree() *AccountTree {
	return &AccountTree{root: newAccountNode("")}
}

// Insert records one occurrence of the account path for the given source.
// Every node along the path, interior prefixes included, records the
// reference.
func (t *AccountTree) Insert(path []string, src Source) {
	node := t.root
	for _, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			child = newAccountNode(segment)
			node.children[segment] = child
		}
		child.refs[src]++
		child.total++
		node = child
	}
}

// Remove undoes one Insert of the same (path, source) pair. Nodes left
// with no references and no children are pruned bottom-up, so an insert
// followed by a remove restores the tree node-for-node.
func (t *AccountTree) Remove(path []string, src Source) error {
	chain := make([]*accountNode, 0, len(path)+1)
	chain = append(chain, t.root)

	node := t.root
	for _, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			return fmt.Errorf("remove %q: missing node %q: %w", strings.Join(path, ":"), segment, ErrCorruptIndex)
		}
		chain = append(chain, child)
		node = child
	}

	for _, n := range chain[1:] {
		if n.refs[src] <= 0 {
			return fmt.Errorf("remove %q: no reference from %q: %w", strings.Join(path, ":"), src, ErrCorruptIndex)
		}
		n.refs[src]--
		n.total--
		if n.refs[src] == 0 {
			delete(n.refs, src)
		}
	}

	// Prune empty chains from the leaf upward. The walk uses the path
	// itself, never a parent pointer.
	for i := len(chain) - 1; i > 0; i-- {
		n := chain[i]
		if len(n.children) > 0 || len(n.refs) > 0 {
			break
		}
		delete(chain[i-1].children, n.segment)
	}

	return nil
}

// ChildrenOf returns the immediate child segment names below the given
// prefix, most referenced first, name as tiebreak. A nil prefix addresses
// the root. Returns nil when the prefix is not present.
func (t *AccountTree) ChildrenOf(prefix []string) []string {
	node := t.find(prefix)
	if node == nil || len(node.children) == 0 {
		return nil
	}

	children := make([]*accountNode, 0, len(node.children))
	for _, child := range node.children {
		children = append(children, child)
	}
	slices.SortFunc(children, func(a, b *accountNode) int {
		if a.total != b.total {
			return b.total - a.total
		}
		return strings.Compare(a.segment, b.segment)
	})

	segments := make([]string, len(children))
	for i, child := range children {
		segments[i] = child.segment
	}
	return segments
}

// PathsWithPrefix returns the full path of every node at or below the
// given prefix, in depth-first order with siblings sorted by name. A nil
// prefix returns every account path in the tree.
func (t *AccountTree) PathsWithPrefix(prefix []string) []string {
	node := t.find(prefix)
	if node == nil {
		return nil
	}

	var paths []string
	var walk func(n *accountNode, path []string)
	walk = func(n *accountNode, path []string) {
		if n != t.root {
			paths = append(paths, strings.Join(path, ":"))
		}
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			walk(n.children[name], append(path, name))
		}
	}
	walk(node, slices.Clone(prefix))
	return paths
}

// Contains reports whether the exact path is present in the tree.
func (t *AccountTree) Contains(path []string) bool {
	return len(path) > 0 && t.find(path) != nil
}

// NodeCount returns the number of account nodes, interior nodes included.
// The empty tree has zero nodes.
func (t *AccountTree) NodeCount() int {
	count := -1 // exclude the root sentinel
	var walk func(n *accountNode)
	walk = func(n *accountNode) {
		count++
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(t.root)
	return count
}

func (t *AccountTree) find(prefix []string) *accountNode {
	node := t.root
	for _, segment := range prefix {
		child, ok := node.children[segment]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}
