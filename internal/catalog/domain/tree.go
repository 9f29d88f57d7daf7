package domain

import (
	"cmp"
	"slices"
)

// Tree is an arena over categories: nodes live in a flat map keyed by id and
// link to each other by id only.
type Tree struct {
	nodes map[int64]*treeNode
	roots []int64
}

type treeNode struct {
	category Category
	children []int64
}

// CategoryNode is the nested rendering of a tree.
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children"`
}

// BuildTree links categories by parent id. A category whose parent is absent,
// or that sits on a parent cycle, becomes a root.
func BuildTree(categories []Category) *Tree {
	t := &Tree{nodes: make(map[int64]*treeNode, len(categories))}
	for _, c := range categories {
		t.nodes[c.ID] = &treeNode{category: c}
	}

	for _, c := range categories {
		parent, ok := t.parentOf(c)
		if !ok || t.formsCycle(c.ID) {
			t.roots = append(t.roots, c.ID)
			continue
		}
		t.nodes[parent].children = append(t.nodes[parent].children, c.ID)
	}

	t.sortIDs(t.roots)
	for _, n := range t.nodes {
		t.sortIDs(n.children)
	}
	return t
}

func (t *Tree) parentOf(c Category) (int64, bool) {
	if c.ParentID == nil || *c.ParentID == c.ID {
		return 0, false
	}
	_, ok := t.nodes[*c.ParentID]
	return *c.ParentID, ok
}

// formsCycle reports whether following parents from id leads back to id.
func (t *Tree) formsCycle(id int64) bool {
	seen := map[int64]bool{id: true}
	cur := id
	for {
		parent, ok := t.parentOf(t.nodes[cur].category)
		if !ok {
			return false
		}
		if parent == id {
			return true
		}
		if seen[parent] {
			return false
		}
		seen[parent] = true
		cur = parent
	}
}

func (t *Tree) sortIDs(ids []int64) {
	slices.SortFunc(ids, func(a, b int64) int {
		ca, cb := t.nodes[a].category, t.nodes[b].category
		if c := cmp.Compare(ca.SortOrder, cb.SortOrder); c != 0 {
			return c
		}
		if c := cmp.Compare(ca.Name, cb.Name); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Contains(id int64) bool {
	_, ok := t.nodes[id]
	return ok
}

// Descendants returns id followed by every category below it, breadth first.
func (t *Tree) Descendants(id int64) []int64 {
	if !t.Contains(id) {
		return nil
	}
	out := []int64{id}
	for i := 0; i < len(out); i++ {
		out = append(out, t.nodes[out[i]].children...)
	}
	return out
}

// Ancestors returns the path from the root down to id's parent.
func (t *Tree) Ancestors(id int64) []int64 {
	n, ok := t.nodes[id]
	if !ok || slices.Contains(t.roots, id) {
		return nil
	}
	var path []int64
	for {
		parent, ok := t.parentOf(n.category)
		if !ok {
			break
		}
		path = append(path, parent)
		if slices.Contains(t.roots, parent) {
			break
		}
		n = t.nodes[parent]
	}
	slices.Reverse(path)
	return path
}

func (t *Tree) Nested() []CategoryNode {
	out := make([]CategoryNode, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.render(id))
	}
	return out
}

func (t *Tree) render(id int64) CategoryNode {
	n := t.nodes[id]
	node := CategoryNode{Category: n.category, Children: make([]CategoryNode, 0, len(n.children))}
	for _, child := range n.children {
		node.Children = append(node.Children, t.render(child))
	}
	return node
}
