package domain

import (
	"fmt"
	"strings"
)

const NoParent = -1

const RootType = "Root"

// ObjectInfo is one entry of a remote children listing.
type ObjectInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

type ObjectNode struct {
	ObjectID string
	Name     string
	Type     string
	Path     string
	Parent   int
	Children []int
	Voice    bool
}

func (node ObjectNode) IsRoot() bool {
	return node.Parent == NoParent
}

// Forest stores every mirrored node in one table. Parents and children refer
// to each other by index, so the table owns all nodes.
type Forest struct {
	Nodes  []ObjectNode
	Roots  []int
	byPath map[string]int
}

func NewForest() *Forest {
	return &Forest{byPath: make(map[string]int)}
}

func (forest *Forest) Len() int {
	if forest == nil {
		return 0
	}
	return len(forest.Nodes)
}

func (forest *Forest) Node(index int) *ObjectNode {
	if forest == nil || index < 0 || index >= len(forest.Nodes) {
		return nil
	}
	return &forest.Nodes[index]
}

// AddRoot appends a synthetic root node for a configured root path.
func (forest *Forest) AddRoot(path string) (int, error) {
	index, err := forest.insert(ObjectNode{
		Name:   RootName(path),
		Type:   RootType,
		Path:   path,
		Parent: NoParent,
	})
	if err != nil {
		return NoParent, err
	}
	forest.Roots = append(forest.Roots, index)
	return index, nil
}

// AddChild appends info as the last child of parent.
func (forest *Forest) AddChild(parent int, info ObjectInfo) (int, error) {
	if forest.Node(parent) == nil {
		return NoParent, fmt.Errorf("parent %d out of range", parent)
	}
	index, err := forest.insert(ObjectNode{
		ObjectID: info.ID,
		Name:     info.Name,
		Type:     info.Type,
		Path:     info.Path,
		Parent:   parent,
	})
	if err != nil {
		return NoParent, err
	}
	forest.Nodes[parent].Children = append(forest.Nodes[parent].Children, index)
	return index, nil
}

func (forest *Forest) insert(node ObjectNode) (int, error) {
	if forest.byPath == nil {
		forest.reindex()
	}
	if existing, ok := forest.byPath[node.Path]; ok {
		return NoParent, fmt.Errorf("duplicate path %q (node %d)", node.Path, existing)
	}
	forest.Nodes = append(forest.Nodes, node)
	index := len(forest.Nodes) - 1
	forest.byPath[node.Path] = index
	return index, nil
}

func (forest *Forest) reindex() {
	forest.byPath = make(map[string]int, len(forest.Nodes))
	for index, node := range forest.Nodes {
		forest.byPath[node.Path] = index
	}
}

func (forest *Forest) Lookup(path string) (int, bool) {
	if forest == nil {
		return NoParent, false
	}
	if forest.byPath == nil {
		forest.reindex()
	}
	index, ok := forest.byPath[path]
	return index, ok
}

// Ancestors returns the parent chain of index, nearest first.
func (forest *Forest) Ancestors(index int) []int {
	var chain []int
	node := forest.Node(index)
	for node != nil && node.Parent != NoParent {
		chain = append(chain, node.Parent)
		node = forest.Node(node.Parent)
	}
	return chain
}

func (forest *Forest) Depth(index int) int {
	return len(forest.Ancestors(index))
}

// Walk visits nodes in depth-first pre-order, roots in configured order.
// Returning false from visit stops the walk.
func (forest *Forest) Walk(visit func(index int, depth int) bool) {
	if forest == nil {
		return
	}
	type frame struct {
		index int
		depth int
	}
	stack := make([]frame, 0, len(forest.Roots))
	for i := len(forest.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{index: forest.Roots[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(top.index, top.depth) {
			return
		}
		children := forest.Nodes[top.index].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{index: children[i], depth: top.depth + 1})
		}
	}
}

// RootName is the display name of a root path: the path without separators.
func RootName(path string) string {
	return strings.ReplaceAll(path, `\`, "")
}
