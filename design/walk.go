package design

// DefaultMaxDepth bounds traversal of malformed or pathologically deep trees.
const DefaultMaxDepth = 15

// VisitFunc is called once per node in pre-order. depth is 0 for the root;
// path holds the names of the node's ancestors, root first, and must not be
// retained past the call. Returning false skips the node's children.
type VisitFunc func(n *Node, depth int, path []string) bool

type frame struct {
	node  *Node
	depth int
	path  []string
}

// Walk traverses root depth-first, visiting each node before its children in
// document order. Nodes deeper than maxDepth are not visited and the walk
// does not descend past them; this is not an error. maxDepth <= 0 selects
// DefaultMaxDepth. nil nodes anywhere in the tree are skipped.
//
// The walk uses an explicit stack so deep input cannot exhaust the goroutine
// stack, and never mutates the tree.
func Walk(root *Node, maxDepth int, visit VisitFunc) {
	if root == nil || visit == nil {
		return
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	stack := []frame{{node: root, depth: 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(top.node, top.depth, top.path) {
			continue
		}
		if top.depth >= maxDepth || len(top.node.Children) == 0 {
			continue
		}

		// Full slice expression forces a copy so siblings never share backing arrays
		childPath := append(top.path[:len(top.path):len(top.path)], top.node.Name)

		// Reverse push keeps document order on pop
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			child := top.node.Children[i]
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, depth: top.depth + 1, path: childPath})
		}
	}
}

// Count returns the number of nodes Walk would visit with the given cap.
func Count(root *Node, maxDepth int) int {
	n := 0
	Walk(root, maxDepth, func(*Node, int, []string) bool {
		n++
		return true
	})
	return n
}
