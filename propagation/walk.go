package propagation

// Walk visits every node in depth-first order, parents before children. fn
// receives the parent (nil for the root) and the depth of n. Returning false
// skips the subtree below n.
func Walk(root *Node, fn func(n, parent *Node, depth int) bool) {
	if root == nil {
		return
	}
	walk(root, nil, 0, fn)
}

func walk(n, parent *Node, depth int, fn func(n, parent *Node, depth int) bool) {
	if !fn(n, parent, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, n, depth+1, fn)
	}
}

// TreeStats summarises a tree for debug overlays.
type TreeStats struct {
	Nodes     int
	Depth     int
	MaxFanout int
	Links     int
}

// Stats counts nodes, depth, the widest fan-out and node-to-source links.
func Stats(root *Node) TreeStats {
	var st TreeStats
	Walk(root, func(n, _ *Node, depth int) bool {
		st.Nodes++
		st.Links += len(n.Sources)
		st.Depth = max(st.Depth, depth)
		st.MaxFanout = max(st.MaxFanout, len(n.Children))
		return true
	})
	return st
}
