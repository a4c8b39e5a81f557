package propagation

import "sort"

// Reception is one acoustic path from the listener to a source.
type Reception struct {
	Source   *AudioSource
	Distance float64
	Volume   float64
	Depth    int
}

// Flatten walks the tree depth first and returns every (node, visible source)
// pair as a reception, sorted by ascending distance. Equal distances keep the
// depth-first visit order. Each reflection generation splits the volume evenly
// across the fan.
func Flatten(root *Node) []Reception {
	if root == nil {
		return nil
	}
	scale := 1.0
	if root.BranchingFactor > 0 {
		scale = 1 / float64(root.BranchingFactor)
	}
	out := flatten(root, scale, 1, 0, 0, nil)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

func flatten(n *Node, scale, volume, path float64, depth int, acc []Reception) []Reception {
	for _, s := range n.Sources {
		acc = append(acc, Reception{
			Source:   s,
			Distance: path + n.Position.DistanceTo(s.Position),
			Volume:   volume,
			Depth:    depth,
		})
	}
	for _, child := range n.Children {
		acc = flatten(child, scale, volume*scale, path+n.Position.DistanceTo(child.Position), depth+1, acc)
	}
	return acc
}
