package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const leaf = -1

// Node is one entry of a flattened regression tree.
// Internal nodes route x[Feature] <= Threshold to Left, others to Right.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Value     float64 // mean target of the samples that reached the node
	Samples   int
}

// Tree is a CART regressor grown by squared error reduction
type Tree struct {
	Nodes       []Node
	Importances []float64 // total squared error decrease per feature
	Depth       int
}

type grower struct {
	X        [][]float64
	y        []float64
	params   Params
	features int // features examined per split
	rnd      *rand.Rand
	tree     *Tree
	order    []int
}

func fitTree(X [][]float64, y []float64, idx []int, params Params, features int, rnd *rand.Rand) *Tree {
	p := len(X[0])
	g := &grower{
		X:        X,
		y:        y,
		params:   params,
		features: features,
		rnd:      rnd,
		tree:     &Tree{Importances: make([]float64, p)},
		order:    make([]int, len(idx)),
	}
	g.grow(idx, 0)
	return g.tree
}

// grow appends the subtree for idx and returns its node index
func (g *grower) grow(idx []int, depth int) int32 {
	n := len(idx)
	var sum float64
	lo, hi := g.y[idx[0]], g.y[idx[0]]
	for _, i := range idx {
		sum += g.y[i]
		lo = min(lo, g.y[i])
		hi = max(hi, g.y[i])
	}
	mean := sum / float64(n)

	self := int32(len(g.tree.Nodes))
	g.tree.Nodes = append(g.tree.Nodes, Node{Feature: leaf, Value: mean, Samples: n})
	if depth > g.tree.Depth {
		g.tree.Depth = depth
	}

	if (g.params.MaxDepth > 0 && depth >= g.params.MaxDepth) ||
		n < g.params.MinSamplesSplit ||
		n < 2*g.params.MinSamplesLeaf ||
		lo == hi {
		return self
	}

	feature, threshold, gain, ok := g.bestSplit(idx, sum)
	if !ok {
		return self
	}

	// partition in place: idx[:cut] <= threshold
	cut, end := 0, n-1
	for cut <= end {
		if g.X[idx[cut]][feature] <= threshold {
			cut++
			continue
		}
		idx[cut], idx[end] = idx[end], idx[cut]
		end--
	}

	g.tree.Importances[feature] += gain
	left := g.grow(idx[:cut], depth+1)
	right := g.grow(idx[cut:], depth+1)

	node := &g.tree.Nodes[self]
	node.Feature = feature
	node.Threshold = threshold
	node.Left = left
	node.Right = right
	return self
}

// bestSplit examines random features until g.features non constant ones were
// tried, keeping the split with the largest squared error decrease
func (g *grower) bestSplit(idx []int, sum float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	parent := sum * sum / float64(n)
	minLeaf := g.params.MinSamplesLeaf
	order := g.order[:n]

	best := parent
	tried := 0
	for _, f := range g.rnd.Perm(len(g.X[0])) {
		if tried >= g.features {
			break
		}

		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return g.X[order[a]][f] < g.X[order[b]][f] })
		if g.X[order[0]][f] == g.X[order[n-1]][f] {
			continue // constant in this node
		}
		tried++

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += g.y[order[k]]
			cur, next := g.X[order[k]][f], g.X[order[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := sum - leftSum
			score := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr)
			if score > best+1e-12*math.Abs(best) {
				best = score
				feature = f
				threshold = cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				ok = true
			}
		}
	}

	return feature, threshold, best - parent, ok
}

// Predict walks one feature vector to its leaf
func (t *Tree) Predict(x []float64) float64 {
	i := int32(0)
	for {
		node := &t.Nodes[i]
		if node.Feature == leaf {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// validate requires every internal node to point at children stored after it,
// so each walk from the root strictly advances and ends at a leaf
func (t *Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}
	if len(t.Importances) != nFeatures {
		return fmt.Errorf("%w: %d importances for %d features", ErrMalformedTree, len(t.Importances), nFeatures)
	}

	last := int32(len(t.Nodes))
	for i, n := range t.Nodes {
		if n.Feature == leaf {
			continue
		}
		self := int32(i)
		switch {
		case n.Feature < 0 || n.Feature >= nFeatures:
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrMalformedTree, i, n.Feature, nFeatures)
		case n.Left <= self || n.Left >= last:
			return fmt.Errorf("%w: node %d left child %d", ErrMalformedTree, i, n.Left)
		case n.Right <= self || n.Right >= last:
			return fmt.Errorf("%w: node %d right child %d", ErrMalformedTree, i, n.Right)
		}
	}
	return nil
}

// Leaves counts terminal nodes
func (t *Tree) Leaves() int {
	count := 0
	for _, n := range t.Nodes {
		if n.Feature == leaf {
			count++
		}
	}
	return count
}
