package tree

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// featureThreshold is the minimal gap between two feature values for a
	// split to be placed between them.
	featureThreshold = 1e-7
	// impurityEpsilon treats a node as pure.
	impurityEpsilon = 1e-12
)

// node is one entry of the flattened tree. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	depth     int
	nSamples  int
	weight    float64
	impurity  float64
	value     []float64 // weighted class fractions
}

// builder grows a tree depth first with the best-split strategy.
type builder struct {
	X          [][]float64
	labels     []int
	weights    []float64
	nClasses   int
	nFeatures  int
	impurity   impurityFunc
	maxDepth   int
	minSplit   int
	minLeaf    int
	maxFeat    int
	rng        *rand.Rand
	nodes      []node
	importance []float64
}

type split struct {
	feature     int
	threshold   float64
	pos         int // samples[:pos] go left
	improvement float64
}

func (b *builder) classCounts(samples []int) ([]float64, float64) {
	counts := make([]float64, b.nClasses)
	total := 0.0
	for _, s := range samples {
		counts[b.labels[s]] += b.weights[s]
		total += b.weights[s]
	}
	return counts, total
}

// build grows the subtree for samples and returns its node index.
func (b *builder) build(samples []int, depth int) int {
	counts, total := b.classCounts(samples)
	imp := b.impurity(counts, total)

	value := make([]float64, b.nClasses)
	if total > 0 {
		floats.ScaleTo(value, 1/total, counts)
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{
		feature:  -1,
		depth:    depth,
		nSamples: len(samples),
		weight:   total,
		impurity: imp,
		value:    value,
	})

	n := len(samples)
	isLeaf := (b.maxDepth >= 0 && depth >= b.maxDepth) ||
		n < b.minSplit ||
		n < 2*b.minLeaf ||
		imp <= impurityEpsilon
	if isLeaf {
		return idx
	}

	best, ok := b.bestSplit(samples, counts, total, imp)
	if !ok {
		return idx
	}
	b.sortBy(samples, best.feature)

	leftSamples := append([]int(nil), samples[:best.pos]...)
	rightSamples := append([]int(nil), samples[best.pos:]...)

	left := b.build(leftSamples, depth+1)
	right := b.build(rightSamples, depth+1)

	nd := &b.nodes[idx]
	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = left
	nd.right = right

	l, r := b.nodes[left], b.nodes[right]
	b.importance[best.feature] += total*imp - l.weight*l.impurity - r.weight*r.impurity
	return idx
}

func (b *builder) sortBy(samples []int, feature int) {
	sort.SliceStable(samples, func(i, j int) bool {
		return b.X[samples[i]][feature] < b.X[samples[j]][feature]
	})
}

// bestSplit visits features in random order until maxFeat non-constant
// features have been evaluated and returns the split with the largest
// weighted impurity decrease.
func (b *builder) bestSplit(samples []int, counts []float64, total, imp float64) (split, bool) {
	var best split
	found := false

	order := b.rng.Perm(b.nFeatures)
	visited := 0
	work := append([]int(nil), samples...)
	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)

	for _, f := range order {
		if visited >= b.maxFeat {
			break
		}
		b.sortBy(work, f)
		if b.X[work[len(work)-1]][f] <= b.X[work[0]][f]+featureThreshold {
			continue // constant in this node
		}
		visited++

		for k := range leftCounts {
			leftCounts[k] = 0
		}
		copy(rightCounts, counts)
		leftW, rightW := 0.0, total

		for pos := 1; pos < len(work); pos++ {
			s := work[pos-1]
			leftCounts[b.labels[s]] += b.weights[s]
			rightCounts[b.labels[s]] -= b.weights[s]
			leftW += b.weights[s]
			rightW -= b.weights[s]

			lo, hi := b.X[s][f], b.X[work[pos]][f]
			if hi <= lo+featureThreshold {
				continue
			}
			if pos < b.minLeaf || len(work)-pos < b.minLeaf {
				continue
			}

			improvement := total*imp - leftW*b.impurity(leftCounts, leftW) - rightW*b.impurity(rightCounts, rightW)
			if !found || improvement > best.improvement {
				threshold := lo/2 + hi/2
				if threshold == hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: pos, improvement: improvement}
				found = true
			}
		}
	}
	return best, found
}
