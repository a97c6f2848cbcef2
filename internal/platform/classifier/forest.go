package classifier

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Forest is a bagged ensemble of gini decision trees over sparse vectors.
// Each tree is grown on a bootstrap sample and considers sqrt(features)
// random candidate features per split. Prediction averages the leaf class
// distributions of all trees.
type Forest struct {
	trees   []*tree
	classes int
}

type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	dist      []float64 // set on leaves only
}

type tree struct {
	nodes []treeNode
}

type colEntry struct {
	doc int
	val float64
}

// trainSet is the column-major view of the training matrix shared by all
// trees. It is read-only once built.
type trainSet struct {
	columns  [][]colEntry
	labels   []int
	docs     int
	features int
	classes  int
}

func newTrainSet(x []SparseVector, y []int, features, classes int) *trainSet {
	ts := &trainSet{
		columns:  make([][]colEntry, features),
		labels:   y,
		docs:     len(x),
		features: features,
		classes:  classes,
	}
	for doc, vec := range x {
		for i, f := range vec.Idx {
			ts.columns[f] = append(ts.columns[f], colEntry{doc: doc, val: vec.Val[i]})
		}
	}
	return ts
}

// fitForest grows n trees. Tree seeds are drawn from seed up front so the
// result does not depend on scheduling.
func fitForest(ctx context.Context, x []SparseVector, y []int, features, classes, n int, seed int64) (*Forest, error) {
	ts := newTrainSet(x, y, features, classes)
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{trees: make([]*tree, n), classes: classes}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f.trees[i] = growTree(ts, rand.New(rand.NewSource(seeds[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// Predict returns the class index with the highest mean probability. Ties
// go to the lowest index.
func (f *Forest) Predict(x SparseVector) int {
	prob := make([]float64, f.classes)
	for _, t := range f.trees {
		for c, p := range t.leaf(x) {
			prob[c] += p
		}
	}
	best := 0
	for c := 1; c < len(prob); c++ {
		if prob[c] > prob[best] {
			best = c
		}
	}
	return best
}

func (t *tree) leaf(x SparseVector) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.dist != nil {
			return n.dist
		}
		if x.At(n.feature) <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// -- growing --

type grower struct {
	ts     *trainSet
	rng    *rand.Rand
	weight []float64 // bootstrap multiplicity per doc
	stamp  []int     // node id a doc currently belongs to
	mtry   int
	nodes  []treeNode
}

func growTree(ts *trainSet, rng *rand.Rand) *tree {
	g := &grower{
		ts:     ts,
		rng:    rng,
		weight: make([]float64, ts.docs),
		stamp:  make([]int, ts.docs),
		mtry:   int(math.Max(1, math.Sqrt(float64(ts.features)))),
	}
	for i := 0; i < ts.docs; i++ {
		g.weight[rng.Intn(ts.docs)]++
	}
	var docs []int
	for d, w := range g.weight {
		if w > 0 {
			docs = append(docs, d)
		}
	}
	g.build(docs)
	return &tree{nodes: g.nodes}
}

func (g *grower) classCounts(docs []int) ([]float64, float64) {
	counts := make([]float64, g.ts.classes)
	var total float64
	for _, d := range docs {
		counts[g.ts.labels[d]] += g.weight[d]
		total += g.weight[d]
	}
	return counts, total
}

// build appends the subtree for docs and returns its node index.
func (g *grower) build(docs []int) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, treeNode{})

	counts, total := g.classCounts(docs)
	feature, threshold, ok := g.bestSplit(id, docs, counts, total)
	if !ok {
		dist := make([]float64, len(counts))
		for c := range counts {
			dist[c] = counts[c] / total
		}
		g.nodes[id].dist = dist
		return id
	}

	var left, right []int
	for _, d := range docs {
		if g.value(feature, d) <= threshold {
			left = append(left, d)
		} else {
			right = append(right, d)
		}
	}
	l := g.build(left)
	r := g.build(right)
	g.nodes[id].feature = feature
	g.nodes[id].threshold = threshold
	g.nodes[id].left = l
	g.nodes[id].right = r
	return id
}

// value looks up feature f of doc d. Columns are ordered by doc.
func (g *grower) value(f, d int) float64 {
	col := g.ts.columns[f]
	i := sort.Search(len(col), func(i int) bool { return col[i].doc >= d })
	if i < len(col) && col[i].doc == d {
		return col[i].val
	}
	return 0
}

func (g *grower) bestSplit(id int, docs []int, counts []float64, total float64) (int, float64, bool) {
	if gini(counts, total) == 0 || len(docs) < 2 {
		return 0, 0, false
	}
	for _, d := range docs {
		g.stamp[d] = id + 1
	}

	bestScore := math.Inf(1)
	bestFeature, bestThreshold, found := 0, 0.0, false

	// Candidates are drawn until mtry informative features have been seen,
	// continuing past mtry while no valid split exists.
	visited := 0
	for _, f := range g.rng.Perm(g.ts.features) {
		if visited >= g.mtry && found {
			break
		}
		var nz []colEntry
		for _, e := range g.ts.columns[f] {
			if g.stamp[e.doc] == id+1 {
				nz = append(nz, e)
			}
		}
		if len(nz) == 0 {
			continue
		}
		visited++
		sort.Slice(nz, func(i, j int) bool { return nz[i].val < nz[j].val })

		left := append([]float64(nil), counts...)
		leftW := total
		for _, e := range nz {
			left[g.ts.labels[e.doc]] -= g.weight[e.doc]
			leftW -= g.weight[e.doc]
		}
		right := make([]float64, len(counts))
		for _, e := range nz {
			right[g.ts.labels[e.doc]] += g.weight[e.doc]
		}
		rightW := total - leftW

		try := func(threshold float64) {
			if leftW <= 0 || rightW <= 0 {
				return
			}
			score := leftW*gini(left, leftW) + rightW*gini(right, rightW)
			if score < bestScore {
				bestScore, bestFeature, bestThreshold, found = score, f, threshold, true
			}
		}

		try(nz[0].val / 2)
		for i := 0; i < len(nz)-1; i++ {
			w := g.weight[nz[i].doc]
			c := g.ts.labels[nz[i].doc]
			left[c] += w
			right[c] -= w
			leftW += w
			rightW -= w
			if nz[i].val < nz[i+1].val {
				try((nz[i].val + nz[i+1].val) / 2)
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	s := 1.0
	for _, c := range counts {
		p := c / total
		s -= p * p
	}
	return s
}
