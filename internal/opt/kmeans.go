package opt

import (
	"math"
	"math/rand"
)

// Deterministic k-means over projected demand coordinates. The fixed seed and
// restart count mirror the reference partitioner so that identical input
// always produces identical cluster assignments.
const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// kmeansCluster labels each point with a cluster index in [0,k). Points are
// (x, y) pairs in an equal-area-ish projection. Panics are avoided by the
// caller guaranteeing 0 < k <= len(points).
func kmeansCluster(points [][2]float64, k int) []int {
	if k == 1 {
		return make([]int, len(points))
	}
	rng := rand.New(rand.NewSource(kmeansSeed))

	bestLabels := make([]int, len(points))
	bestInertia := math.Inf(1)
	labels := make([]int, len(points))

	for r := 0; r < kmeansRestarts; r++ {
		centroids := seedPlusPlus(points, k, rng)
		var inertia float64
		for iter := 0; iter < kmeansMaxIter; iter++ {
			inertia = assign(points, centroids, labels)
			if !recenter(points, labels, centroids) {
				break
			}
		}
		if inertia < bestInertia {
			bestInertia = inertia
			copy(bestLabels, labels)
		}
	}
	return bestLabels
}

// seedPlusPlus picks initial centroids with the k-means++ scheme: the first
// uniformly, the rest weighted by squared distance to the nearest chosen one.
func seedPlusPlus(points [][2]float64, k int, rng *rand.Rand) [][2]float64 {
	centroids := make([][2]float64, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		var sum float64
		for i, p := range points {
			d2[i] = sq(p, centroids[0])
			for _, c := range centroids[1:] {
				if d := sq(p, c); d < d2[i] {
					d2[i] = d
				}
			}
			sum += d2[i]
		}
		if sum == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}
		target := rng.Float64() * sum
		idx := 0
		for i, d := range d2 {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, points[idx])
	}
	return centroids
}

// assign labels every point with its nearest centroid (ties to the lowest
// centroid index) and returns the total inertia.
func assign(points [][2]float64, centroids [][2]float64, labels []int) float64 {
	var inertia float64
	for i, p := range points {
		best := 0
		bestD := sq(p, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sq(p, centroids[c]); d < bestD {
				best = c
				bestD = d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return inertia
}

// recenter moves centroids to their members' mean. An emptied cluster keeps
// its previous centroid. Reports whether any centroid moved.
func recenter(points [][2]float64, labels []int, centroids [][2]float64) bool {
	sums := make([][2]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i, p := range points {
		l := labels[i]
		sums[l][0] += p[0]
		sums[l][1] += p[1]
		counts[l]++
	}
	moved := false
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		next := [2]float64{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
		if next != centroids[c] {
			centroids[c] = next
			moved = true
		}
	}
	return moved
}

func sq(a, b [2]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
