package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultMaxIterations bounds the Lloyd iterations of one k-means run.
	DefaultMaxIterations = 300

	// DefaultInits is the number of k-means++ initialisations tried; the run
	// with the lowest inertia wins.
	DefaultInits = 10
)

// KMeansConfig controls one KMeans call.
type KMeansConfig struct {
	K             int
	Seed          int64
	Inits         int
	MaxIterations int
}

// KMeans partitions points into cfg.K clusters and returns one label per
// point. Centroids are seeded with k-means++ from a rand.Source seeded with
// cfg.Seed, so identical input and config always give identical labels.
// Labels are numbered by first appearance: points[0] is in cluster 0.
func KMeans(points [][]float64, cfg KMeansConfig) ([]int, error) {
	n := len(points)
	if cfg.K < 1 || cfg.K > n {
		return nil, fmt.Errorf("k must be in [1, %d], got %d", n, cfg.K)
	}
	if cfg.Inits <= 0 {
		cfg.Inits = DefaultInits
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < cfg.Inits; run++ {
		centroids := seedPlusPlus(points, cfg.K, rng)
		labels, inertia := lloyd(points, centroids, cfg.MaxIterations)
		if inertia < bestInertia {
			bestInertia = inertia
			best = labels
		}
	}

	return relabelByFirstAppearance(best), nil
}

// seedPlusPlus picks k initial centroids: the first uniformly, each next one
// with probability proportional to its squared distance to the closest
// centroid already chosen.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(n)]))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(closest)

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range closest {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// Every point coincides with a chosen centroid.
			next = rng.Intn(n)
		}

		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < closest[i] {
				closest[i] = d
			}
		}
	}

	return centroids
}

// lloyd alternates assignment and centroid update until the assignment is
// stable. It returns the labels and the inertia (sum of squared distances to
// the assigned centroid).
func lloyd(points, centroids [][]float64, maxIterations int) ([]int, float64) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			if c := nearest(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		updateCentroids(points, labels, centroids)
		reseedEmpty(points, labels, centroids)
	}

	inertia := 0.0
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return labels, inertia
}

func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for _, c := range centroids {
		for j := range c {
			c[j] = 0
		}
	}
	for i, p := range points {
		floats.Add(centroids[labels[i]], p)
		counts[labels[i]]++
	}
	for c, count := range counts {
		if count > 0 {
			floats.Scale(1/float64(count), centroids[c])
		}
	}
}

// reseedEmpty moves every empty centroid onto the point farthest from its
// own centroid, taken from a cluster with more than one member. Identical
// points are never split apart.
func reseedEmpty(points [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}

	for c := range centroids {
		if counts[c] > 0 {
			continue
		}

		far, farDist := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		// Nothing to split when every point sits on its centroid.
		if far < 0 || farDist == 0 {
			continue
		}

		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		copy(centroids[c], points[far])
	}
}

// nearest returns the index of the closest centroid; ties go to the lowest
// index.
func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func relabelByFirstAppearance(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		m, ok := mapping[l]
		if !ok {
			m = len(mapping)
			mapping[l] = m
		}
		out[i] = m
	}
	return out
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
