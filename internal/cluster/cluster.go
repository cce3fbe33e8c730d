// Package cluster groups normalized failure messages with TF-IDF vectors and
// seeded k-means.
package cluster

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxClusters is the upper bound on the number of clusters.
	DefaultMaxClusters = 3

	// DefaultSeed seeds k-means when no seed is configured.
	DefaultSeed int64 = 42
)

// Options configures Cluster.
type Options struct {
	// MaxClusters bounds k; values <= 0 mean DefaultMaxClusters.
	MaxClusters int

	// Seed makes label assignment reproducible.
	Seed int64

	// Inits and MaxIterations are passed to KMeans; zero means the defaults.
	Inits         int
	MaxIterations int
}

// DefaultOptions returns Options with the default bound and seed.
func DefaultOptions() Options {
	return Options{
		MaxClusters: DefaultMaxClusters,
		Seed:        DefaultSeed,
	}
}

// Result is the outcome of clustering a corpus.
type Result struct {
	// Labels holds one label in [0, K) per document, in corpus order.
	Labels []int

	// K is min(MaxClusters, len(corpus)).
	K int

	// Skipped is set when the corpus could not be clustered; every label is
	// then 0 and Reason explains why.
	Skipped bool
	Reason  string
}

// ClusterCount returns the number of distinct labels.
func (r *Result) ClusterCount() int {
	seen := make(map[int]bool)
	for _, l := range r.Labels {
		seen[l] = true
	}
	return len(seen)
}

// ClusterCountFor returns k for n documents: min(maxClusters, n).
func ClusterCountFor(maxClusters, n int) int {
	if maxClusters <= 0 {
		maxClusters = DefaultMaxClusters
	}
	if n < maxClusters {
		return n
	}
	return maxClusters
}

// Cluster assigns a label to every document of corpus.
//
// An empty corpus yields an empty Result without running the clusterer, and
// a single document is labelled 0. When the corpus has no vocabulary (every
// document normalizes to nothing) the result is marked Skipped and all
// documents share label 0. Cluster never fails.
func Cluster(corpus []string, opts Options) *Result {
	n := len(corpus)
	k := ClusterCountFor(opts.MaxClusters, n)

	switch n {
	case 0:
		return &Result{Labels: []int{}, K: 0}
	case 1:
		return &Result{Labels: []int{0}, K: 1}
	}

	matrix, err := Vectorize(corpus)
	if err != nil {
		return fallback(n, k, err)
	}

	labels, err := KMeans(matrix.Rows, KMeansConfig{
		K:             k,
		Seed:          opts.Seed,
		Inits:         opts.Inits,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return fallback(n, k, err)
	}

	return &Result{Labels: labels, K: k}
}

func fallback(n, k int, cause error) *Result {
	reason := fmt.Sprintf("clustering skipped: %v", cause)
	if errors.Is(cause, ErrEmptyVocabulary) {
		reason = "clustering skipped: no message contains a usable term"
	}
	return &Result{
		Labels:  make([]int, n),
		K:       k,
		Skipped: true,
		Reason:  reason,
	}
}
