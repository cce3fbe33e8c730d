package cluster

import (
	"errors"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned when no document of the corpus contains a
// single token.
var ErrEmptyVocabulary = errors.New("empty vocabulary: no document contains any term")

// Matrix holds one TF-IDF feature vector per document.
type Matrix struct {
	// Vocabulary is the sorted list of terms; column i of every row is the
	// weight of Vocabulary[i].
	Vocabulary []string
	Rows       [][]float64
}

// Vectorize builds L2-normalised TF-IDF vectors for the corpus. Terms are
// whitespace separated unigrams. The weighting uses raw term counts and the
// smoothed inverse document frequency ln((1+n)/(1+df)) + 1.
func Vectorize(corpus []string) (*Matrix, error) {
	tokenized := make([][]string, len(corpus))
	df := make(map[string]int)
	for i, doc := range corpus {
		tokens := strings.Fields(doc)
		tokenized[i] = tokens

		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocabulary := make([]string, 0, len(df))
	for term := range df {
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)

	column := make(map[string]int, len(vocabulary))
	idf := make([]float64, len(vocabulary))
	n := float64(len(corpus))
	for i, term := range vocabulary {
		column[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float64, len(corpus))
	for i, tokens := range tokenized {
		row := make([]float64, len(vocabulary))
		for _, tok := range tokens {
			row[column[tok]]++
		}
		floats.Mul(row, idf)

		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		rows[i] = row
	}

	return &Matrix{Vocabulary: vocabulary, Rows: rows}, nil
}
