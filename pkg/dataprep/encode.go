package dataprep

import "sort"

// OneHotEncoder maps a category onto a fixed-width indicator vector. The vocabulary is
// sorted at fit time; with DropFirst the first category encodes as all zeros. Categories
// unseen at fit time also encode as all zeros.
type OneHotEncoder struct {
	Vocabulary []string
	DropFirst  bool
}

// FitOneHot captures the sorted set of distinct non-empty values.
func FitOneHot(col []string, dropFirst bool) *OneHotEncoder {
	seen := map[string]struct{}{}
	for _, v := range col {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for v := range seen {
		vocab = append(vocab, v)
	}
	sort.Strings(vocab)
	return &OneHotEncoder{Vocabulary: vocab, DropFirst: dropFirst}
}

// Width is the number of output columns.
func (e *OneHotEncoder) Width() int {
	if e.DropFirst && len(e.Vocabulary) > 0 {
		return len(e.Vocabulary) - 1
	}
	return len(e.Vocabulary)
}

// Names returns "<column>_<category>" labels for the output columns.
func (e *OneHotEncoder) Names(column string) []string {
	out := make([]string, 0, e.Width())
	for i, v := range e.Vocabulary {
		if e.DropFirst && i == 0 {
			continue
		}
		out = append(out, column+"_"+v)
	}
	return out
}

// EncodeInto writes the indicator vector for v into dst, which must have length Width().
func (e *OneHotEncoder) EncodeInto(dst []float64, v string) {
	for i := range dst {
		dst[i] = 0
	}
	pos := sort.SearchStrings(e.Vocabulary, v)
	if pos == len(e.Vocabulary) || e.Vocabulary[pos] != v {
		return
	}
	if e.DropFirst {
		if pos == 0 {
			return
		}
		pos--
	}
	dst[pos] = 1
}

// Encode one-hot encodes a column.
func (e *OneHotEncoder) Encode(col []string) [][]float64 {
	out := make([][]float64, len(col))
	for i, v := range col {
		out[i] = make([]float64, e.Width())
		e.EncodeInto(out[i], v)
	}
	return out
}
