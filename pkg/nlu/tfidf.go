package nlu

import (
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lower-cases text and returns its words of two or more characters.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// vector is a sparse, L2-normalised term weight vector.
type vector map[int]float64

func (v vector) dot(o vector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	var sum float64
	for k, w := range v {
		sum += w * o[k]
	}
	return sum
}

// Vectorizer weighs terms by tf-idf with a smoothed idf,
// ln((1+n)/(1+df)) + 1, and normalises every vector to unit length.
type Vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// Fit learns the vocabulary and idf weights of docs.
func Fit(docs []string) *Vectorizer {
	v := &Vectorizer{vocab: map[string]int{}}
	var df []int
	for _, doc := range docs {
		seen := map[int]bool{}
		for _, tok := range Tokenize(doc) {
			id, ok := v.vocab[tok]
			if !ok {
				id = len(df)
				v.vocab[tok] = id
				df = append(df, 0)
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}
	n := float64(len(docs))
	v.idf = make([]float64, len(df))
	for id, d := range df {
		v.idf[id] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return v
}

// Vocabulary returns the number of known terms.
func (v *Vectorizer) Vocabulary() int { return len(v.vocab) }

func (v *Vectorizer) transform(doc string) vector {
	out := vector{}
	for _, tok := range Tokenize(doc) {
		if id, ok := v.vocab[tok]; ok {
			out[id]++
		}
	}
	var norm float64
	for id, tf := range out {
		w := tf * v.idf[id]
		out[id] = w
		norm += w * w
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for id := range out {
		out[id] /= norm
	}
	return out
}

// Similarity returns the cosine similarity of a and b.
func (v *Vectorizer) Similarity(a, b string) float64 {
	return v.transform(a).dot(v.transform(b))
}

// Index answers nearest-neighbour queries over a fixed set of documents.
type Index struct {
	vectorizer *Vectorizer
	rows       []vector
}

// NewIndex fits a vectorizer on docs and indexes them.
func NewIndex(docs []string) *Index {
	vec := Fit(docs)
	rows := make([]vector, len(docs))
	for i, d := range docs {
		rows[i] = vec.transform(d)
	}
	return &Index{vectorizer: vec, rows: rows}
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.rows) }

// Nearest returns the position of the document most similar to query and
// its score. Ties go to the lowest position; it returns -1 on an empty index.
func (x *Index) Nearest(query string) (int, float64) {
	if len(x.rows) == 0 {
		return -1, 0
	}
	q := x.vectorizer.transform(query)
	best, score := 0, q.dot(x.rows[0])
	for i := 1; i < len(x.rows); i++ {
		if s := q.dot(x.rows[i]); s > score {
			best, score = i, s
		}
	}
	return best, score
}
