// Package keyspace generates the ordered search terms swept by each strategy.
package keyspace

import (
	"iter"
	"strconv"
	"strings"
)

const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// Sequence is a finite, stable, indexable list of search terms.
// Implementations compute terms on demand instead of holding them all.
type Sequence interface {
	Len() int
	At(i int) string
	// IndexOf returns the position of term or -1.
	IndexOf(term string) int
}

// ngramSequence enumerates every word over an alphabet for each length in
// [minLen, maxLen], shorter words first and lexicographic within a length.
type ngramSequence struct {
	alphabet []rune
	position map[rune]int
	minLen   int
	sizes    []int
	total    int
}

func NewNgrams(alphabet string, minLen, maxLen int) Sequence {
	runes := []rune(alphabet)
	s := &ngramSequence{alphabet: runes, position: make(map[rune]int, len(runes)), minLen: minLen}
	for i, r := range runes {
		s.position[r] = i
	}
	for l := minLen; l <= maxLen; l++ {
		size := 1
		for i := 0; i < l; i++ {
			size *= len(runes)
		}
		s.sizes = append(s.sizes, size)
		s.total += size
	}
	return s
}

func (s *ngramSequence) Len() int { return s.total }

func (s *ngramSequence) At(i int) string {
	if i < 0 || i >= s.total {
		return ""
	}
	length := s.minLen
	for _, size := range s.sizes {
		if i < size {
			break
		}
		i -= size
		length++
	}
	word := make([]rune, length)
	base := len(s.alphabet)
	for p := length - 1; p >= 0; p-- {
		word[p] = s.alphabet[i%base]
		i /= base
	}
	return string(word)
}

func (s *ngramSequence) IndexOf(term string) int {
	word := []rune(term)
	bucket := len(word) - s.minLen
	if bucket < 0 || bucket >= len(s.sizes) {
		return -1
	}
	offset := 0
	for _, size := range s.sizes[:bucket] {
		offset += size
	}
	idx := 0
	for _, r := range word {
		p, ok := s.position[r]
		if !ok {
			return -1
		}
		idx = idx*len(s.alphabet) + p
	}
	return offset + idx
}

// digitSequence yields "0", "1", ... up to upper-1.
type digitSequence struct {
	upper int
}

func NewDigits(upper int) Sequence {
	if upper < 0 {
		upper = 0
	}
	return digitSequence{upper: upper}
}

func (s digitSequence) Len() int { return s.upper }

func (s digitSequence) At(i int) string {
	if i < 0 || i >= s.upper {
		return ""
	}
	return strconv.Itoa(i)
}

func (s digitSequence) IndexOf(term string) int {
	n, err := strconv.Atoi(term)
	if err != nil || n < 0 || n >= s.upper || strconv.Itoa(n) != term {
		return -1
	}
	return n
}

// sliceSequence wraps an explicit term list, dropping blanks and duplicates.
type sliceSequence struct {
	terms []string
	index map[string]int
}

func NewSlice(terms []string) Sequence {
	s := sliceSequence{index: make(map[string]int, len(terms))}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := s.index[t]; dup {
			continue
		}
		s.index[t] = len(s.terms)
		s.terms = append(s.terms, t)
	}
	return s
}

func (s sliceSequence) Len() int { return len(s.terms) }

func (s sliceSequence) At(i int) string {
	if i < 0 || i >= len(s.terms) {
		return ""
	}
	return s.terms[i]
}

func (s sliceSequence) IndexOf(term string) int {
	if i, ok := s.index[term]; ok {
		return i
	}
	return -1
}

// Resume returns where a sweep restarts given the stored cursor: right after the
// cursor when it is part of seq, otherwise from the beginning. A cursor on the
// last term marks a finished sweep, so the next one starts over.
func Resume(seq Sequence, cursor string, found bool) (start int, resumed bool) {
	if !found || cursor == "" {
		return 0, false
	}
	i := seq.IndexOf(cursor)
	if i < 0 || i+1 >= seq.Len() {
		return 0, false
	}
	return i + 1, true
}

// Chunk is a contiguous slice of a sequence starting at index Start.
type Chunk struct {
	Start int
	Terms []string
}

// Chunks pulls bounded batches of seq from start onwards, one batch per iteration.
func Chunks(seq Sequence, start, size int) iter.Seq[Chunk] {
	if size < 1 {
		size = 1
	}
	return func(yield func(Chunk) bool) {
		for i := start; i < seq.Len(); i += size {
			end := min(i+size, seq.Len())
			terms := make([]string, 0, end-i)
			for j := i; j < end; j++ {
				terms = append(terms, seq.At(j))
			}
			if !yield(Chunk{Start: i, Terms: terms}) {
				return
			}
		}
	}
}
