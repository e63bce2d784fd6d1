package text

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 40
)

var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into windows of at most ChunkSize runes. It prefers to
// cut on the coarsest separator that occurs in the text and only falls back
// to finer ones for pieces that are still too long. Neighbouring windows share
// up to Overlap runes.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Splitter{ChunkSize: size, Overlap: overlap, Separators: DefaultSeparators}
}

func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, separator)
	}

	var chunks, pending []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) < s.ChunkSize {
			pending = append(pending, p)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, separator)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, s.split(p, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, separator)...)
	}
	return chunks
}

func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	var chunks, window []string
	total := 0

	joinedLen := func(n int) int {
		if len(window) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > s.ChunkSize && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, separator)); doc != "" {
				chunks = append(chunks, doc)
			}
			for total > s.Overlap || (joinedLen(n) > s.ChunkSize && total > 0) {
				drop := runeLen(window[0])
				if len(window) > 1 {
					drop += sepLen
				}
				total -= drop
				window = window[1:]
			}
		}
		total = joinedLen(n)
		window = append(window, p)
	}
	if doc := strings.TrimSpace(strings.Join(window, separator)); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
