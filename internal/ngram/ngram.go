// Package ngram loads weighted n-gram frequencies and maps them onto layouts.
package ngram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedLine reports a frequency line that cannot be parsed.
var ErrMalformedLine = errors.New("malformed frequency line")

// Unigrams maps symbols to their weight.
type Unigrams map[rune]float64

// Bigrams maps ordered symbol pairs to their weight.
type Bigrams map[[2]rune]float64

// Trigrams maps ordered symbol triples to their weight.
type Trigrams map[[3]rune]float64

// LoadUnigrams reads a unigram frequency file.
func LoadUnigrams(path string) (Unigrams, error) {
	out := Unigrams{}
	err := loadFile(path, 1, func(s []rune, w float64) { out[s[0]] += w })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadBigrams reads a bigram frequency file.
func LoadBigrams(path string) (Bigrams, error) {
	out := Bigrams{}
	err := loadFile(path, 2, func(s []rune, w float64) { out[[2]rune{s[0], s[1]}] += w })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTrigrams reads a trigram frequency file.
func LoadTrigrams(path string) (Trigrams, error) {
	out := Trigrams{}
	err := loadFile(path, 3, func(s []rune, w float64) { out[[3]rune{s[0], s[1], s[2]}] += w })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUnigrams parses unigram frequencies from r.
func ReadUnigrams(r io.Reader) (Unigrams, error) {
	out := Unigrams{}
	if err := Parse(r, 1, func(s []rune, w float64) { out[s[0]] += w }); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadBigrams parses bigram frequencies from r.
func ReadBigrams(r io.Reader) (Bigrams, error) {
	out := Bigrams{}
	if err := Parse(r, 2, func(s []rune, w float64) { out[[2]rune{s[0], s[1]}] += w }); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTrigrams parses trigram frequencies from r.
func ReadTrigrams(r io.Reader) (Trigrams, error) {
	out := Trigrams{}
	if err := Parse(r, 3, func(s []rune, w float64) { out[[3]rune{s[0], s[1], s[2]}] += w }); err != nil {
		return nil, err
	}
	return out, nil
}

func loadFile(path string, n int, add func([]rune, float64)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only frequency file.
			_ = cerr
		}
	}()
	if err := Parse(file, n, add); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse reads "<weight> <ngram>" lines. The n-gram follows a single space and
// may itself contain spaces; \n, \t and \\ are unescaped.
func Parse(r io.Reader, n int, add func([]rune, float64)) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		line = strings.TrimLeft(line, " \t")
		sep := strings.IndexByte(line, ' ')
		if sep < 0 {
			return fmt.Errorf("%w %d: %q", ErrMalformedLine, lineNo, line)
		}
		weight, err := strconv.ParseFloat(line[:sep], 64)
		if err != nil {
			return fmt.Errorf("%w %d: %v", ErrMalformedLine, lineNo, err)
		}
		symbols := []rune(unescape(line[sep+1:]))
		if len(symbols) != n {
			return fmt.Errorf("%w %d: expected %d symbols, got %d", ErrMalformedLine, lineNo, n, len(symbols))
		}
		add(symbols, weight)
	}
	return scanner.Err()
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		escaped = false
		switch r {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}
