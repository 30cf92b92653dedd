// Package document implements the sentence/word model: an ordered
// list of sentences, each an ordered list of words plus an optional
// terminator drawn from {'.', '!', '?'}.
package document

import (
	"strings"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

// Terminator is the punctuation that closes a sentence. The zero value
// means "no terminator", permitted only on the final sentence of a
// document.
type Terminator byte

// NoTerm marks a sentence with no terminator.
const NoTerm Terminator = 0

// IsDelimiter reports whether b is one of the three recognised sentence
// terminators.
func IsDelimiter(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// Sentence is an ordered run of words plus an optional terminator.
type Sentence struct {
	Words []string
	Term  Terminator
}

// String renders a sentence in its canonical form: words joined by a
// single space, followed by the terminator if any.
func (s Sentence) String() string {
	return WordsToString(s.Words, s.Term)
}

// WordsToString joins words with a single space and appends delimiter if
// it is not NoTerm.
func WordsToString(words []string, delimiter Terminator) string {
	var b strings.Builder
	b.WriteString(strings.Join(words, " "))
	if delimiter != NoTerm {
		b.WriteByte(byte(delimiter))
	}
	return b.String()
}

// Document is an ordered list of sentences.
type Document struct {
	Sentences []Sentence
}

// SentenceToString renders d.Sentences[i]; returns "" for an out-of-range
// index rather than panicking, since this is used by best-effort renderers
// (INFO, logging).
func (d *Document) SentenceToString(i int) string {
	if i < 0 || i >= len(d.Sentences) {
		return ""
	}
	return d.Sentences[i].String()
}

// String renders the full document: one sentence per line, joined by a
// single newline, with no trailing newline.
func (d *Document) String() string {
	lines := make([]string, len(d.Sentences))
	for i, s := range d.Sentences {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

// Stats returns word, character, and sentence counts, feeding the storage
// node's metadata file and the name node's INFO block.
func (d *Document) Stats() (words, chars, sentences int) {
	sentences = len(d.Sentences)
	for _, s := range d.Sentences {
		words += len(s.Words)
		for _, w := range s.Words {
			chars += len(w)
		}
		if s.Term != NoTerm {
			chars++
		}
	}
	return words, chars, sentences
}

// Limits enumerates the size caps a document and its sub-components
// must respect.
type Limits struct {
	MaxSentenceChars int
	MaxWordChars     int
	MaxDocumentBytes int
}

// DefaultLimits returns the standard per-sentence, per-word, and
// per-document size caps.
func DefaultLimits() Limits {
	return Limits{MaxSentenceChars: 2048, MaxWordChars: 256, MaxDocumentBytes: 16 * 1024}
}

// Validate checks d against limits, returning a scerr-typed error
// describing the first violation found.
func (d *Document) Validate(limits Limits) error {
	if len(d.String()) > limits.MaxDocumentBytes {
		return scerr.New(scerr.ErrCapacityReached, "document exceeds %d bytes", limits.MaxDocumentBytes)
	}
	for i, s := range d.Sentences {
		if len(s.String()) > limits.MaxSentenceChars {
			return scerr.New(scerr.ErrCapacityReached, "sentence %d exceeds %d characters", i, limits.MaxSentenceChars)
		}
		for _, w := range s.Words {
			if len(w) > limits.MaxWordChars {
				return scerr.New(scerr.ErrCapacityReached, "word %q exceeds %d characters", w, limits.MaxWordChars)
			}
		}
		if s.Term == NoTerm && i != len(d.Sentences)-1 {
			return scerr.New(scerr.ErrIOFailure, "sentence %d has no terminator but is not final", i)
		}
	}
	return nil
}
