package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TrailingUnterminatedSentence(t *testing.T) {
	doc := Parse([]byte("Hello world. Another one! And this"))
	require.Len(t, doc.Sentences, 3)
	assert.Equal(t, []string{"Hello", "world"}, doc.Sentences[0].Words)
	assert.Equal(t, Terminator('.'), doc.Sentences[0].Term)
	assert.Equal(t, []string{"Another", "one"}, doc.Sentences[1].Words)
	assert.Equal(t, Terminator('!'), doc.Sentences[1].Term)
	assert.Equal(t, []string{"And", "this"}, doc.Sentences[2].Words)
	assert.Equal(t, NoTerm, doc.Sentences[2].Term)
}

func TestParse_Empty(t *testing.T) {
	doc := Parse([]byte(""))
	assert.Empty(t, doc.Sentences)
}

// S2: basic write — WRITE|notes.txt|0|alice then "0|Hello world." then ETIRW.
func TestInsertWords_S2BasicWrite(t *testing.T) {
	doc := &Document{}
	idx, err := InsertWords(doc, 0, 0, "Hello world.", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	require.Len(t, doc.Sentences, 1)
	assert.Equal(t, "Hello world.", doc.Sentences[0].String())
}

func TestInsertWords_TerminatedTailDoesNotLeaveEmptySentence(t *testing.T) {
	doc := &Document{}
	idx, err := InsertWords(doc, 0, 0, "Hello world.", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	require.Len(t, doc.Sentences, 1)

	idx, err = InsertWords(doc, 1, 0, "Next one.", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	require.Len(t, doc.Sentences, 2)
	assert.Equal(t, "Hello world.", doc.Sentences[0].String())
	assert.Equal(t, "Next one.", doc.Sentences[1].String())
}

// S3: delimiter split. "one two three" (no terminator), insert at
// sentence 0, word 1, raw text "big. shiny" → two sentences:
// "one big." and "shiny two three".
func TestInsertWords_S3DelimiterSplit(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{"one", "two", "three"}, Term: NoTerm}}}

	idx, err := InsertWords(doc, 0, 1, "big. shiny", "alice")
	require.NoError(t, err)

	require.Len(t, doc.Sentences, 2)
	assert.Equal(t, "one big.", doc.Sentences[0].String())
	assert.Equal(t, "shiny two three", doc.Sentences[1].String())
	assert.Equal(t, 1, idx)
}

func TestInsertWords_InterposesEmptySentenceWhenTailAlreadyTerminated(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{"A", "B", "C"}, Term: '.'}}}

	idx, err := InsertWords(doc, 0, 1, "X. Y", "alice")
	require.NoError(t, err)

	require.Len(t, doc.Sentences, 3)
	assert.Equal(t, "A X.", doc.Sentences[0].String())
	assert.Equal(t, "Y", doc.Sentences[1].String())
	assert.Equal(t, NoTerm, doc.Sentences[1].Term)
	assert.Equal(t, "B C.", doc.Sentences[2].String())
	assert.Equal(t, 1, idx)
}

func TestInsertWords_ZeroSentenceDocumentMaterialisesOne(t *testing.T) {
	doc := &Document{}
	idx, err := InsertWords(doc, 0, 0, "solo", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "solo", doc.Sentences[0].String())
}

func TestInsertWords_AppendRejectedWhenPreviousSentenceOpen(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{"open"}, Term: NoTerm}}}
	_, err := InsertWords(doc, 1, 0, "more", "alice")
	require.Error(t, err)
}

func TestInsertWords_AppendAllowedWhenPreviousSentenceTerminated(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{"done"}, Term: '.'}}}
	idx, err := InsertWords(doc, 1, 0, "next", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "next", doc.Sentences[1].String())
}

func TestInsertWords_WordIndexOutOfRangeRejected(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{"a", "b"}, Term: NoTerm}}}
	_, err := InsertWords(doc, 0, 5, "c", "alice")
	require.Error(t, err)
}

// Invariant 3: terminator is one of .!? or none, and only the last
// sentence may lack one.
func TestInvariant_OnlyLastSentenceMayLackTerminator(t *testing.T) {
	doc := Parse([]byte("First. Second! Third? Fourth"))
	for i, s := range doc.Sentences {
		if i != len(doc.Sentences)-1 {
			assert.NotEqual(t, NoTerm, s.Term, "sentence %d", i)
		}
	}
	assert.Equal(t, NoTerm, doc.Sentences[len(doc.Sentences)-1].Term)
}

// Invariant 4: concatenation of all words equals previous concatenation
// with the inserted tokens spliced in at the (sentence, word) position.
func TestInvariant_ConcatenationPreserved(t *testing.T) {
	doc := Parse([]byte("alpha beta gamma."))
	before := flatten(doc)

	_, err := InsertWords(doc, 0, 1, "middle", "alice")
	require.NoError(t, err)

	after := flatten(doc)
	assert.Equal(t, append(append(append([]string{}, before[:1]...), "middle"), before[1:]...), after)
}

func flatten(doc *Document) []string {
	var words []string
	for _, s := range doc.Sentences {
		words = append(words, s.Words...)
	}
	return words
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := &Document{Sentences: []Sentence{
		{Words: []string{"Hello", "world"}, Term: '.'},
		{Words: []string{"Again"}, Term: NoTerm},
	}}

	require.NoError(t, Save(dir, "notes.txt", doc))

	loaded, err := Load(dir, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, doc.String(), loaded.String())

	raw, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "Again"))
}

func TestValidate_CapacityLimits(t *testing.T) {
	doc := &Document{Sentences: []Sentence{{Words: []string{strings.Repeat("x", 300)}, Term: '.'}}}
	err := doc.Validate(DefaultLimits())
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	doc := Parse([]byte("one two. three"))
	words, _, sentences := doc.Stats()
	assert.Equal(t, 3, words)
	assert.Equal(t, 2, sentences)
}
