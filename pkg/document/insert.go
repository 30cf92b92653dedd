package document

import "github.com/scriptoria/scriptoria/pkg/scerr"

// InsertWords is the core mutation operation. It inserts
// rawText, tokenised on whitespace, into the sentence at sentenceIndex
// starting immediately before the word at wordIndex (or at the tail when
// wordIndex equals the word count). Tokens carrying a sentence delimiter
// split the sentence: the delimiter terminates the current sentence, and
// any words that previously followed the insertion point are displaced
// into a new sentence immediately after, carrying the original
// terminator with them. It returns the index of the sentence the last
// inserted token now lives in.
func InsertWords(doc *Document, sentenceIndex, wordIndex int, rawText, user string) (int, error) {
	if err := prepareTarget(doc, sentenceIndex, wordIndex); err != nil {
		return 0, err
	}

	tokens := tokenize(rawText)
	if len(tokens) == 0 {
		return sentenceIndex, nil
	}

	curSent, curWord := sentenceIndex, wordIndex
	lastSent := curSent

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		pre, term, post, hasDelim := splitToken(tok)
		if !hasDelim {
			insertWordAt(doc, curSent, curWord, tok)
			curWord++
			lastSent = curSent
			continue
		}

		sent := doc.Sentences[curSent]
		headWords := append([]string{}, sent.Words[:curWord]...)
		if pre != "" {
			headWords = append(headWords, pre)
		}
		tailWords := append([]string{}, sent.Words[curWord:]...)

		newCurrent := Sentence{Words: headWords, Term: term}
		moreTokensRemain := post != "" || i+1 < len(tokens)
		needsTail := len(tailWords) > 0

		replacement := []Sentence{newCurrent}
		nextExists := false
		switch {
		case needsTail:
			displaced := Sentence{Words: tailWords, Term: sent.Term}
			if moreTokensRemain && displaced.Term != NoTerm {
				// The displaced tail is itself a complete, already-terminated
				// sentence: don't graft new words onto its head. Interpose an
				// empty sentence to carry the rest of this insertion instead.
				replacement = append(replacement, Sentence{}, displaced)
			} else {
				replacement = append(replacement, displaced)
			}
			nextExists = true
		case moreTokensRemain:
			// No displaced tail to carry, but more words are coming right
			// after this delimiter: give them a fresh open sentence instead
			// of inventing one that would otherwise stay empty forever.
			replacement = append(replacement, Sentence{})
			nextExists = true
		}
		replaceSentence(doc, curSent, replacement)

		if nextExists {
			curSent++
			curWord = 0
			if post != "" {
				// Handle the text after the delimiter as the next token, so
				// any further delimiter inside it splits again.
				tokens = append(tokens[:i+1], append([]string{post}, tokens[i+1:]...)...)
			}
		}
		lastSent = curSent
	}

	return lastSent, nil
}

// prepareTarget validates (sentenceIndex, wordIndex) against the document
// and materialises a fresh sentence for the two permitted edge cases: an
// empty document, or an append immediately after a terminated final
// sentence.
func prepareTarget(doc *Document, sentenceIndex, wordIndex int) error {
	n := len(doc.Sentences)

	switch {
	case n == 0:
		if sentenceIndex != 0 {
			return scerr.New(scerr.ErrSentenceOutOfRange, "sentence %d out of range", sentenceIndex)
		}
		doc.Sentences = append(doc.Sentences, Sentence{})

	case sentenceIndex == n:
		prev := doc.Sentences[n-1]
		if prev.Term == NoTerm {
			return scerr.New(scerr.ErrSentenceOutOfRange, "cannot append sentence %d: previous sentence is unterminated", sentenceIndex)
		}
		doc.Sentences = append(doc.Sentences, Sentence{})

	case sentenceIndex < 0 || sentenceIndex > n:
		return scerr.New(scerr.ErrSentenceOutOfRange, "sentence %d out of range", sentenceIndex)
	}

	target := doc.Sentences[sentenceIndex]
	if wordIndex < 0 || wordIndex > len(target.Words) {
		return scerr.New(scerr.ErrWordOutOfRange, "word %d out of range", wordIndex)
	}
	return nil
}

// insertWordAt inserts word into doc.Sentences[sentIdx].Words at wordIdx.
func insertWordAt(doc *Document, sentIdx, wordIdx int, word string) {
	words := doc.Sentences[sentIdx].Words
	words = append(words, "")
	copy(words[wordIdx+1:], words[wordIdx:])
	words[wordIdx] = word
	doc.Sentences[sentIdx].Words = words
}

// replaceSentence splices replacement in place of doc.Sentences[idx].
func replaceSentence(doc *Document, idx int, replacement []Sentence) {
	tail := append([]Sentence{}, doc.Sentences[idx+1:]...)
	doc.Sentences = append(doc.Sentences[:idx], replacement...)
	doc.Sentences = append(doc.Sentences, tail...)
}
