package document

import "strings"

// tokenize splits raw text on whitespace into candidate words. Any of
// them may carry an embedded sentence delimiter, handled by splitToken.
func tokenize(raw string) []string {
	return strings.Fields(raw)
}

// splitToken finds the first sentence delimiter in tok, if any. pre is the
// text before the delimiter, post is the text after it (which may itself
// need re-tokenising as a fresh token by the caller).
func splitToken(tok string) (pre string, term Terminator, post string, hasDelim bool) {
	for i := 0; i < len(tok); i++ {
		if IsDelimiter(tok[i]) {
			return tok[:i], Terminator(tok[i]), tok[i+1:], true
		}
	}
	return tok, NoTerm, "", false
}

// Parse reconstructs a Document from its serialised byte stream. It walks
// the stream word by word, closing a sentence at every delimiter
// character; trailing content with no delimiter becomes a final
// un-terminated sentence. This re-uses the exact same tokenizing and
// splitting rules as InsertWords, so loading a file and inserting into an
// empty document produce identical structures.
func Parse(data []byte) *Document {
	doc := &Document{}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return doc
	}
	// InsertWords materialises sentence 0 itself when the document is
	// empty, so a bare Parse of the whole stream is just one big insert.
	_, _ = InsertWords(doc, 0, 0, text, "")
	return doc
}
