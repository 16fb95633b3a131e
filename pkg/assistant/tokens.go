package assistant

import "github.com/anycompanyretail/shopbot/pkg/vector"

// defaultTokenLimit bounds the assembled document-qa prompt.
const defaultTokenLimit = 4096

// estimateTokens approximates the token count of text. Four characters per
// token is close enough for budget enforcement across the supported models.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// fitContext keeps the highest-ranked prefix of docs whose estimated token
// total fits within budget. Lower-ranked documents are dropped first.
func fitContext(docs []vector.Document, budget int) []vector.Document {
	if budget <= 0 {
		return nil
	}

	used := 0
	for i, doc := range docs {
		used += estimateTokens(doc.Text)
		if used > budget {
			return docs[:i]
		}
	}

	return docs
}
