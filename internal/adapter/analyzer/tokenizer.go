package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer turns skill text into normalized terms for the hashing embedder.
type Tokenizer struct {
	stopwords map[string]struct{}
	fold      bool
}

// NewTokenizer creates a new Tokenizer. With fold set, common English
// inflections are trimmed so "tests", "testing" and "test" share a term.
func NewTokenizer(fold bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		fold:      fold,
	}
}

// Tokenize splits text into lowercase terms, dropping stopwords and
// single-character words.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.fold {
			word = foldSuffix(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Bigrams joins adjacent terms, giving the embedder some word-order signal.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 1; i < len(tokens); i++ {
		out = append(out, tokens[i-1]+"_"+tokens[i])
	}
	return out
}

var foldSuffixes = []string{"ing", "ies", "es", "ed", "s"}

func foldSuffix(word string) string {
	for _, suf := range foldSuffixes {
		if len(word) > len(suf)+2 && strings.HasSuffix(word, suf) {
			stem := strings.TrimSuffix(word, suf)
			if suf == "ies" {
				return stem + "y"
			}
			if strings.HasSuffix(word, "ss") && suf == "s" {
				return word
			}
			return stem
		}
	}
	return word
}

// splitWords splits on anything that is not a letter, digit or underscore,
// so "pytest-fixtures" and "pytest_fixtures" differ only by the joiner.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "if", "or", "so", "can", "do", "does",
		"been", "being", "would", "could", "should", "may", "must",
		"which", "what", "when", "where", "how", "all", "each",
		"use", "using", "used", "skill", "skills",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
