package summarize

import (
	"strings"
	"unicode/utf8"
)

// abbreviations end in a period without ending a sentence.
var abbreviations = map[string]bool{
	"al": true, "e.g": true, "i.e": true, "cf": true, "vs": true, "ca": true,
	"fig": true, "figs": true, "eq": true, "eqs": true, "ref": true, "refs": true,
	"approx": true, "resp": true, "sp": true, "spp": true, "dr": true,
}

// SplitSentences splits text into whitespace-normalized sentences. A sentence
// ends at '.', '!' or '?' (plus any closing quotes or brackets) followed by
// whitespace or the end of text. Trailing text without a terminator forms a
// final sentence.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && (isTerminator(text[j]) || isCloser(text[j])) {
			j++
		}
		if j < len(text) && text[j] != ' ' {
			i = j - 1
			continue
		}
		if text[i] == '.' && isAbbreviation(text[start:i]) {
			i = j - 1
			continue
		}
		sentences = append(sentences, text[start:j])
		start = j + 1
		i = j
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isCloser(c byte) bool {
	return c == '"' || c == '\'' || c == ')' || c == ']'
}

// isAbbreviation reports whether the word preceding a period is a known
// abbreviation.
func isAbbreviation(before string) bool {
	word := before
	if k := strings.LastIndexByte(before, ' '); k >= 0 {
		word = before[k+1:]
	}
	word = strings.TrimLeft(word, "([\"'")
	return abbreviations[strings.ToLower(word)]
}

// Chunk groups sentences into chunks of roughly budget characters. Sentences
// are added while the chunk is below budget; the sentence that reaches or
// crosses the budget closes the chunk. A sentence is never split.
func Chunk(text string, budget int) []string {
	var chunks []string
	var current []string
	size := 0
	for _, s := range SplitSentences(text) {
		if len(current) > 0 {
			size++ // joining space
		}
		current = append(current, s)
		size += utf8.RuneCountInString(s)
		if size >= budget {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			size = 0
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
