// Package dslscript implements HappyML's line-oriented command DSL: a
// lexer/parser for `create dataset`, `create task`, `execute task`,
// `print`, `help`, and `exit` statements, plus an Execute step that drives
// internal/ingest, internal/dataset, and internal/training.
package dslscript

import (
	"fmt"
	"strings"
)

// Token is one lexed unit: a bareword, a quoted string, a number, or a
// single punctuation character ( ) [ ] , :.
type Token struct {
	Text   string
	Quoted bool
}

const punctuation = "()[],:"

// Lex splits one DSL statement line into tokens. Strings may be single- or
// double-quoted with backslash-escaping of the quote character; bare
// punctuation `( ) [ ] , :` is split into its own token even when not
// surrounded by spaces.
func Lex(line string) ([]Token, error) {
	var tokens []Token
	runes := []rune(line)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			i++
		case r == '\'' || r == '"':
			tok, next, err := lexQuoted(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case strings.ContainsRune(punctuation, r):
			tokens = append(tokens, Token{Text: string(r)})
			i++
		default:
			start := i
			for i < len(runes) && runes[i] != ' ' && runes[i] != '\t' && !strings.ContainsRune(punctuation, runes[i]) {
				i++
			}
			tokens = append(tokens, Token{Text: string(runes[start:i])})
		}
	}
	return tokens, nil
}

func lexQuoted(runes []rune, start int) (Token, int, error) {
	quote := runes[start]
	var b strings.Builder
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && runes[i+1] == quote {
			b.WriteRune(quote)
			i += 2
			continue
		}
		if r == quote {
			return Token{Text: b.String(), Quoted: true}, i + 1, nil
		}
		b.WriteRune(r)
		i++
	}
	return Token{}, 0, fmt.Errorf("dslscript: unterminated quoted string starting at column %d", start)
}
