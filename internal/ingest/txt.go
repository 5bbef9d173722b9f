package ingest

import (
	"bufio"
	"io"
	"strings"

	"github.com/example/happyml/internal/dataset"
)

// sentenceEnd reports whether word ends a sentence, the same terminator
// set text.ChunkBySentence scans for.
func sentenceEnd(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}

// PackWords word-packs text into rows of at most characterLimit bytes
// each, flushing a row early once a sentence boundary is crossed and the
// row is already within 80% of the limit. A single word longer than
// characterLimit is kept intact as its own row rather than split.
func PackWords(text string, characterLimit int) []string {
	if characterLimit <= 0 {
		return []string{text}
	}
	flushThreshold := (characterLimit * 8) / 10

	var rows []string
	var row strings.Builder

	flush := func() {
		if row.Len() > 0 {
			rows = append(rows, row.String())
			row.Reset()
		}
	}

	for _, word := range strings.Fields(text) {
		addLen := len(word)
		if row.Len() > 0 {
			addLen++ // separating space
		}
		if row.Len()+addLen > characterLimit {
			flush()
		}
		if row.Len() > 0 {
			row.WriteByte(' ')
		}
		row.WriteString(word)

		if sentenceEnd(word) && row.Len() >= flushThreshold {
			flush()
		}
	}
	flush()

	return rows
}

// TXT reads r line-by-line (lines are treated as paragraph breaks and
// packed independently so a paragraph boundary never merges into the next
// one's first sentence), word-packs each paragraph via PackWords, and
// feeds every packed row as a single source column through groups into w.
func TXT(r io.Reader, characterLimit int, groups []ColumnGroup, w *dataset.Writer) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, packed := range PackWords(line, characterLimit) {
			res.RowsRead++
			if err := ingestRecord(groups, []string{packed}, w, &res); err != nil {
				return res, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return res, err
	}
	return res, nil
}
