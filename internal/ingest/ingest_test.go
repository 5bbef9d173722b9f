package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/encoding"
)

func numericGroups() []ColumnGroup {
	return []ColumnGroup{
		{Side: SideGiven, Purpose: column.PurposeNumber, Name: "x", ColumnIndex: 0, SourceColumnCount: 2, Encoder: encoding.ScalarEncoder{Rows: 1, Columns: 2, Channels: 1}},
		{Side: SideExpected, Purpose: column.PurposeNumber, Name: "y", ColumnIndex: 2, SourceColumnCount: 1, Encoder: encoding.ScalarEncoder{Rows: 1, Columns: 1, Channels: 1}},
	}
}

func TestCSVIngestDedup(t *testing.T) {
	groups := numericGroups()
	header := BuildHeader(groups)

	var out bytes.Buffer
	w, err := dataset.NewWriter(&out, header)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	src := "a,b,c\n0,0,0\n0,1,1\n0,1,1\n1,0,1\n"
	res, err := CSV(strings.NewReader(src), true, groups, w)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if res.RowsWritten != 3 {
		t.Fatalf("rows written = %d, want 3 (one duplicate collapsed)", res.RowsWritten)
	}
}

func TestCSVIngestSkipsBadRow(t *testing.T) {
	groups := numericGroups()
	header := BuildHeader(groups)

	var out bytes.Buffer
	w, err := dataset.NewWriter(&out, header)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	src := "0,0,0\nnot-a-number,1,1\n1,1,0\n"
	res, err := CSV(strings.NewReader(src), false, groups, w)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if res.RowsWritten != 2 {
		t.Fatalf("rows written = %d, want 2", res.RowsWritten)
	}
	if res.RowsSkipped != 1 {
		t.Fatalf("rows skipped = %d, want 1", res.RowsSkipped)
	}
}

func TestTSVIngest(t *testing.T) {
	groups := numericGroups()
	header := BuildHeader(groups)

	var out bytes.Buffer
	w, err := dataset.NewWriter(&out, header)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	src := "0\t0\t0\n1\t1\t0\n"
	res, err := TSV(strings.NewReader(src), false, groups, w)
	if err != nil {
		t.Fatalf("TSV: %v", err)
	}
	if res.RowsWritten != 2 {
		t.Fatalf("rows written = %d, want 2", res.RowsWritten)
	}
}

func TestPackWordsRespectsLimit(t *testing.T) {
	text := "One two three. Four five six seven eight nine ten eleven twelve."
	rows := PackWords(text, 20)
	for _, row := range rows {
		if len(row) > 20 {
			t.Fatalf("row %q exceeds limit of 20 bytes", row)
		}
	}
	if len(rows) < 2 {
		t.Fatalf("expected multiple packed rows, got %d", len(rows))
	}
}

func TestPackWordsFlushesAtSentenceBoundaryNearLimit(t *testing.T) {
	// "Hi there." is 9 bytes, within 80% of a 10-byte limit (threshold 8);
	// it should flush immediately rather than absorb the next word.
	rows := PackWords("Hi there. More words follow after that.", 10)
	if len(rows) == 0 {
		t.Fatalf("expected at least one row")
	}
	if rows[0] != "Hi there." {
		t.Fatalf("first row = %q, want %q", rows[0], "Hi there.")
	}
}

func TestPackWordsKeepsOversizedWordIntact(t *testing.T) {
	rows := PackWords("supercalifragilisticexpialidocious", 10)
	if len(rows) != 1 || rows[0] != "supercalifragilisticexpialidocious" {
		t.Fatalf("rows = %v, want the word kept intact as a single row", rows)
	}
}
