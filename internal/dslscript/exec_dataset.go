package dslscript

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/encoding"
	"github.com/example/happyml/internal/ingest"
)

// datasetManifest is the human-readable record written to
// dataset.config next to a dataset's binary file, for diagnostics. It is
// not read back by training.
type datasetManifest struct {
	Location     string            `json:"location"`
	HasHeader    bool              `json:"has_header"`
	ColumnGroups []ColumnGroupSpec `json:"column_groups"`
}

func executeCreateDataset(ctx *Context, stmt *CreateDatasetStatement) (Result, error) {
	if ctx.DatasetExists(stmt.Name) {
		return Result{Success: false, Message: fmt.Sprintf("Dataset %s already exists.", stmt.Name)}, nil
	}
	if !strings.HasPrefix(stmt.Location, "file://") {
		return Result{Success: false, Message: "create dataset only supports file:// location type at the moment."}, nil
	}
	if len(stmt.ColumnGroups) == 0 {
		return Result{Success: false, Message: "create dataset must have at least one given column."}, nil
	}

	hasGiven := false
	for _, g := range stmt.ColumnGroups {
		hasGiven = hasGiven || g.Given
	}
	if !hasGiven {
		return Result{Success: false, Message: "create dataset must have at least one given column."}, nil
	}
	if overlaps(stmt.ColumnGroups) {
		return Result{Success: false, Message: "create dataset's column groups utilize columns that overlap."}, nil
	}

	path := strings.TrimPrefix(stmt.Location, "file://")
	ext := strings.ToLower(filepath.Ext(path))

	labelDictionaries, err := collectLabelDictionaries(path, ext, stmt.HasHeader, stmt.ColumnGroups)
	if err != nil {
		return Result{}, err
	}

	groups := make([]ingest.ColumnGroup, 0, len(stmt.ColumnGroups))
	for _, g := range stmt.ColumnGroups {
		ig, err := buildIngestGroup(g, labelDictionaries)
		if err != nil {
			return Result{}, err
		}
		groups = append(groups, ig)
	}

	src, err := os.Open(path)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("create dataset could not open %s: %v", path, err)}, nil
	}
	defer src.Close()

	header := ingest.BuildHeader(groups)
	rawFile, err := os.CreateTemp("", "happyml-raw-*.bin")
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset temp file: %w", err)
	}
	rawPath := rawFile.Name()
	defer os.Remove(rawPath)

	writer, err := dataset.NewWriter(rawFile, header)
	if err != nil {
		rawFile.Close()
		return Result{}, fmt.Errorf("dslscript: create dataset writer: %w", err)
	}

	var res ingest.Result
	switch ext {
	case ".csv":
		res, err = ingest.CSV(src, stmt.HasHeader, groups, writer)
	case ".tsv":
		res, err = ingest.TSV(src, stmt.HasHeader, groups, writer)
	case ".txt":
		res, err = ingest.TXT(src, 4000, groups, writer)
	default:
		rawFile.Close()
		return Result{Success: false, Message: "create dataset only supports .csv, .txt, and .tsv file types at the moment."}, nil
	}
	rawFile.Close()
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset ingest: %w", err)
	}
	if res.RowsWritten == 0 {
		return Result{Success: false, Message: "Empty dataset."}, nil
	}

	fmt.Fprintf(ctx.Out, "Ingested %d rows (%d skipped) from %s.\n", res.RowsWritten, res.RowsSkipped, path)
	fmt.Fprintln(ctx.Out, "Normalizing and standardizing values into final file.")

	if err := os.MkdirAll(ctx.DatasetDir(stmt.Name), 0o755); err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset directory: %w", err)
	}

	rawFile, err = os.Open(rawPath)
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset reopen raw file: %w", err)
	}
	defer rawFile.Close()
	fi, err := rawFile.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset stat raw file: %w", err)
	}
	reader, err := dataset.OpenReader(rawFile, fi.Size())
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset open raw reader: %w", err)
	}

	finalFile, err := os.Create(ctx.DatasetPath(stmt.Name))
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset final file: %w", err)
	}
	defer finalFile.Close()
	if _, err := dataset.NormalizeStandardize(reader, finalFile); err != nil {
		return Result{}, fmt.Errorf("dslscript: create dataset normalize: %w", err)
	}

	manifest := datasetManifest{Location: stmt.Location, HasHeader: stmt.HasHeader, ColumnGroups: stmt.ColumnGroups}
	if err := writeJSON(ctx.DatasetConfigPath(stmt.Name), manifest); err != nil {
		return Result{}, err
	}

	return Result{Success: true, Message: "Created."}, nil
}

func overlaps(groups []ColumnGroupSpec) bool {
	type span struct{ start, end int }
	var spans []span
	for _, g := range groups {
		count := g.Rows * g.Columns * g.Channels
		spans = append(spans, span{g.AtColumnIndex, g.AtColumnIndex + count})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return true
		}
	}
	return false
}

// collectLabelDictionaries scans the source file once to build the
// ordered distinct-value dictionary for every "label" column group, the
// same one-hot dictionary a LabelEncoder needs up front.
func collectLabelDictionaries(path, ext string, hasHeader bool, groups []ColumnGroupSpec) (map[int][]string, error) {
	needed := map[int]bool{}
	for _, g := range groups {
		if g.DataType == "label" {
			needed[g.AtColumnIndex] = true
		}
	}
	dictionaries := map[int][]string{}
	if len(needed) == 0 {
		return dictionaries, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dslscript: scan labels: open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if ext == ".tsv" {
		cr.Comma = '\t'
	}

	seen := map[int]map[string]bool{}
	for idx := range needed {
		seen[idx] = map[string]bool{}
	}

	first := true
	for {
		record, err := cr.Read()
		if err != nil {
			break
		}
		if first && hasHeader {
			first = false
			continue
		}
		first = false
		for idx := range needed {
			if idx >= len(record) {
				continue
			}
			v := record[idx]
			if !seen[idx][v] {
				seen[idx][v] = true
				dictionaries[idx] = append(dictionaries[idx], v)
			}
		}
	}
	for idx := range dictionaries {
		sort.Strings(dictionaries[idx])
	}
	return dictionaries, nil
}

func buildIngestGroup(g ColumnGroupSpec, labelDictionaries map[int][]string) (ingest.ColumnGroup, error) {
	side := ingest.SideGiven
	if !g.Given {
		side = ingest.SideExpected
	}
	count := g.Rows * g.Columns * g.Channels

	ig := ingest.ColumnGroup{
		Side:              side,
		ColumnIndex:       g.AtColumnIndex,
		SourceColumnCount: count,
		Name:              g.Label,
	}

	switch g.DataType {
	case "number":
		ig.Purpose = column.PurposeNumber
		ig.Encoder = encoding.ScalarEncoder{Rows: g.Rows, Columns: g.Columns, Channels: g.Channels}
	case "image":
		ig.Purpose = column.PurposeImage
		ig.Encoder = encoding.PixelEncoder{Rows: g.Rows, Columns: g.Columns, Channels: g.Channels}
	case "label":
		ig.Purpose = column.PurposeLabel
		labels := labelDictionaries[g.AtColumnIndex]
		ig.Labels = labels
		ig.SourceColumnCount = 1
		ig.Encoder = encoding.LabelEncoder{Labels: labels, Bias: 4}
	case "text":
		return ingest.ColumnGroup{}, fmt.Errorf("dslscript: column %q: text columns require a configured tokenizer/embedder, not available through the DSL yet", g.Label)
	default:
		return ingest.ColumnGroup{}, fmt.Errorf("dslscript: column %q: unsupported data type %q", g.Label, g.DataType)
	}
	return ig, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dslscript: write %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
