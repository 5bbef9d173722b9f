package dslscript

import (
	"fmt"
	"strings"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/encoding"
	"github.com/example/happyml/internal/engine/tensor"
)

// executePrint implements `print {raw|pretty} <dataset> [limit <n>]`. raw
// prints each row's stored tensor values as-is; pretty runs each column's
// purpose-appropriate decoder (label lookup, ASCII art, denormalized
// number) the way a human reading the dataset would want to see it.
func executePrint(ctx *Context, stmt *PrintStatement) (Result, error) {
	if !ctx.DatasetExists(stmt.DatasetName) {
		return Result{Success: false, Message: fmt.Sprintf("Dataset %s does not exist.", stmt.DatasetName)}, nil
	}
	ds, reader, err := openDataset(ctx, stmt.DatasetName)
	if err != nil {
		return Result{}, err
	}
	if ds.RecordCount() == 0 {
		return Result{Success: true, Message: "Dataset is empty."}, nil
	}

	header := reader.Header()
	printed := 0
	for {
		if stmt.Limit >= 0 && printed >= stmt.Limit {
			break
		}
		pair, ok, err := ds.NextRecord()
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: print read row: %w", err)
		}
		if !ok {
			break
		}

		var parts []string
		parts = append(parts, decodeColumns(pair.Given, header.Given, stmt.Raw)...)
		parts = append(parts, decodeColumns(pair.Expected, header.Expected, stmt.Raw)...)
		fmt.Fprintln(ctx.Out, strings.Join(parts, " | "))
		printed++
	}

	return Result{Success: true, Message: "Complete."}, nil
}

func decodeColumns(tensors []tensor.Tensor, cols []column.Metadata, raw bool) []string {
	parts := make([]string, len(tensors))
	for i, t := range tensors {
		parts[i] = decodedText(decodeColumn(t, cols[i], raw))
	}
	return parts
}

func decodeColumn(t tensor.Tensor, col column.Metadata, raw bool) encoding.Decoded {
	if raw {
		return encoding.Decoded{Kind: encoding.DecodedTensor, Tensor: t}
	}
	switch col.Purpose {
	case column.PurposeLabel:
		return encoding.BestLabelDecoder{Labels: col.OrderedLabels}.Decode(t)
	case column.PurposeImage:
		return encoding.ImageDecoder{}.Decode(t)
	case column.PurposeNumber:
		return encoding.RawDecoder{
			IsNormalized:   col.IsNormalized,
			IsStandardized: col.IsStandardized,
			Min:            col.MinValue,
			Max:            col.MaxValue,
			Mean:           col.Mean,
			StdDev:         col.StdDev,
		}.Decode(t)
	default:
		return encoding.Decoded{Kind: encoding.DecodedTensor, Tensor: t}
	}
}

func decodedText(d encoding.Decoded) string {
	switch d.Kind {
	case encoding.DecodedText:
		return d.Text
	case encoding.DecodedImage:
		return strings.Join(d.Image, "\n")
	default:
		return tensor.PrettyPrintRow(d.Tensor, 0)
	}
}
