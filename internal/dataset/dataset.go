package dataset

import (
	"fmt"
	"math/rand"

	"github.com/example/happyml/internal/engine/tensor"
)

// TrainingPair is one row's given and expected tensors.
type TrainingPair struct {
	Given    []tensor.Tensor
	Expected []tensor.Tensor
}

// Dataset is a sequential cursor over a Reader, optionally restricted to a
// [first,last) row window (a "portion") and optionally shuffled through a
// shared Shuffler. Datasets returned by Slice share their parent's Reader
// and Shuffler, so they stay co-indexed under the same shuffle, the way a
// train/test split must.
type Dataset struct {
	reader   *Reader
	shuffler *Shuffler
	first    int64
	last     int64
	cursor   int64
}

// New wraps reader as a Dataset covering its full row range, with its own
// private shuffler.
func New(reader *Reader) *Dataset {
	n := reader.RowCount()
	return &Dataset{reader: reader, shuffler: NewShuffler(n), first: 0, last: n}
}

// RecordCount returns the number of rows in this dataset's window.
func (d *Dataset) RecordCount() int64 { return d.last - d.first }

// Shuffle re-randomizes the row order visited by NextRecord.
func (d *Dataset) Shuffle(rng *rand.Rand) { d.shuffler.Shuffle(rng) }

// Restart resets the read cursor to the start of the window.
func (d *Dataset) Restart() { d.cursor = 0 }

// Slice returns a new Dataset restricted to [first,last) of this dataset's
// current window, sharing the same underlying reader and shuffler so the
// two stay co-indexed (grounded on the source's DataSourcePortion: a train
// set and a test set carved from the same shuffled base).
func (d *Dataset) Slice(first, last int64) (*Dataset, error) {
	if first < 0 || last > d.RecordCount() || first > last {
		return nil, fmt.Errorf("dataset: slice [%d,%d) out of range [0,%d)", first, last, d.RecordCount())
	}
	return &Dataset{
		reader:   d.reader,
		shuffler: d.shuffler,
		first:    d.first + first,
		last:     d.first + last,
	}, nil
}

// NextRecord reads the next row in shuffle order, or reports done=false
// once the window is exhausted.
func (d *Dataset) NextRecord() (pair TrainingPair, done bool, err error) {
	if d.cursor >= d.RecordCount() {
		return TrainingPair{}, false, nil
	}
	rowIndex := d.shuffler.Lookup(d.first + d.cursor)
	given, expected, err := d.reader.ReadRow(rowIndex)
	if err != nil {
		return TrainingPair{}, false, err
	}
	d.cursor++
	return TrainingPair{Given: given, Expected: expected}, true, nil
}

// NextBatch reads up to n rows via repeated NextRecord calls.
func (d *Dataset) NextBatch(n int) ([]TrainingPair, error) {
	batch := make([]TrainingPair, 0, n)
	for len(batch) < n {
		pair, ok, err := d.NextRecord()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		batch = append(batch, pair)
	}
	return batch, nil
}

// Header exposes the dataset's column metadata.
func (d *Dataset) Header() Header { return d.reader.Header() }
