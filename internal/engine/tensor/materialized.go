package tensor

import (
	"fmt"
	"hash/fnv"

	"github.com/example/happyml/internal/engine/floatcodec"
)

// index computes the linear offset into a dense (channels-outermost)
// buffer: channel varies slowest, then row, then column.
func index(rows, cols, row, col, channel int) int {
	return channel*rows*cols + row*cols + col
}

// Full32 is a dense float32 tensor, the highest-precision materialized kind.
type Full32 struct {
	rows, cols, chans int
	data              []float32
	parallelRows      bool
}

// NewFull32 creates a dense float32 tensor from row-major, channel-outermost
// data. len(data) must equal rows*cols*channels.
func NewFull32(rows, cols, channels int, data []float32) *Full32 {
	if len(data) != rows*cols*channels {
		panic(fmt.Sprintf("tensor: Full32 data length %d does not match shape (%d,%d,%d)", len(data), rows, cols, channels))
	}
	return &Full32{rows: rows, cols: cols, chans: channels, data: data, parallelRows: true}
}

// ZerosFull32 creates a zero-filled dense float32 tensor.
func ZerosFull32(rows, cols, channels int) *Full32 {
	return &Full32{rows: rows, cols: cols, chans: channels, data: make([]float32, rows*cols*channels), parallelRows: true}
}

func (t *Full32) Rows() int               { return t.rows }
func (t *Full32) Columns() int            { return t.cols }
func (t *Full32) Channels() int           { return t.chans }
func (t *Full32) IsMaterialized() bool    { return true }
func (t *Full32) ReadRowsInParallel() bool { return t.parallelRows }
func (t *Full32) Contains(other Tensor) bool {
	return Tensor(t) == other
}

func (t *Full32) GetValue(row, col, channel int) float32 {
	return t.data[index(t.rows, t.cols, row, col, channel)]
}

// SetValue writes a cell directly. Only valid on a materialized tensor the
// caller owns exclusively.
func (t *Full32) SetValue(row, col, channel int, v float32) {
	t.data[index(t.rows, t.cols, row, col, channel)] = v
}

// Data returns the underlying buffer (channel-outermost, row-major).
func (t *Full32) Data() []float32 { return t.data }

// Assign copies source's values into t cell by cell. If source transitively
// contains t, a temporary dense copy of source is taken first so the
// read-then-write does not alias (invariant iii).
func (t *Full32) Assign(source Tensor) {
	if source.Contains(t) {
		tmp := Materialize(source)
		t.assignDirect(tmp)
		return
	}
	t.assignDirect(source)
}

func (t *Full32) assignDirect(source Tensor) {
	for ch := 0; ch < t.chans; ch++ {
		for r := 0; r < t.rows; r++ {
			for c := 0; c < t.cols; c++ {
				t.SetValue(r, c, ch, source.GetValue(r, c, ch))
			}
		}
	}
}

// Half16 is a dense tensor stored as 16-bit truncated floats.
type Half16 struct {
	rows, cols, chans int
	data              []floatcodec.Half
}

func NewHalf16(rows, cols, channels int, values []float32) *Half16 {
	data := make([]floatcodec.Half, rows*cols*channels)
	for i, v := range values {
		data[i] = floatcodec.ToHalf(v)
	}
	return &Half16{rows: rows, cols: cols, chans: channels, data: data}
}

func (t *Half16) Rows() int                { return t.rows }
func (t *Half16) Columns() int             { return t.cols }
func (t *Half16) Channels() int            { return t.chans }
func (t *Half16) IsMaterialized() bool     { return true }
func (t *Half16) ReadRowsInParallel() bool { return true }
func (t *Half16) Contains(other Tensor) bool {
	return Tensor(t) == other
}

func (t *Half16) GetValue(row, col, channel int) float32 {
	return floatcodec.FromHalf(t.data[index(t.rows, t.cols, row, col, channel)])
}

// Quarter8 is a dense tensor stored as 8-bit quarter floats with a single
// per-tensor exponent bias (invariant iv: bias 0 is upgraded to 1).
type Quarter8 struct {
	rows, cols, chans int
	data              []floatcodec.Quarter
	bias              int
}

func NewQuarter8(rows, cols, channels int, values []float32, bias int) *Quarter8 {
	bias = floatcodec.NormalizeBias(bias)
	data := make([]floatcodec.Quarter, rows*cols*channels)
	for i, v := range values {
		data[i] = floatcodec.ToQuarter(v, bias)
	}
	return &Quarter8{rows: rows, cols: cols, chans: channels, data: data, bias: bias}
}

func (t *Quarter8) Rows() int                { return t.rows }
func (t *Quarter8) Columns() int             { return t.cols }
func (t *Quarter8) Channels() int            { return t.chans }
func (t *Quarter8) IsMaterialized() bool     { return true }
func (t *Quarter8) ReadRowsInParallel() bool { return true }
func (t *Quarter8) Bias() int                { return t.bias }
func (t *Quarter8) Contains(other Tensor) bool {
	return Tensor(t) == other
}

func (t *Quarter8) GetValue(row, col, channel int) float32 {
	return floatcodec.FromQuarter(t.data[index(t.rows, t.cols, row, col, channel)], t.bias)
}

// Pixel8 is a dense tensor stored as bytes scaled to [0,1], for image data.
// Values are clamped to [0,1] on write (invariant v).
type Pixel8 struct {
	rows, cols, chans int
	data              []uint8
}

func NewPixel8(rows, cols, channels int, values []float32) *Pixel8 {
	data := make([]uint8, rows*cols*channels)
	for i, v := range values {
		data[i] = clampPixel(v)
	}
	return &Pixel8{rows: rows, cols: cols, chans: channels, data: data}
}

func clampPixel(v float32) uint8 {
	v = clamp(v, 0, 1)
	return uint8(v*255 + 0.5)
}

func (t *Pixel8) Rows() int                { return t.rows }
func (t *Pixel8) Columns() int             { return t.cols }
func (t *Pixel8) Channels() int            { return t.chans }
func (t *Pixel8) IsMaterialized() bool     { return true }
func (t *Pixel8) ReadRowsInParallel() bool { return true }
func (t *Pixel8) Contains(other Tensor) bool {
	return Tensor(t) == other
}

func (t *Pixel8) GetValue(row, col, channel int) float32 {
	return float32(t.data[index(t.rows, t.cols, row, col, channel)]) / 255.0
}

// Uniform is a materialized-shape tensor whose every cell equals a single
// constant; no buffer is allocated.
type Uniform struct {
	rows, cols, chans int
	value             float32
}

func NewUniform(rows, cols, channels int, value float32) *Uniform {
	return &Uniform{rows: rows, cols: cols, chans: channels, value: value}
}

func (t *Uniform) Rows() int                { return t.rows }
func (t *Uniform) Columns() int             { return t.cols }
func (t *Uniform) Channels() int            { return t.chans }
func (t *Uniform) IsMaterialized() bool     { return true }
func (t *Uniform) ReadRowsInParallel() bool { return true }
func (t *Uniform) GetValue(int, int, int) float32 { return t.value }
func (t *Uniform) Contains(other Tensor) bool {
	return Tensor(t) == other
}

// Random is a deterministic pseudo-random tensor: GetValue returns the same
// value for the same (row,col,channel,seed) on every invocation (invariant
// vi), computed from a stable hash rather than a stored buffer.
type Random struct {
	rows, cols, chans int
	min, max          float32
	seed              uint64
}

func NewRandom(rows, cols, channels int, minV, maxV float32, seed uint64) *Random {
	return &Random{rows: rows, cols: cols, chans: channels, min: minV, max: maxV, seed: seed}
}

func (t *Random) Rows() int                { return t.rows }
func (t *Random) Columns() int             { return t.cols }
func (t *Random) Channels() int            { return t.chans }
func (t *Random) IsMaterialized() bool     { return true }
func (t *Random) ReadRowsInParallel() bool { return true }
func (t *Random) Contains(other Tensor) bool {
	return Tensor(t) == other
}

// GetValue hashes (seed, row, col, channel) with FNV-1a, a pure function with
// no process-local state, so the same coordinates on the same seed always
// produce the same value, in the same process or a different one (invariant
// vi). This also sidesteps the need for any shared cache across the
// goroutines parallelFor spawns during Materialize.
func (t *Random) GetValue(row, col, channel int) float32 {
	h := fnv.New64a()
	var buf [32]byte
	putUint64(buf[0:8], t.seed)
	putUint64(buf[8:16], uint64(row))
	putUint64(buf[16:24], uint64(col))
	putUint64(buf[24:32], uint64(channel))
	_, _ = h.Write(buf[:])
	u := h.Sum64()
	frac := float64(u%1_000_000_007) / 1_000_000_007.0
	return t.min + float32(frac)*(t.max-t.min)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Identity is the identity matrix broadcast across channels: 1 on the
// diagonal, 0 elsewhere, materialized with no backing buffer.
type Identity struct {
	rows, cols, chans int
}

func NewIdentity(rows, cols, channels int) *Identity {
	return &Identity{rows: rows, cols: cols, chans: channels}
}

func (t *Identity) Rows() int                { return t.rows }
func (t *Identity) Columns() int             { return t.cols }
func (t *Identity) Channels() int            { return t.chans }
func (t *Identity) IsMaterialized() bool     { return true }
func (t *Identity) ReadRowsInParallel() bool { return true }
func (t *Identity) Contains(other Tensor) bool {
	return Tensor(t) == other
}

func (t *Identity) GetValue(row, col, channel int) float32 {
	if row == col {
		return 1
	}
	return 0
}

// Materialize copies a tensor's values into a dense Full32 buffer, fanning
// out across rows (or columns, if ReadRowsInParallel is false) using the
// bounded worker pool. Already-materialized Full32 tensors are returned
// as-is.
func Materialize(t Tensor) *Full32 {
	if f, ok := t.(*Full32); ok {
		return f
	}

	rows, cols, chans := t.Rows(), t.Columns(), t.Channels()
	out := ZerosFull32(rows, cols, chans)

	workers := materializeWorkers()

	if t.ReadRowsInParallel() {
		parallelFor(rows, workers, func(lo, hi int) {
			for r := lo; r < hi; r++ {
				for ch := 0; ch < chans; ch++ {
					for c := 0; c < cols; c++ {
						out.SetValue(r, c, ch, t.GetValue(r, c, ch))
					}
				}
			}
		})
	} else {
		parallelFor(cols, workers, func(lo, hi int) {
			for c := lo; c < hi; c++ {
				for ch := 0; ch < chans; ch++ {
					for r := 0; r < rows; r++ {
						out.SetValue(r, c, ch, t.GetValue(r, c, ch))
					}
				}
			}
		})
	}

	return out
}

// MaterializeIfDeep materializes t unless it is already materialized; it
// does not measure view depth (§9 "a future heuristic can relax this by
// tracking view depth"). graph.Forward calls it on every layer's output,
// so every layer boundary is materialized.
func MaterializeIfDeep(t Tensor) Tensor {
	if t.IsMaterialized() {
		return t
	}
	return Materialize(t)
}
