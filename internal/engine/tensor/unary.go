package tensor

import "math"

// containsSelfOrChild answers Contains for a view with exactly one child:
// the view itself, or anywhere in the child's tree.
func containsSelfOrChild(self Tensor, child Tensor, other Tensor) bool {
	if self == other {
		return true
	}
	return childContains(child, other)
}

// elementwiseView applies a pure per-cell function to a child tensor without
// changing shape. Scale, AddScalar, SubtractScalar, ScalarDivide, Power, Log,
// Log2, Exp, Round and ValueTransform are all instances of this shape with a
// different fn; they share one implementation rather than one type apiece
// since the only thing that varies is the per-cell math.
type elementwiseView struct {
	child Tensor
	fn    func(v float32) float32
}

func newElementwise(child Tensor, fn func(float32) float32) *elementwiseView {
	return &elementwiseView{child: child, fn: fn}
}

func (v *elementwiseView) Rows() int                { return v.child.Rows() }
func (v *elementwiseView) Columns() int             { return v.child.Columns() }
func (v *elementwiseView) Channels() int            { return v.child.Channels() }
func (v *elementwiseView) IsMaterialized() bool     { return false }
func (v *elementwiseView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *elementwiseView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *elementwiseView) GetValue(row, col, channel int) float32 {
	return v.fn(v.child.GetValue(row, col, channel))
}

// Scale multiplies every cell by factor.
func Scale(child Tensor, factor float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v * factor })
}

// AddScalar adds a constant to every cell.
func AddScalar(child Tensor, addend float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v + addend })
}

// SubtractScalar subtracts a constant from every cell.
func SubtractScalar(child Tensor, subtrahend float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v - subtrahend })
}

// ScalarDivide divides every cell by divisor.
func ScalarDivide(child Tensor, divisor float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v / divisor })
}

// Power raises every cell to exponent.
func Power(child Tensor, exponent float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return float32(math.Pow(float64(v), float64(exponent))) })
}

// Log takes the natural log of every cell.
func Log(child Tensor) Tensor {
	return newElementwise(child, func(v float32) float32 { return float32(math.Log(float64(v))) })
}

// Log2 takes the base-2 log of every cell.
func Log2(child Tensor) Tensor {
	return newElementwise(child, func(v float32) float32 { return float32(math.Log2(float64(v))) })
}

// Exp raises e to every cell.
func Exp(child Tensor) Tensor {
	return newElementwise(child, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Round rounds every cell to the nearest integer.
func Round(child Tensor) Tensor {
	return newElementwise(child, func(v float32) float32 { return float32(math.Round(float64(v))) })
}

// ValueTransform applies an arbitrary per-cell function.
func ValueTransform(child Tensor, fn func(float32) float32) Tensor {
	return newElementwise(child, fn)
}

// NoOp passes its child through unchanged, for places where the view API
// requires a Tensor but no transform is needed.
type NoOpView struct {
	child Tensor
}

func NoOp(child Tensor) Tensor { return &NoOpView{child: child} }

func (v *NoOpView) Rows() int                { return v.child.Rows() }
func (v *NoOpView) Columns() int             { return v.child.Columns() }
func (v *NoOpView) Channels() int            { return v.child.Channels() }
func (v *NoOpView) IsMaterialized() bool     { return v.child.IsMaterialized() }
func (v *NoOpView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *NoOpView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *NoOpView) GetValue(row, col, channel int) float32 {
	return v.child.GetValue(row, col, channel)
}

// ReshapeView reinterprets a child's cells under a new shape, preserving the
// channel-outermost, row-major linearization.
type ReshapeView struct {
	child             Tensor
	rows, cols, chans int
}

func Reshape(child Tensor, rows, cols, channels int) Tensor {
	if rows*cols*channels != child.Rows()*child.Columns()*child.Channels() {
		panic("tensor: Reshape element count mismatch")
	}
	return &ReshapeView{child: child, rows: rows, cols: cols, chans: channels}
}

func (v *ReshapeView) Rows() int                { return v.rows }
func (v *ReshapeView) Columns() int             { return v.cols }
func (v *ReshapeView) Channels() int            { return v.chans }
func (v *ReshapeView) IsMaterialized() bool     { return false }
func (v *ReshapeView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *ReshapeView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *ReshapeView) GetValue(row, col, channel int) float32 {
	linear := index(v.rows, v.cols, row, col, channel)
	cr, cc, cch := v.child.Rows(), v.child.Columns(), v.child.Channels()
	srcChannel := linear / (cr * cc)
	rem := linear % (cr * cc)
	srcRow := rem / cc
	srcCol := rem % cc
	return v.child.GetValue(srcRow, srcCol, srcChannel)
}

// FlattenRow reshapes to a single row: (1, rows*cols*channels, 1).
func FlattenRow(child Tensor) Tensor {
	n := child.Rows() * child.Columns() * child.Channels()
	return Reshape(child, 1, n, 1)
}

// FlattenColumn reshapes to a single column: (rows*cols*channels, 1, 1).
func FlattenColumn(child Tensor) Tensor {
	n := child.Rows() * child.Columns() * child.Channels()
	return Reshape(child, n, 1, 1)
}

// TransposeView swaps rows and columns within each channel.
type TransposeView struct {
	child Tensor
}

func Transpose(child Tensor) Tensor { return &TransposeView{child: child} }

func (v *TransposeView) Rows() int                { return v.child.Columns() }
func (v *TransposeView) Columns() int             { return v.child.Rows() }
func (v *TransposeView) Channels() int            { return v.child.Channels() }
func (v *TransposeView) IsMaterialized() bool     { return false }
func (v *TransposeView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *TransposeView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *TransposeView) GetValue(row, col, channel int) float32 {
	return v.child.GetValue(col, row, channel)
}

// DiagonalView extracts the main diagonal of each channel as a column.
type DiagonalView struct {
	child Tensor
	n     int
}

func Diagonal(child Tensor) Tensor {
	n := child.Rows()
	if child.Columns() < n {
		n = child.Columns()
	}
	return &DiagonalView{child: child, n: n}
}

func (v *DiagonalView) Rows() int                { return v.n }
func (v *DiagonalView) Columns() int             { return 1 }
func (v *DiagonalView) Channels() int            { return v.child.Channels() }
func (v *DiagonalView) IsMaterialized() bool     { return false }
func (v *DiagonalView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *DiagonalView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *DiagonalView) GetValue(row, _, channel int) float32 {
	return v.child.GetValue(row, row, channel)
}

// Rotate180View rotates each channel's 2D plane by 180 degrees;
// Convolution2dValid's Backward uses it to rotate a filter kernel for the
// full cross-correlation pass that yields the input gradient.
type Rotate180View struct {
	child Tensor
}

func Rotate180(child Tensor) Tensor { return &Rotate180View{child: child} }

func (v *Rotate180View) Rows() int                { return v.child.Rows() }
func (v *Rotate180View) Columns() int             { return v.child.Columns() }
func (v *Rotate180View) Channels() int            { return v.child.Channels() }
func (v *Rotate180View) IsMaterialized() bool     { return false }
func (v *Rotate180View) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *Rotate180View) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *Rotate180View) GetValue(row, col, channel int) float32 {
	lastRow := v.child.Rows() - 1 - row
	lastCol := v.child.Columns() - 1 - col
	return v.child.GetValue(lastRow, lastCol, channel)
}

// ChannelExtractView selects a single channel plane out of a child tensor.
type ChannelExtractView struct {
	child   Tensor
	channel int
}

func ChannelExtract(child Tensor, channel int) Tensor {
	return &ChannelExtractView{child: child, channel: channel}
}

func (v *ChannelExtractView) Rows() int                { return v.child.Rows() }
func (v *ChannelExtractView) Columns() int             { return v.child.Columns() }
func (v *ChannelExtractView) Channels() int            { return 1 }
func (v *ChannelExtractView) IsMaterialized() bool     { return false }
func (v *ChannelExtractView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *ChannelExtractView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *ChannelExtractView) GetValue(row, col, _ int) float32 {
	return v.child.GetValue(row, col, v.channel)
}

// ChannelInjectView overlays a single-channel child onto one channel plane
// of a larger shape, returning zero for every other channel.
type ChannelInjectView struct {
	child          Tensor
	channel, chans int
}

func ChannelInject(child Tensor, channel, totalChannels int) Tensor {
	return &ChannelInjectView{child: child, channel: channel, chans: totalChannels}
}

func (v *ChannelInjectView) Rows() int                { return v.child.Rows() }
func (v *ChannelInjectView) Columns() int             { return v.child.Columns() }
func (v *ChannelInjectView) Channels() int            { return v.chans }
func (v *ChannelInjectView) IsMaterialized() bool     { return false }
func (v *ChannelInjectView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *ChannelInjectView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *ChannelInjectView) GetValue(row, col, channel int) float32 {
	if channel != v.channel {
		return 0
	}
	return v.child.GetValue(row, col, 0)
}

// ZeroPadView surrounds each channel plane with pad rows/columns of zero.
type ZeroPadView struct {
	child    Tensor
	padRows  int
	padCols  int
}

func ZeroPad(child Tensor, padRows, padCols int) Tensor {
	return &ZeroPadView{child: child, padRows: padRows, padCols: padCols}
}

func (v *ZeroPadView) Rows() int                { return v.child.Rows() + 2*v.padRows }
func (v *ZeroPadView) Columns() int             { return v.child.Columns() + 2*v.padCols }
func (v *ZeroPadView) Channels() int            { return v.child.Channels() }
func (v *ZeroPadView) IsMaterialized() bool     { return false }
func (v *ZeroPadView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *ZeroPadView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *ZeroPadView) GetValue(row, col, channel int) float32 {
	r := row - v.padRows
	c := col - v.padCols
	if r < 0 || c < 0 || r >= v.child.Rows() || c >= v.child.Columns() {
		return 0
	}
	return v.child.GetValue(r, c, channel)
}

// SumChannelsView collapses all channels into one by summation.
type SumChannelsView struct {
	child Tensor
}

func SumChannels(child Tensor) Tensor { return &SumChannelsView{child: child} }

func (v *SumChannelsView) Rows() int                { return v.child.Rows() }
func (v *SumChannelsView) Columns() int             { return v.child.Columns() }
func (v *SumChannelsView) Channels() int            { return 1 }
func (v *SumChannelsView) IsMaterialized() bool     { return false }
func (v *SumChannelsView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *SumChannelsView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *SumChannelsView) GetValue(row, col, _ int) float32 {
	var sum float32
	for ch := 0; ch < v.child.Channels(); ch++ {
		sum += v.child.GetValue(row, col, ch)
	}
	return sum
}

// WindowView crops a sub-rectangle out of a child tensor, all channels.
type WindowView struct {
	child                  Tensor
	rowOffset, colOffset   int
	rows, cols             int
}

func Window(child Tensor, rowOffset, colOffset, rows, cols int) Tensor {
	return &WindowView{child: child, rowOffset: rowOffset, colOffset: colOffset, rows: rows, cols: cols}
}

func (v *WindowView) Rows() int                { return v.rows }
func (v *WindowView) Columns() int             { return v.cols }
func (v *WindowView) Channels() int            { return v.child.Channels() }
func (v *WindowView) IsMaterialized() bool     { return false }
func (v *WindowView) ReadRowsInParallel() bool { return v.child.ReadRowsInParallel() }
func (v *WindowView) Contains(other Tensor) bool {
	return containsSelfOrChild(v, v.child, other)
}
func (v *WindowView) GetValue(row, col, channel int) float32 {
	return v.child.GetValue(row+v.rowOffset, col+v.colOffset, channel)
}

// Normalize maps x from [min,max] into [0,1].
func Normalize(child Tensor, min, max float32) Tensor {
	span := max - min
	return newElementwise(child, func(v float32) float32 {
		if span == 0 {
			return 0
		}
		return (v - min) / span
	})
}

// Denormalize is the inverse of Normalize: maps [0,1] back to [min,max].
func Denormalize(child Tensor, min, max float32) Tensor {
	span := max - min
	return newElementwise(child, func(v float32) float32 { return v*span + min })
}

// Standardize maps x to (x-mean)/stdDev, the z-score transform.
func Standardize(child Tensor, mean, stdDev float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return (v - mean) / stdDev })
}

// UnstandardizeStandardize is the inverse of Standardize: x*stdDev + mean.
// Named to match the literal inverse-of-standardize operation in the
// dataset decode chain.
func UnstandardizeStandardize(child Tensor, mean, stdDev float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v*stdDev + mean })
}

// StandardizeDerivative scales a gradient by 1/stdDev, the derivative of
// Standardize with respect to x.
func StandardizeDerivative(child Tensor, stdDev float32) Tensor {
	return newElementwise(child, func(v float32) float32 { return v / stdDev })
}
