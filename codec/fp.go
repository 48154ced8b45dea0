package codec

import "github.com/wippyai/xloper/variant"

// Fixed-size arrays are untagged numeric buffers, so these conversions never
// coerce and never fail. Elements past the end of a short buffer are ignored.

func fpLen(fp *variant.FP) int {
	if fp == nil {
		return 0
	}
	return min(int(fp.Rows)*int(fp.Cols), len(fp.Array))
}

// DecodeFPVectorLong flattens fp row-major, truncating toward zero.
func DecodeFPVectorLong(fp *variant.FP) []int64 {
	n := fpLen(fp)
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(fp.Array[i])
	}
	return out
}

// DecodeFPVectorDouble flattens fp row-major.
func DecodeFPVectorDouble(fp *variant.FP) []float64 {
	n := fpLen(fp)
	out := make([]float64, n)
	if n > 0 {
		copy(out, fp.Array[:n])
	}
	return out
}

// DecodeFPMatrixLong returns fp's rows, truncating toward zero.
func DecodeFPMatrixLong(fp *variant.FP) [][]int64 {
	n := fpLen(fp)
	if n == 0 {
		return [][]int64{}
	}
	cols := int(fp.Cols)
	out := make([][]int64, n/cols)
	for r := range out {
		row := make([]int64, cols)
		for c := range row {
			row[c] = int64(fp.Array[r*cols+c])
		}
		out[r] = row
	}
	return out
}

// DecodeFPMatrixDouble returns fp's rows.
func DecodeFPMatrixDouble(fp *variant.FP) [][]float64 {
	n := fpLen(fp)
	if n == 0 {
		return [][]float64{}
	}
	cols := int(fp.Cols)
	out := make([][]float64, n/cols)
	for r := range out {
		row := make([]float64, cols)
		copy(row, fp.Array[r*cols:(r+1)*cols])
		out[r] = row
	}
	return out
}
