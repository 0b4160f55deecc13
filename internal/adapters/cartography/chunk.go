package cartography

import "fmt"

// MatrixSlice is a half-open sub-rectangle [StartRow,EndRow) x [StartCol,EndCol)
// of a matrix index range.
type MatrixSlice struct {
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

// Elements returns the number of matrix cells the slice covers.
func (s MatrixSlice) Elements() int {
	return (s.EndRow - s.StartRow) * (s.EndCol - s.StartCol)
}

// SliceMatrix partitions a rectangular index range into sub-rectangles of at
// most maxElements cells each. Rectangles too large are bisected at the
// midpoint of their longer side, rows winning ties, and the halves are
// recursed on in order. The returned slices exactly tile the input range
// with no gaps or overlaps.
func SliceMatrix(startRow, endRow, startCol, endCol, maxElements int) ([]MatrixSlice, error) {
	if maxElements < 1 {
		return nil, fmt.Errorf("slice matrix: maxElements must be at least 1, got %d", maxElements)
	}
	if startRow > endRow || startCol > endCol {
		return nil, fmt.Errorf("slice matrix: inverted range [%d,%d)x[%d,%d)", startRow, endRow, startCol, endCol)
	}
	return sliceMatrix(startRow, endRow, startCol, endCol, maxElements), nil
}

func sliceMatrix(startRow, endRow, startCol, endCol, maxElements int) []MatrixSlice {
	rows, cols := endRow-startRow, endCol-startCol
	if rows*cols <= maxElements {
		return []MatrixSlice{{StartRow: startRow, EndRow: endRow, StartCol: startCol, EndCol: endCol}}
	}

	if rows >= cols {
		mid := startRow + rows/2
		top := sliceMatrix(startRow, mid, startCol, endCol, maxElements)
		bottom := sliceMatrix(mid, endRow, startCol, endCol, maxElements)
		return append(top, bottom...)
	}

	mid := startCol + cols/2
	left := sliceMatrix(startRow, endRow, startCol, mid, maxElements)
	right := sliceMatrix(startRow, endRow, mid, endCol, maxElements)
	return append(left, right...)
}

// RouteWindows partitions an ordered stop list of length n into consecutive
// index windows [start,end) of at most maxStops stops. Each window after the
// first begins at the last stop of the previous one, so per-leg continuity is
// preserved when the windows' routes are concatenated.
func RouteWindows(n, maxStops int) ([][2]int, error) {
	if maxStops < 2 {
		return nil, fmt.Errorf("route windows: maxStops must be at least 2, got %d", maxStops)
	}
	if n < 2 {
		return nil, fmt.Errorf("route windows: at least two stops are required, got %d", n)
	}

	var windows [][2]int
	start := 0
	for start < n-1 {
		end := start + maxStops
		if end > n {
			end = n
		}
		windows = append(windows, [2]int{start, end})
		start = end - 1
	}
	return windows, nil
}
