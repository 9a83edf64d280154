package workerpool

// Range is a half-open row range [Start, End) assigned to one worker.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, total) into contiguous ranges of
// ceil(total/workers) rows; the last range is clipped to total. No empty
// ranges are returned, so fewer than workers ranges come back when rows
// run out.
func Partition(total, workers int) []Range {
	if total <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	chunk := (total + workers - 1) / workers
	ranges := make([]Range, 0, min(workers, total))

	for start := 0; start < total; start += chunk {
		ranges = append(ranges, Range{Start: start, End: min(start+chunk, total)})
	}

	return ranges
}
