package ingest

// BatchRange is the half-open range [Start, End) of 0-based positions covered by batch Index.
type BatchRange struct {
	// Position of the batch, starting at 0; failure messages use the same number
	Index int
	Start int
	End   int
}

func (r BatchRange) Size() int {
	return r.End - r.Start
}

// Partition splits [0, total) into ceil(total/batchSize) contiguous batches; every batch but the
// last holds exactly batchSize positions. Returns nil if total or batchSize is not positive.
func Partition(total int, batchSize int) []BatchRange {
	if total <= 0 || batchSize <= 0 {
		return nil
	}
	n := (total + batchSize - 1) / batchSize
	batches := make([]BatchRange, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * batchSize
		if end > total {
			end = total
		}
		batches[i] = BatchRange{Index: i, Start: i * batchSize, End: end}
	}
	return batches
}
