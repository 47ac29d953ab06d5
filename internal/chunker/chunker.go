// Package chunker splits ordered work into fixed-size batches.
package chunker

// DefaultSize is the number of items per batch when none is configured.
const DefaultSize = 10

// Split returns consecutive slices of items holding at most size elements
// each, in order. The slices share the backing array of items. A size of
// zero or less means DefaultSize.
func Split[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultSize
	}
	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
