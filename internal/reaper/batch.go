package reaper

// Batches splits ids into consecutive groups of at most size elements,
// keeping the listing order. The returned slices share ids' backing array.
func Batches(ids []uint32, size int) [][]uint32 {
	if len(ids) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	batches := make([][]uint32, 0, (len(ids)+size-1)/size)
	for i := 0; i < len(ids); i += size {
		j := i + size
		if j > len(ids) {
			j = len(ids)
		}
		batches = append(batches, ids[i:j:j])
	}
	return batches
}
