package localinfer

// MeanPool collapses per-token hidden states into a single sentence vector.
// Each token vector is weighted by its attention mask entry, so padding
// tokens contribute nothing. A fully masked or empty input yields nil.
func MeanPool(hidden [][]float32, mask []float32) []float32 {
	if len(hidden) == 0 || len(hidden) != len(mask) {
		return nil
	}

	dim := len(hidden[0])
	sum := make([]float32, dim)
	var weight float32

	for i, vec := range hidden {
		if len(vec) != dim {
			return nil
		}
		m := mask[i]
		if m == 0 {
			continue
		}
		weight += m
		for j, v := range vec {
			sum[j] += v * m
		}
	}

	if weight == 0 {
		return nil
	}
	for j := range sum {
		sum[j] /= weight
	}
	return sum
}
