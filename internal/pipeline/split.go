package pipeline

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit permutes 0..n-1 with seed and returns (train, test) indices.
// The test set holds ceil(n*testRatio) rows; both sets are non empty.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, got %d", n)
	}

	nTest := int(math.Ceil(float64(n) * testRatio))
	nTest = min(max(nTest, 1), n-1)

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Take selects items by index
func Take[T any](items []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}
