package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sequentialPrefixSum(in []int) []int {
	out := make([]int, len(in)+1)
	sum := 0
	for i, v := range in {
		sum += v
		out[i+1] = sum
	}
	return out
}

func TestPrefixSumMatchesSequential(t *testing.T) {
	in := []int{2, 1, 3, 5, 0, 7, 4, 9, 1, 2, 6}
	want := sequentialPrefixSum(in)
	for _, nthreads := range []int{1, 2, 3, 4, 8, 100} {
		got := PrefixSum(in, nthreads)
		assert.Equal(t, want, got, "nthreads=%d", nthreads)
	}
}

func TestPrefixSumEmpty(t *testing.T) {
	got := PrefixSum(nil, 4)
	assert.Equal(t, []int{0}, got)
}

func TestPrefixSumInvariants(t *testing.T) {
	in := []int{4, 0, 2, 9, 1}
	out := PrefixSum(in, 3)
	assert.Equal(t, 0, out[0])
	sum := 0
	for i := range in {
		assert.Equal(t, in[i], out[i+1]-out[i])
		sum += in[i]
	}
	assert.Equal(t, sum, out[len(in)])
}
