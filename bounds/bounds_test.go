package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRejectsInvalidParams(t *testing.T) {
	cases := []Params{
		{Depth: 1, ErrorRate: 0.1, K: 15, MinProbability: 0.9},
		{Depth: 30, ErrorRate: 0, K: 15, MinProbability: 0.9},
		{Depth: 30, ErrorRate: 1, K: 15, MinProbability: 0.9},
		{Depth: 30, ErrorRate: 0.1, K: 0, MinProbability: 0.9},
		{Depth: 30, ErrorRate: 0.1, K: 15, MinProbability: 0},
		{Depth: 30, ErrorRate: 0.1, K: 15, MinProbability: 1.5},
	}
	for _, p := range cases {
		_, err := Compute(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestComputeMonotoneLowerUpper(t *testing.T) {
	p := Params{Depth: 30, ErrorRate: 0.15, K: 17, MinProbability: 0.97}
	th, err := Compute(p)
	require.NoError(t, err)
	assert.LessOrEqual(t, th.Lower, th.Upper)
	assert.GreaterOrEqual(t, th.Lower, 2)
	assert.Less(t, th.Upper, p.Depth)
}

func TestBoundsMonotonicInDepth(t *testing.T) {
	var prevLower, prevUpper int
	for i, depth := range []int{10, 30, 60, 100, 200} {
		p := Params{Depth: depth, ErrorRate: 0.12, K: 19, MinProbability: 0.95}
		th, err := Compute(p)
		require.NoError(t, err)
		if i > 0 {
			assert.GreaterOrEqual(t, th.Lower, prevLower)
			assert.GreaterOrEqual(t, th.Upper, prevUpper)
		}
		prevLower, prevUpper = th.Lower, th.Upper
	}
}

func TestComputeHandlesHighDepth(t *testing.T) {
	p := Params{Depth: 500, ErrorRate: 0.1, K: 63, MinProbability: 0.99}
	th, err := Compute(p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, th.Lower, 2)
	assert.LessOrEqual(t, th.Lower, th.Upper)
}
