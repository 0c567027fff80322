package match

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearest(t *testing.T) {
	list := []float64{0, 1000, 2000}

	tests := []struct {
		name string
		cts  float64
		want float64
	}{
		{"closer to after", 900, 1000},
		{"tie goes to earlier", 500, 0},
		{"second tie", 1500, 1000},
		{"exact hit", 1000, 1000},
		{"first", 0, 0},
		{"before first", -1000, 0},
		{"last", 2000, 2000},
		{"after last", 3000, 2000},
		{"closer to before", 1499, 1000},
		{"just past midpoint", 1501, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NearestValue(tt.cts, list)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearestDuplicates(t *testing.T) {
	list := []float64{0, 10, 10, 10, 20}

	i, err := Nearest(10, list)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = Nearest(15, list)
	require.NoError(t, err)
	assert.Equal(t, 3, i)
}

func TestNearestSingle(t *testing.T) {
	for _, cts := range []float64{-5, 7, 100} {
		i, err := Nearest(cts, []float64{7})
		require.NoError(t, err)
		assert.Equal(t, 0, i)
	}
}

func TestNearestEmpty(t *testing.T) {
	_, err := Nearest(1, nil)
	assert.True(t, errors.Is(err, ErrEmptyStream))

	_, err = NearestValue(1, []float64{})
	assert.True(t, errors.Is(err, ErrEmptyStream))
}

func TestNearestMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		list := make([]float64, 1+rng.Intn(50))
		for i := range list {
			list[i] = float64(rng.Intn(5000))
		}
		sort.Float64s(list)

		q := float64(rng.Intn(6000) - 500)
		got, err := NearestValue(q, list)
		require.NoError(t, err)

		best := math.Inf(1)
		for _, v := range list {
			best = math.Min(best, math.Abs(v-q))
		}
		assert.Equal(t, best, math.Abs(got-q), "query %v list %v", q, list)

		first, _ := NearestValue(list[0]-1000, list)
		last, _ := NearestValue(list[len(list)-1]+1000, list)
		assert.Equal(t, list[0], first)
		assert.Equal(t, list[len(list)-1], last)
	}
}
