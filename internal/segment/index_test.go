package segment

import (
	"strconv"
	"sync"
	"testing"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int64) chrono.Time { return chrono.FromUnix(sec, 0) }

// tenSegments indexes frames 1, 11, ..., 91 at the same second offsets.
func tenSegments(t *testing.T) *Index[string] {
	t.Helper()
	idx := New[string](10)
	for i := 0; i < 10; i++ {
		id := uint64(10*i + 1)
		require.NoError(t, idx.Insert(id, at(int64(id)), strconv.Itoa(i)))
	}
	return idx
}

func TestFind(t *testing.T) {
	t.Parallel()

	idx := tenSegments(t)
	tests := []struct {
		frame uint64
		want  string
	}{
		{1, "0"},
		{10, "0"},
		{11, "1"},
		{42, "4"},
		{91, "9"},
		{1001, "9"},
	}
	for _, tt := range tests {
		got, err := idx.Find(tt.frame)
		require.NoError(t, err, "frame %d", tt.frame)
		assert.Equal(t, tt.want, got, "frame %d", tt.frame)

		got, err = idx.FindTime(at(int64(tt.frame)))
		require.NoError(t, err, "time %d", tt.frame)
		assert.Equal(t, tt.want, got, "time %d", tt.frame)
	}

	_, err := idx.Find(0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = idx.FindTime(at(0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertOrdering(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T) *Index[string] {
		idx := &Index[string]{}
		require.NoError(t, idx.Insert(1, at(1), "a"))
		require.NoError(t, idx.Insert(11, at(11), "b"))
		return idx
	}

	t.Run("time before frame order", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, build(t).Insert(21, at(6), "c"), ErrInconsistentOrdering)
	})

	t.Run("frame before time order", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, build(t).Insert(6, at(21), "c"), ErrInconsistentOrdering)
	})

	t.Run("consistent append", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, build(t).Insert(21, at(21), "c"))
	})

	t.Run("consistent middle insert", func(t *testing.T) {
		t.Parallel()
		idx := build(t)
		require.NoError(t, idx.Insert(6, at(6), "m"))
		got, err := idx.Find(7)
		require.NoError(t, err)
		assert.Equal(t, "m", got)
	})

	t.Run("duplicate frame", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, build(t).Insert(11, at(12), "c"), ErrInconsistentOrdering)
	})

	t.Run("duplicate time", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, build(t).Insert(12, at(11), "c"), ErrInconsistentOrdering)
	})

	t.Run("rejected insert leaves index intact", func(t *testing.T) {
		t.Parallel()
		idx := build(t)
		before := idx.Segments()
		require.Error(t, idx.Insert(21, at(6), "c"))
		assert.Equal(t, 2, idx.Len())
		assert.Equal(t, before[1].Value, idx.Segments()[1].Value)
	})
}

func TestSegmentsAscending(t *testing.T) {
	t.Parallel()

	idx := &Index[int]{}
	require.NoError(t, idx.Insert(30, at(30), 3))
	require.NoError(t, idx.Insert(10, at(10), 1))
	require.NoError(t, idx.Insert(20, at(20), 2))

	var frames []uint64
	var values []int
	for _, e := range idx.Segments() {
		frames = append(frames, e.FrameID)
		values = append(values, e.Value)
	}
	if diff := cmp.Diff([]uint64{10, 20, 30}, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	// Segments is restartable and detached from the index.
	s := idx.Segments()
	s[0].Value = 99
	assert.Equal(t, 1, idx.Segments()[0].Value)
}

func TestConcurrentReadsAfterBuild(t *testing.T) {
	t.Parallel()

	idx := tenSegments(t)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := uint64(1); f < 200; f++ {
				v, err := idx.Find(f)
				if err != nil {
					t.Errorf("Find(%d): %v", f, err)
					return
				}
				want := strconv.Itoa(int(min((f-1)/10, 9)))
				if v != want {
					t.Errorf("Find(%d) = %s, want %s", f, v, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
