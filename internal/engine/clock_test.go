package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Sequence(t *testing.T) {
	tests := []struct {
		name  string
		clock *Clock
		want  []int64
	}{
		{"fresh", NewClock(), []int64{1, 2, 3}},
		{"resumed", NewClockAt(41), []int64{42, 43}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.want {
				assert.Equal(t, want, tt.clock.Next())
			}
			last := tt.want[len(tt.want)-1]
			assert.Equal(t, last, tt.clock.Current())
			assert.Equal(t, last, tt.clock.Current(), "Current must not advance")
		})
	}
}

// Seqs handed out concurrently form exactly 1..n with no gaps.
func TestClock_ConcurrentNextIsGapless(t *testing.T) {
	const workers, perWorker = 16, 250
	c := NewClock()

	got := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				got[w] = append(got[w], c.Next())
			}
		}()
	}
	wg.Wait()

	seen := make([]bool, workers*perWorker+1)
	for _, seqs := range got {
		for i, seq := range seqs {
			require.True(t, seq > 0 && int(seq) < len(seen), "seq %d out of range", seq)
			require.False(t, seen[seq], "seq %d handed out twice", seq)
			seen[seq] = true
			if i > 0 {
				assert.Greater(t, seq, seqs[i-1], "one worker observes increasing seqs")
			}
		}
	}
	assert.Equal(t, int64(workers*perWorker), c.Current())
}
