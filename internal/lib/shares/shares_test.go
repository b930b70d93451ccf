package shares

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_RedistributesEvenly(t *testing.T) {
	s := NewSet(nil)

	// После каждого добавления сумма ровно 100,
	// а разброс долей не больше одной единицы.
	for k := 1; k <= 7; k++ {
		require.NoError(t, s.Add(k))

		assert.Equal(t, 100, s.Total(), "после %d участников", k)

		minPct, maxPct := 101, -1
		for _, e := range s.Entries() {
			if e.Percentage < minPct {
				minPct = e.Percentage
			}
			if e.Percentage > maxPct {
				maxPct = e.Percentage
			}
		}
		assert.LessOrEqual(t, maxPct-minPct, 1, "после %d участников", k)
	}
}

func TestAdd_RemainderFrontLoaded(t *testing.T) {
	s := NewSet(nil)
	require.NoError(t, s.Add(10))
	require.NoError(t, s.Add(20))
	require.NoError(t, s.Add(30))

	entries := s.Entries()
	assert.Equal(t, 34, entries[0].Percentage)
	assert.Equal(t, 33, entries[1].Percentage)
	assert.Equal(t, 33, entries[2].Percentage)
}

func TestAdd_DuplicateRejectedWithoutChanges(t *testing.T) {
	s := NewSet([]Entry{{ParticipantID: 1, Percentage: 60}, {ParticipantID: 2, Percentage: 40}})

	err := s.Add(1)

	assert.ErrorIs(t, err, ErrAlreadyParticipant)
	assert.Equal(t, []Entry{{1, 60}, {2, 40}}, s.Entries())
}

func TestRemove_WithRebalance(t *testing.T) {
	s := NewSet([]Entry{{1, 34}, {2, 33}, {3, 33}})

	require.NoError(t, s.Remove(3, true))

	assert.Equal(t, []Entry{{1, 50}, {2, 50}}, s.Entries())
	assert.True(t, s.Balanced())
}

func TestRemove_WithoutRebalance(t *testing.T) {
	s := NewSet([]Entry{{1, 34}, {2, 33}, {3, 33}})

	require.NoError(t, s.Remove(3, false))

	assert.Equal(t, []Entry{{1, 34}, {2, 33}}, s.Entries())
	assert.False(t, s.Balanced())
	assert.Equal(t, 67, s.Total())
}

func TestRemove_Missing(t *testing.T) {
	s := NewSet([]Entry{{1, 100}})
	assert.ErrorIs(t, s.Remove(7, true), ErrNotFound)
}

func TestSetPercentage_RejectsOverAllocation(t *testing.T) {
	s := NewSet([]Entry{{1, 60}, {2, 30}})

	err := s.SetPercentage(1, 71)

	assert.ErrorIs(t, err, ErrOverAllocated)
	assert.Equal(t, []Entry{{1, 60}, {2, 30}}, s.Entries(), "состояние не изменилось")
}

func TestSetPercentage_AllowsUnderAllocation(t *testing.T) {
	s := NewSet([]Entry{{1, 60}, {2, 30}})

	require.NoError(t, s.SetPercentage(1, 20))

	assert.Equal(t, 50, s.Total())
	assert.False(t, s.Balanced())
}

func TestSetPercentage_Bounds(t *testing.T) {
	s := NewSet([]Entry{{1, 100}})

	assert.ErrorIs(t, s.SetPercentage(1, -1), ErrOutOfRange)
	assert.ErrorIs(t, s.SetPercentage(1, 101), ErrOutOfRange)
	assert.ErrorIs(t, s.SetPercentage(9, 10), ErrNotFound)
}
