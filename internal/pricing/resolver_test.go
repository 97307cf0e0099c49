package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentra-batch-backend/internal/model"
)

func ladder(rungs ...[2]int) []model.BatchTier {
	tiers := make([]model.BatchTier, len(rungs))
	for i, r := range rungs {
		tiers[i] = model.BatchTier{MinCount: r[0], PriceCents: r[1]}
	}
	return tiers
}

func TestResolveCurrentTier(t *testing.T) {
	tiers := ladder([2]int{1, 900}, [2]int{3, 800}, [2]int{5, 700})

	testCases := []struct {
		name          string
		liveCount     int
		expectedPrice int
	}{
		{"first guest pays the opening tier", 0, 900},
		{"second guest still on the opening tier", 1, 900},
		{"third guest unlocks the middle tier", 2, 800},
		{"fifth guest unlocks the top tier", 4, 700},
		{"beyond the top tier the price holds", 20, 700},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tier, err := ResolveCurrentTier(tiers, tc.liveCount)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPrice, tier.PriceCents)
		})
	}
}

func TestResolveCurrentTier_FallsBackToLowestTier(t *testing.T) {
	// Ladder starts at 4 participants; a solo guest still gets the
	// lowest rung rather than the walk-in price.
	tiers := ladder([2]int{4, 800}, [2]int{8, 700})

	tier, err := ResolveCurrentTier(tiers, 0)
	require.NoError(t, err)
	assert.Equal(t, 800, tier.PriceCents)
}

func TestResolveCurrentTier_DuplicateThresholdLastWins(t *testing.T) {
	tiers := ladder([2]int{1, 900}, [2]int{3, 850}, [2]int{3, 800})

	tier, err := ResolveCurrentTier(tiers, 2)
	require.NoError(t, err)
	assert.Equal(t, 800, tier.PriceCents)
}

func TestResolveCurrentTier_EmptyLadder(t *testing.T) {
	_, err := ResolveCurrentTier(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestResolveNextTier(t *testing.T) {
	tiers := ladder([2]int{1, 900}, [2]int{3, 800}, [2]int{5, 700})

	next := ResolveNextTier(tiers, 1)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.MinCount)

	next = ResolveNextTier(tiers, 4)
	require.NotNil(t, next)
	assert.Equal(t, 5, next.MinCount)

	assert.Nil(t, ResolveNextTier(tiers, 5), "top tier reached")
	assert.Nil(t, ResolveNextTier(tiers, 50))
}

func TestValidateTiers(t *testing.T) {
	testCases := []struct {
		name      string
		tiers     []model.BatchTier
		basePrice int
		wantErr   bool
	}{
		{"valid descending ladder", ladder([2]int{1, 900}, [2]int{3, 800}), 1000, false},
		{"flat prices are allowed", ladder([2]int{1, 900}, [2]int{3, 900}), 1000, false},
		{"empty ladder", nil, 1000, true},
		{"zero min_count", ladder([2]int{0, 900}), 1000, true},
		{"out of order thresholds", ladder([2]int{3, 800}, [2]int{1, 900}), 1000, true},
		{"price increases with volume", ladder([2]int{1, 800}, [2]int{3, 900}), 1000, true},
		{"tier above walk-in price", ladder([2]int{1, 1100}), 1000, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTiers(tc.tiers, tc.basePrice)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLowestPriceCents(t *testing.T) {
	lowest, err := LowestPriceCents(ladder([2]int{1, 900}, [2]int{3, 800}, [2]int{5, 700}))
	require.NoError(t, err)
	assert.Equal(t, 700, lowest)

	_, err = LowestPriceCents(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
