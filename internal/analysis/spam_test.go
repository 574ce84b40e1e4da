package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSpam(t *testing.T) {
	tests := []struct {
		name     string
		history  PRHistory
		account  AccountActivity
		expected []SpamPenalty
	}{
		{
			name:     "no activity triggers nothing",
			history:  PRHistory{},
			account:  AccountActivity{AgeDays: 1},
			expected: nil,
		},
		{
			name:     "short PR ratio at 0.7 scores 50",
			history:  PRHistory{Total: 10, ShortPRs: 7, ShortPRRatio: 0.7, Merged: 10, MergeRate: 1},
			account:  AccountActivity{AgeDays: 400},
			expected: []SpamPenalty{{Kind: PenaltyShortPRs, Points: 50}},
		},
		{
			name:     "short PR ratio is capped at 75",
			history:  PRHistory{Total: 10, ShortPRs: 10, ShortPRRatio: 1, Merged: 10, MergeRate: 1},
			account:  AccountActivity{AgeDays: 400},
			expected: []SpamPenalty{{Kind: PenaltyShortPRs, Points: 75}},
		},
		{
			name:     "short PR ratio below 0.7 is fine",
			history:  PRHistory{Total: 10, ShortPRs: 6, ShortPRRatio: 0.6, Merged: 10, MergeRate: 1},
			account:  AccountActivity{AgeDays: 400},
			expected: nil,
		},
		{
			name:     "burst of closed PRs",
			history:  PRHistory{Total: 11, ClosedWithoutMerge: 10, Merged: 1, MergeRate: 1.0 / 11},
			account:  AccountActivity{AgeDays: 400},
			expected: []SpamPenalty{{Kind: PenaltyBurstClosed, Points: 70}},
		},
		{
			name:     "closed burst with healthy merge rate is fine",
			history:  PRHistory{Total: 40, ClosedWithoutMerge: 10, Merged: 30, MergeRate: 0.75},
			account:  AccountActivity{AgeDays: 400},
			expected: nil,
		},
		{
			name:     "new account burst",
			history:  PRHistory{Total: 6, Merged: 6, MergeRate: 1},
			account:  AccountActivity{AgeDays: 6},
			expected: []SpamPenalty{{Kind: PenaltyNewAccountBurst, Points: 30}},
		},
		{
			name:     "seven day old account is not new",
			history:  PRHistory{Total: 6, Merged: 6, MergeRate: 1},
			account:  AccountActivity{AgeDays: 7},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSpam(tt.history, tt.account)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assert.Equal(t, tt.expected[i].Kind, got[i].Kind)
				assert.Equal(t, tt.expected[i].Points, got[i].Points)
				assert.NotEmpty(t, got[i].Reason)
			}
		})
	}
}

func TestTotalPenalty_IsCapped(t *testing.T) {
	all := DetectSpam(
		PRHistory{Total: 15, ShortPRs: 15, ShortPRRatio: 1, ClosedWithoutMerge: 13, Merged: 2, MergeRate: 2.0 / 15},
		AccountActivity{AgeDays: 5},
	)
	assert.Len(t, all, 3)
	assert.Equal(t, MaxSpamPenalty, TotalPenalty(all))

	assert.Equal(t, 0, TotalPenalty(nil))
	assert.Equal(t, 80, TotalPenalty([]SpamPenalty{{Points: 50}, {Points: 30}}))
	assert.Equal(t, 150, TotalPenalty([]SpamPenalty{{Points: 75}, {Points: 75}, {Points: 75}, {Points: 75}}))
}

func TestTotalPenalty_MonotonicInEachRule(t *testing.T) {
	prev := 0
	for shorts := 0; shorts <= 20; shorts++ {
		h := PRHistory{Total: 20, ShortPRs: shorts, ShortPRRatio: float64(shorts) / 20, Merged: 20, MergeRate: 1}
		total := TotalPenalty(DetectSpam(h, AccountActivity{AgeDays: 400}))
		assert.GreaterOrEqual(t, total, prev)
		assert.LessOrEqual(t, total, MaxSpamPenalty)
		prev = total
	}

	prev = 0
	for closed := 0; closed <= 40; closed++ {
		h := PRHistory{Total: closed, ClosedWithoutMerge: closed}
		total := TotalPenalty(DetectSpam(h, AccountActivity{AgeDays: 400}))
		assert.GreaterOrEqual(t, total, prev)
		prev = total
	}
}
