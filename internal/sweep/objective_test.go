package sweep

import (
	"testing"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metrics(ret, dd, ratio float64) *backtesting.Metrics {
	return &backtesting.Metrics{
		TotalReturnPct:      decimal.NewFromFloat(ret),
		MaxDrawdownPct:      decimal.NewFromFloat(dd),
		ReturnDrawdownRatio: decimal.NewFromFloat(ratio),
		WinRate:             decimal.NewFromInt(50),
	}
}

func TestParseObjective(t *testing.T) {
	o, err := ParseObjective("")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveReturnDrawdown, o)

	o, err = ParseObjective("win_rate")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveWinRate, o)

	_, err = ParseObjective("sharpe")
	assert.Error(t, err)
}

func TestObjective_ReturnDrawdownSign(t *testing.T) {
	winner := ObjectiveReturnDrawdown.Score(metrics(10, -5, 2))
	loser := ObjectiveReturnDrawdown.Score(metrics(-10, -2, 5))

	assert.True(t, loser.Less(winner), "losing runs rank below winners despite a larger ratio")
	assert.Equal(t, "-5.0000", loser.String())
	assert.Empty(t, winner.Note)
}

func TestObjective_ZeroDrawdownScoresZero(t *testing.T) {
	flawless := ObjectiveReturnDrawdown.Score(metrics(3, 0, 0))
	winner := ObjectiveReturnDrawdown.Score(metrics(10, -5, 2))

	assert.True(t, flawless.Value.IsZero())
	assert.Equal(t, NoteZeroDrawdown, flawless.Note)
	assert.Equal(t, "0.0000", flawless.String())
	assert.True(t, flawless.Less(winner))
}

func TestObjective_ProfitFactor(t *testing.T) {
	m := metrics(5, -1, 5)
	noLosses := ObjectiveProfitFactor.Score(m)
	assert.True(t, noLosses.Value.IsZero())
	assert.Equal(t, NoteNoLosses, noLosses.Note)
	assert.Equal(t, "0.0000", noLosses.String())

	m.ProfitFactor = decimal.NewNullDecimal(decimal.NewFromFloat(1.8))
	s := ObjectiveProfitFactor.Score(m)
	assert.Empty(t, s.Note)
	assert.True(t, s.Value.Equal(decimal.NewFromFloat(1.8)))
}

func TestRank_TiesKeepCombinationOrder(t *testing.T) {
	score := func(v float64) Score { return Score{Value: decimal.NewFromFloat(v)} }
	outcomes := []Outcome{
		{Index: 3, Score: score(1)},
		{Index: 0, Score: score(2)},
		{Index: 2, Score: score(1)},
		{Index: 1, Score: Score{Value: decimal.Zero, Note: NoteZeroDrawdown}},
		{Index: 4, Score: score(-1)},
	}
	rank(outcomes)

	order := make([]int, len(outcomes))
	for i, o := range outcomes {
		order[i] = o.Index
	}
	assert.Equal(t, []int{0, 2, 3, 1, 4}, order)
}
