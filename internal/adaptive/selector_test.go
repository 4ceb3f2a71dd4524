package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// three questions per tier: ids 1-3 tier 1, 4-6 tier 2, 7-9 tier 3
func testPool() []Candidate {
	pool := make([]Candidate, 0, 9)
	for id := uint(1); id <= 9; id++ {
		pool = append(pool, Candidate{QuestionID: id, Tier: int((id-1)/3) + 1, Order: int(id)})
	}
	return pool
}

func TestNext_TierMovement(t *testing.T) {
	tests := []struct {
		name    string
		history []Step
		wantID  uint
		wantTgt int
	}{
		{name: "starts at middle tier", history: nil, wantID: 4, wantTgt: 2},
		{name: "correct steps up", history: []Step{{4, true}}, wantID: 7, wantTgt: 3},
		{name: "incorrect steps down", history: []Step{{4, false}}, wantID: 1, wantTgt: 1},
		{name: "up then down", history: []Step{{4, true}, {7, false}}, wantID: 5, wantTgt: 2},
		{name: "capped at max tier", history: []Step{{4, true}, {7, true}}, wantID: 8, wantTgt: 3},
		{name: "floored at min tier", history: []Step{{4, false}, {1, false}}, wantID: 2, wantTgt: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Next(testPool(), tt.history, DefaultConfig())
			require.False(t, d.End)
			assert.Equal(t, tt.wantID, d.QuestionID)
			assert.Equal(t, tt.wantTgt, d.TargetTier)
		})
	}
}

func TestNext_StreakConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StreakToStepUp = 2

	d := Next(testPool(), []Step{{4, true}}, cfg)
	assert.Equal(t, 2, d.TargetTier)
	assert.Equal(t, uint(5), d.QuestionID)

	d = Next(testPool(), []Step{{4, true}, {5, true}}, cfg)
	assert.Equal(t, 3, d.TargetTier)
	assert.Equal(t, uint(7), d.QuestionID)

	// a miss resets the streak
	d = Next(testPool(), []Step{{4, true}, {5, false}, {1, true}}, cfg)
	assert.Equal(t, 1, d.TargetTier)
}

func TestNext_ExhaustedTierFallsBackToNearest(t *testing.T) {
	history := []Step{{4, true}, {7, true}, {8, true}, {9, true}}
	d := Next(testPool(), history, DefaultConfig())
	require.False(t, d.End)
	assert.Equal(t, 3, d.TargetTier)
	assert.Equal(t, 2, d.Tier)
	assert.Equal(t, uint(5), d.QuestionID)

	// tiers 1 and 3 are equally near, the lower one wins
	gapped := []Candidate{{QuestionID: 3, Tier: 3, Order: 1}, {QuestionID: 2, Tier: 3, Order: 2}, {QuestionID: 1, Tier: 1, Order: 3}}
	d = Next(gapped, nil, DefaultConfig())
	require.False(t, d.End)
	assert.Equal(t, 2, d.TargetTier)
	assert.Equal(t, 1, d.Tier)
	assert.Equal(t, uint(1), d.QuestionID)
}

func TestNext_EndConditions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQuestions = 2
	d := Next(testPool(), []Step{{4, true}, {7, true}}, cfg)
	assert.True(t, d.End)
	assert.Equal(t, ReasonMaxQuestions, d.Reason)
	assert.Zero(t, d.QuestionID)

	d = Next(nil, nil, DefaultConfig())
	assert.True(t, d.End)
	assert.Equal(t, ReasonExhausted, d.Reason)
}

func run(pool []Candidate, cfg Config, oracle func(i int) bool) []uint {
	var history []Step
	var served []uint
	for i := 0; i < 100; i++ {
		d := Next(pool, history, cfg)
		if d.End {
			break
		}
		served = append(served, d.QuestionID)
		history = append(history, Step{QuestionID: d.QuestionID, Correct: oracle(i)})
	}
	return served
}

func TestNext_DeterministicFullRun(t *testing.T) {
	oracle := func(i int) bool { return i%3 != 2 }
	first := run(testPool(), DefaultConfig(), oracle)
	second := run(testPool(), DefaultConfig(), oracle)

	assert.Equal(t, first, second)
	assert.Len(t, first, 9)

	seen := map[uint]bool{}
	for _, id := range first {
		assert.False(t, seen[id], "question %d served twice", id)
		seen[id] = true
	}
}

func TestNext_PoolOrderIndependent(t *testing.T) {
	pool := testPool()
	reversed := make([]Candidate, len(pool))
	for i, c := range pool {
		reversed[len(pool)-1-i] = c
	}
	oracle := func(i int) bool { return i%2 == 0 }
	assert.Equal(t, run(pool, DefaultConfig(), oracle), run(reversed, DefaultConfig(), oracle))
}

func TestProficiency(t *testing.T) {
	assert.Equal(t, ProficiencyBeginner, Proficiency(1, 1, 3))
	assert.Equal(t, ProficiencyIntermediate, Proficiency(2, 1, 3))
	assert.Equal(t, ProficiencyAdvanced, Proficiency(3, 1, 3))
}

func TestConfigWithDefaults(t *testing.T) {
	got := Config{StepUp: 2}.WithDefaults()
	assert.Equal(t, 2, got.StepUp)
	assert.Equal(t, 2, got.StartTier)
	assert.Equal(t, 10, got.MaxQuestions)
}
