package adaptive

import "sort"

const (
	ReasonMaxQuestions = "MAX_QUESTIONS"
	ReasonExhausted    = "POOL_EXHAUSTED"
)

const (
	ProficiencyBeginner     = "BEGINNER"
	ProficiencyIntermediate = "INTERMEDIATE"
	ProficiencyAdvanced     = "ADVANCED"
)

// Config controls the difficulty walk. Zero values fall back to the defaults.
type Config struct {
	StartTier      int `mapstructure:"start_tier" json:"startTier"`
	StepUp         int `mapstructure:"step_up" json:"stepUp"`
	StepDown       int `mapstructure:"step_down" json:"stepDown"`
	StreakToStepUp int `mapstructure:"streak_to_step_up" json:"streakToStepUp"`
	MaxQuestions   int `mapstructure:"max_questions" json:"maxQuestions"`
}

func DefaultConfig() Config {
	return Config{
		StartTier:      2,
		StepUp:         1,
		StepDown:       1,
		StreakToStepUp: 1,
		MaxQuestions:   10,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.StartTier <= 0 {
		c.StartTier = d.StartTier
	}
	if c.StepUp <= 0 {
		c.StepUp = d.StepUp
	}
	if c.StepDown <= 0 {
		c.StepDown = d.StepDown
	}
	if c.StreakToStepUp <= 0 {
		c.StreakToStepUp = d.StreakToStepUp
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = d.MaxQuestions
	}
	return c
}

// Candidate is one question of the section pool.
type Candidate struct {
	QuestionID uint
	Tier       int
	Order      int
}

// Step is one answered question of the history, in the order answered.
type Step struct {
	QuestionID uint
	Correct    bool
}

// Decision is the outcome of Next. When End is set QuestionID is zero.
type Decision struct {
	QuestionID  uint   `json:"questionId,omitempty"`
	Tier        int    `json:"tier"`
	TargetTier  int    `json:"targetTier"`
	End         bool   `json:"endOfSection"`
	Reason      string `json:"reason,omitempty"`
	Answered    int    `json:"answered"`
	Correct     int    `json:"correct"`
	Proficiency string `json:"proficiency"`
}

// Next picks the question to serve after history. It holds no state: the
// same pool, history and config always produce the same decision.
func Next(pool []Candidate, history []Step, cfg Config) Decision {
	cfg = cfg.WithDefaults()
	ordered := sortPool(pool)
	minTier, maxTier := tierRange(ordered)

	answered := make(map[uint]struct{}, len(history))
	correct := 0
	for _, h := range history {
		answered[h.QuestionID] = struct{}{}
		if h.Correct {
			correct++
		}
	}

	target := Walk(history, cfg, minTier, maxTier)
	d := Decision{
		TargetTier:  target,
		Answered:    len(answered),
		Correct:     correct,
		Proficiency: Proficiency(target, minTier, maxTier),
	}

	if len(answered) >= cfg.MaxQuestions {
		d.End = true
		d.Reason = ReasonMaxQuestions
		return d
	}

	best := -1
	bestDist := 0
	for i, c := range ordered {
		if _, done := answered[c.QuestionID]; done {
			continue
		}
		dist := abs(c.Tier - target)
		if best < 0 || dist < bestDist || (dist == bestDist && c.Tier < ordered[best].Tier) {
			best, bestDist = i, dist
		}
		if dist == 0 {
			break
		}
	}
	if best < 0 {
		d.End = true
		d.Reason = ReasonExhausted
		return d
	}
	d.QuestionID = ordered[best].QuestionID
	d.Tier = ordered[best].Tier
	return d
}

// Walk replays history and returns the tier the next question should come
// from, clamped to [minTier, maxTier].
func Walk(history []Step, cfg Config, minTier, maxTier int) int {
	cfg = cfg.WithDefaults()
	tier := clamp(cfg.StartTier, minTier, maxTier)
	streak := 0
	for _, h := range history {
		if !h.Correct {
			tier = clamp(tier-cfg.StepDown, minTier, maxTier)
			streak = 0
			continue
		}
		streak++
		if streak >= cfg.StreakToStepUp {
			tier = clamp(tier+cfg.StepUp, minTier, maxTier)
			streak = 0
		}
	}
	return tier
}

// Proficiency labels the tier reached at the end of a run.
func Proficiency(tier, minTier, maxTier int) string {
	switch {
	case tier <= minTier:
		return ProficiencyBeginner
	case tier >= maxTier:
		return ProficiencyAdvanced
	default:
		return ProficiencyIntermediate
	}
}

func sortPool(pool []Candidate) []Candidate {
	out := make([]Candidate, len(pool))
	copy(out, pool)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}

func tierRange(pool []Candidate) (int, int) {
	if len(pool) == 0 {
		return 1, 1
	}
	lo, hi := pool[0].Tier, pool[0].Tier
	for _, c := range pool[1:] {
		if c.Tier < lo {
			lo = c.Tier
		}
		if c.Tier > hi {
			hi = c.Tier
		}
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
