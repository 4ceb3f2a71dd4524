package scoring

const (
	ModeTable  = "TABLE"
	ModeRubric = "RUBRIC"
)

// Skill keys used in the per-skill band summary.
const (
	SkillListening = "listening"
	SkillReading   = "reading"
	SkillWriting   = "writing"
	SkillSpeaking  = "speaking"
	SkillGeneral   = "general"
)

// SectionInput is everything the engine needs to score one section.
type SectionInput struct {
	SectionID   uint
	SectionType string
	Mode        string
	TableKey    string
	Correct     int
	Total       int
	Earned      float64
	// RubricBand is the externally graded band of a rubric section, nil until graded.
	RubricBand *float64
}

type SectionScore struct {
	SectionID   uint     `json:"sectionId"`
	SectionType string   `json:"sectionType"`
	Correct     int      `json:"correctCount"`
	Total       int      `json:"totalQuestions"`
	Earned      float64  `json:"earnedScore"`
	Band        *float64 `json:"band"`
}

type Totals struct {
	TotalQuestions int     `json:"totalQuestions"`
	TotalCorrect   int     `json:"totalCorrect"`
	TotalScore     float64 `json:"totalScore"`
}

// Summary is the exam-level result stored on a finalized attempt.
type Summary struct {
	Sections []SectionScore      `json:"sections"`
	Totals   Totals              `json:"totals"`
	Bands    map[string]*float64 `json:"bands"`
	Overall  float64             `json:"overall"`
}

// ScoreSection applies the section's scoring rule. Table sections look up the
// band of their raw correct count, an unknown table key scores 0. Rubric
// sections pass the externally supplied band through unchanged.
func ScoreSection(in SectionInput) SectionScore {
	out := SectionScore{
		SectionID:   in.SectionID,
		SectionType: in.SectionType,
		Correct:     in.Correct,
		Total:       in.Total,
		Earned:      in.Earned,
	}
	switch in.Mode {
	case ModeRubric:
		if in.RubricBand != nil {
			b := *in.RubricBand
			out.Band = &b
		}
	default:
		table, _ := LookupTable(in.TableKey)
		b := ComputeBand(in.Correct, table)
		out.Band = &b
	}
	return out
}

// Summarize aggregates scored sections into the exam result.
func Summarize(sections []SectionScore) Summary {
	s := Summary{
		Sections: sections,
		Bands: map[string]*float64{
			SkillListening: nil,
			SkillReading:   nil,
			SkillWriting:   nil,
			SkillSpeaking:  nil,
		},
	}
	bands := make([]*float64, 0, len(sections))
	for _, sec := range sections {
		s.Totals.TotalQuestions += sec.Total
		s.Totals.TotalCorrect += sec.Correct
		s.Totals.TotalScore += sec.Earned
		bands = append(bands, sec.Band)
		if sec.Band != nil {
			s.Bands[SkillKey(sec.SectionType)] = sec.Band
		}
	}
	s.Overall = Aggregate(bands)
	return s
}

// SkillKey maps a section type to its summary key.
func SkillKey(sectionType string) string {
	switch sectionType {
	case "LISTENING":
		return SkillListening
	case "READING":
		return SkillReading
	case "WRITING":
		return SkillWriting
	case "SPEAKING":
		return SkillSpeaking
	default:
		return SkillGeneral
	}
}
