package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
)

const (
	TypeMultipleChoice = "MULTIPLE_CHOICE"
	TypeText           = "TEXT"
	TypeMultiSelect    = "MULTI_SELECT"
	TypeOrderedList    = "ORDERED_LIST"
)

var ErrMalformedAnswer = errors.New("answer is not valid JSON")

// Question is the part of a catalog question needed to check an answer.
type Question struct {
	Type   string
	Key    json.RawMessage
	Weight float64
}

// Result of checking one answer. Objective is false for questions without an
// answer key; those are never counted as correct.
type Result struct {
	Objective bool    `json:"objective"`
	Correct   bool    `json:"isCorrect"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"maxScore"`
}

// Strategy checks an answer for one question type.
type Strategy interface {
	Grade(key, answer interface{}, weight float64) Result
}

// Grader routes by question type. Unknown types use exact JSON equality.
type Grader struct {
	strategies map[string]Strategy
	fallback   Strategy
}

type Option func(*options)

type options struct {
	partialMulti bool
}

// WithPartialMulti awards proportional score on multi-select answers that
// contain no wrong choice. Correctness still needs the exact set.
func WithPartialMulti(b bool) Option { return func(o *options) { o.partialMulti = b } }

func NewGrader(opts ...Option) *Grader {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Grader{
		strategies: map[string]Strategy{
			TypeMultipleChoice: textStrategy{},
			TypeText:           textStrategy{},
			TypeOrderedList:    orderedStrategy{},
			TypeMultiSelect:    multiStrategy{partial: o.partialMulti},
		},
		fallback: exactStrategy{},
	}
}

// Register installs or replaces the strategy for a question type.
func (g *Grader) Register(questionType string, s Strategy) {
	g.strategies[questionType] = s
}

// Grade decodes the stored key and the submitted answer and checks them.
func (g *Grader) Grade(q Question, answer json.RawMessage) (Result, error) {
	weight := q.Weight
	if weight <= 0 {
		weight = 1
	}
	key, ok := decode(q.Key)
	if !ok || key == nil {
		return Result{MaxScore: weight}, nil
	}
	var submitted interface{}
	if len(bytes.TrimSpace(answer)) > 0 {
		if err := json.Unmarshal(answer, &submitted); err != nil {
			return Result{}, ErrMalformedAnswer
		}
	}
	if submitted == nil {
		return Result{Objective: true, MaxScore: weight}, nil
	}
	s, found := g.strategies[q.Type]
	if !found {
		s = g.fallback
	}
	res := s.Grade(key, submitted, weight)
	res.Objective = true
	res.MaxScore = weight
	return res, nil
}

func decode(raw json.RawMessage) (interface{}, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

type textStrategy struct{}

func (textStrategy) Grade(key, answer interface{}, weight float64) Result {
	if k, ok := key.(string); ok {
		a, ok := answer.(string)
		if !ok {
			return Result{}
		}
		return scored(norm(k) == norm(a), weight)
	}
	if _, ok := key.([]interface{}); ok {
		return orderedStrategy{}.Grade(key, answer, weight)
	}
	return exactStrategy{}.Grade(key, answer, weight)
}

type orderedStrategy struct{}

func (orderedStrategy) Grade(key, answer interface{}, weight float64) Result {
	k, ok := key.([]interface{})
	if !ok {
		return exactStrategy{}.Grade(key, answer, weight)
	}
	a, ok := answer.([]interface{})
	if !ok || len(a) != len(k) {
		return Result{}
	}
	for i := range k {
		if !reflect.DeepEqual(normItem(k[i]), normItem(a[i])) {
			return Result{}
		}
	}
	return scored(true, weight)
}

type multiStrategy struct{ partial bool }

func (s multiStrategy) Grade(key, answer interface{}, weight float64) Result {
	k, ok := key.([]interface{})
	if !ok {
		return exactStrategy{}.Grade(key, answer, weight)
	}
	a, ok := answer.([]interface{})
	if !ok {
		return Result{}
	}
	want := toSet(k)
	got := toSet(a)
	hits := 0
	for item := range got {
		if _, ok := want[item]; !ok {
			return Result{}
		}
		hits++
	}
	if hits == len(want) && len(want) > 0 {
		return scored(true, weight)
	}
	if s.partial && len(want) > 0 {
		return Result{Score: weight * float64(hits) / float64(len(want))}
	}
	return Result{}
}

type exactStrategy struct{}

func (exactStrategy) Grade(key, answer interface{}, weight float64) Result {
	kb, err1 := json.Marshal(key)
	ab, err2 := json.Marshal(answer)
	if err1 != nil || err2 != nil {
		return Result{}
	}
	return scored(bytes.Equal(kb, ab), weight)
}

func scored(correct bool, weight float64) Result {
	if !correct {
		return Result{}
	}
	return Result{Correct: true, Score: weight}
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normItem(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return norm(s)
	}
	return v
}

func toSet(items []interface{}) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out[norm(s)] = struct{}{}
			continue
		}
		b, _ := json.Marshal(it)
		out[string(b)] = struct{}{}
	}
	return out
}
