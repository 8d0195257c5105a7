package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Bucket string

const (
	BucketPersonality Bucket = "personality"
	BucketTalents     Bucket = "talents"
	BucketValues      Bucket = "values"
	BucketSession     Bucket = "session"
)

// Buckets lists every bucket in wire order.
var Buckets = []Bucket{BucketPersonality, BucketTalents, BucketValues, BucketSession}

// bucketByPrefix is closed: any prefix not listed here routes to BucketSession.
var bucketByPrefix = map[string]Bucket{
	"a1": BucketPersonality,
	"a2": BucketTalents,
	"a3": BucketValues,
}

// QuestionPrefix returns the substring of questionID before the first underscore.
func QuestionPrefix(questionID string) string {
	prefix, _, _ := strings.Cut(questionID, "_")
	return prefix
}

func BucketForPrefix(prefix string) Bucket {
	if b, ok := bucketByPrefix[prefix]; ok {
		return b
	}
	return BucketSession
}

func BucketForQuestion(questionID string) Bucket {
	return BucketForPrefix(QuestionPrefix(questionID))
}

type ValueKind string

const (
	ValueText    ValueKind = "text"
	ValueNumeric ValueKind = "numeric"
	ValueList    ValueKind = "list"
	ValueRanked  ValueKind = "ranked"
)

// Value is an answer payload. Exactly one of the representations is meaningful,
// selected by Kind.
type Value struct {
	kind   ValueKind
	text   string
	number float64
	items  []string
}

func TextValue(s string) Value { return Value{kind: ValueText, text: s} }
func NumericValue(n float64) Value { return Value{kind: ValueNumeric, number: n} }
func ListValue(items []string) Value { return Value{kind: ValueList, items: cloneItems(items)} }
func RankedValue(items []string) Value {
	return Value{kind: ValueRanked, items: cloneItems(items)}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Text() string { return v.text }
func (v Value) Number() float64 { return v.number }
func (v Value) Items() []string { return cloneItems(v.items) }
func (v Value) IsZero() bool { return v.kind == "" }

// String renders the value for prompts and logs.
func (v Value) String() string {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumeric:
		return fmt.Sprintf("%g", v.number)
	case ValueList:
		return strings.Join(v.items, ", ")
	case ValueRanked:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = fmt.Sprintf("%d. %s", i+1, it)
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueText:
		return json.Marshal(v.text)
	case ValueNumeric:
		return json.Marshal(v.number)
	case ValueList, ValueRanked:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	}
	return []byte("null"), nil
}

// ParseValue decodes a plain JSON answer. Arrays become ranked values when ranked is set.
func ParseValue(raw json.RawMessage, ranked bool) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Value{}, fmt.Errorf("answer is empty")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, fmt.Errorf("decode text answer: %w", err)
		}
		return TextValue(s), nil
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Value{}, fmt.Errorf("list answers must contain only strings: %w", err)
		}
		if ranked {
			return RankedValue(items), nil
		}
		return ListValue(items), nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Value{}, fmt.Errorf("decode numeric answer: %w", err)
		}
		return NumericValue(n), nil
	}
	return Value{}, fmt.Errorf("unsupported answer type: %s", string(trimmed))
}

func cloneItems(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

type Entry struct {
	Answer     Value
	ModuleID   string
	Category   string
	AnsweredAt time.Time
}

type entryWire struct {
	Answer     json.RawMessage `json:"answer"`
	Kind       ValueKind       `json:"kind"`
	ModuleID   string          `json:"moduleId,omitempty"`
	Category   string          `json:"category,omitempty"`
	AnsweredAt time.Time       `json:"answeredAt"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	answer, err := e.Answer.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryWire{
		Answer:     answer,
		Kind:       e.Answer.Kind(),
		ModuleID:   e.ModuleID,
		Category:   e.Category,
		AnsweredAt: e.AnsweredAt,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := ParseValue(w.Answer, w.Kind == ValueRanked)
	if err != nil {
		return err
	}
	*e = Entry{Answer: v, ModuleID: w.ModuleID, Category: w.Category, AnsweredAt: w.AnsweredAt}
	return nil
}

// Ledger holds one interview's answers split by bucket. Each bucket maps question id
// to its latest entry.
type Ledger struct {
	Personality map[string]Entry `json:"personality"`
	Talents     map[string]Entry `json:"talents"`
	Values      map[string]Entry `json:"values"`
	Session     map[string]Entry `json:"session"`
}

func NewLedger() Ledger {
	return Ledger{
		Personality: map[string]Entry{},
		Talents:     map[string]Entry{},
		Values:      map[string]Entry{},
		Session:     map[string]Entry{},
	}
}

func (l *Ledger) slot(b Bucket) *map[string]Entry {
	switch b {
	case BucketPersonality:
		return &l.Personality
	case BucketTalents:
		return &l.Talents
	case BucketValues:
		return &l.Values
	default:
		return &l.Session
	}
}

// Put stores e under questionID in its routed bucket, replacing any earlier entry.
func (l *Ledger) Put(questionID string, e Entry) Bucket {
	b := BucketForQuestion(questionID)
	m := l.slot(b)
	if *m == nil {
		*m = map[string]Entry{}
	}
	(*m)[questionID] = e
	return b
}

func (l Ledger) Get(questionID string) (Entry, bool) {
	e, ok := (*l.slot(BucketForQuestion(questionID)))[questionID]
	return e, ok
}

func (l Ledger) Bucket(b Bucket) map[string]Entry {
	return *l.slot(b)
}

// Count is the raw number of stored entries across all buckets.
func (l Ledger) Count() int {
	return len(l.Personality) + len(l.Talents) + len(l.Values) + len(l.Session)
}
