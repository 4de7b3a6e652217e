package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoKeys          = fmt.Errorf("level must have at least one key")
	ErrNoPuzzle        = fmt.Errorf("level must start with a zero time hint")
	ErrHintsUnordered  = fmt.Errorf("time hints must be ordered by time")
	ErrKeyCollision    = fmt.Errorf("key is both a regular and a bonus key")
	ErrEmptyKey        = fmt.Errorf("key cannot be empty")
	ErrEmptyBonusHints = fmt.Errorf("bonus key must unlock at least one hint")
)

type KeyKind uint8

const (
	KeyKindNone KeyKind = iota
	KeyKindRegular
	KeyKindBonus
)

// BonusKey is a valid key that unlocks extra hints instead of finishing the
// level.
type BonusKey struct {
	Text  string
	Hints []Hint
}

type rawBonusKey struct {
	Text  string    `json:"text"`
	Hints []rawHint `json:"hints"`
}

func (k BonusKey) MarshalJSON() ([]byte, error) {
	hints, err := encodeHints(k.Hints)
	if err != nil {
		return nil, err
	}

	return json.Marshal(rawBonusKey{Text: k.Text, Hints: hints})
}

func (k *BonusKey) UnmarshalJSON(b []byte) error {
	var raw rawBonusKey
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal bonus key: %w", err)
	}

	hints, err := decodeHints(raw.Hints)
	if err != nil {
		return err
	}

	k.Text = raw.Text
	k.Hints = hints
	return nil
}

// Level is the immutable scenario of a single level. Key comparison is
// defined by the level: surrounding spaces are always ignored, letter case is
// ignored unless CaseSensitive is set.
type Level struct {
	ID            string     `json:"id"`
	Keys          []string   `json:"keys"`
	BonusKeys     []BonusKey `json:"bonusKeys,omitempty"`
	TimeHints     []TimeHint `json:"timeHints"`
	CaseSensitive bool       `json:"caseSensitive,omitempty"`
}

// Match is the result of looking a submitted text up in the level key set.
type Match struct {
	Kind       KeyKind
	Normalized string
	Bonus      *BonusKey
}

func (m Match) IsValid() bool {
	return m.Kind != KeyKindNone
}

func (l Level) Validate() error {
	if len(l.Keys) == 0 {
		return ErrNoKeys
	}

	if len(l.TimeHints) == 0 || !l.TimeHints[0].IsPuzzle() {
		return ErrNoPuzzle
	}

	regular := make(map[string]struct{}, len(l.Keys))
	for _, key := range l.Keys {
		n := l.Normalize(key)
		if n == "" {
			return ErrEmptyKey
		}
		regular[n] = struct{}{}
	}

	for _, bonus := range l.BonusKeys {
		n := l.Normalize(bonus.Text)
		if n == "" {
			return ErrEmptyKey
		}
		if _, ok := regular[n]; ok {
			return fmt.Errorf("%w: %s", ErrKeyCollision, bonus.Text)
		}
		if len(bonus.Hints) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyBonusHints, bonus.Text)
		}
	}

	var prev time.Duration
	for i, th := range l.TimeHints {
		if len(th.Hints) == 0 {
			return fmt.Errorf("time hint %d: %w", i, ErrEmptyHint)
		}
		if i > 0 && th.Offset < prev {
			return ErrHintsUnordered
		}
		if i > 0 && th.IsPuzzle() {
			return ErrZeroTimeTaken
		}
		prev = th.Offset
	}

	return nil
}

func (l Level) Normalize(text string) string {
	text = strings.TrimSpace(text)
	if l.CaseSensitive {
		return text
	}

	return strings.ToUpper(text)
}

func (l Level) Match(text string) Match {
	n := l.Normalize(text)
	m := Match{Normalized: n}
	if n == "" {
		return m
	}

	for _, key := range l.Keys {
		if l.Normalize(key) == n {
			m.Kind = KeyKindRegular
			return m
		}
	}

	for i := range l.BonusKeys {
		if l.Normalize(l.BonusKeys[i].Text) == n {
			bonus := l.BonusKeys[i]
			m.Kind = KeyKindBonus
			m.Bonus = &bonus
			return m
		}
	}

	return m
}

func (l Level) Puzzle() TimeHint {
	return l.TimeHints[0]
}

// HintsBefore returns the time hints already released after elapsed time
// on the level.
func (l Level) HintsBefore(elapsed time.Duration) []TimeHint {
	var hints []TimeHint
	for _, th := range l.TimeHints {
		if th.Offset > elapsed {
			break
		}
		hints = append(hints, th)
	}

	return hints
}

// HintsFrom returns the time hints not yet released after elapsed time.
func (l Level) HintsFrom(elapsed time.Duration) []TimeHint {
	var hints []TimeHint
	for _, th := range l.TimeHints {
		if th.Offset >= elapsed {
			hints = append(hints, th)
		}
	}

	return hints
}
