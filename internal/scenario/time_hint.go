package scenario

import (
	"encoding/json"
	"fmt"
	"time"
)

var (
	ErrEmptyHint        = fmt.Errorf("time hint must contain at least one hint")
	ErrPuzzleTimeLocked = fmt.Errorf("level puzzle time cannot be changed")
	ErrZeroTimeTaken    = fmt.Errorf("only the level puzzle can be released at zero time")
	ErrNegativeTime     = fmt.Errorf("hint time cannot be negative")
)

// TimeHint groups hint items released together Offset after level start.
type TimeHint struct {
	Offset time.Duration
	Hints  []Hint
}

func NewTimeHint(offset time.Duration, hints ...Hint) (TimeHint, error) {
	if offset < 0 {
		return TimeHint{}, ErrNegativeTime
	}

	if len(hints) == 0 {
		return TimeHint{}, ErrEmptyHint
	}

	return TimeHint{Offset: offset, Hints: append([]Hint(nil), hints...)}, nil
}

func (t TimeHint) IsPuzzle() bool {
	return t.Offset == 0
}

func (t TimeHint) CanUpdateTime() bool {
	return !t.IsPuzzle()
}

// UpdateTime moves a hint to a new offset, the puzzle stays at zero and no
// other hint may take its place.
func (t *TimeHint) UpdateTime(offset time.Duration) error {
	if t.IsPuzzle() {
		return ErrPuzzleTimeLocked
	}

	if offset < 0 {
		return ErrNegativeTime
	}

	if offset == 0 {
		return ErrZeroTimeTaken
	}

	t.Offset = offset
	return nil
}

func (t *TimeHint) UpdateHints(hints []Hint) error {
	if len(hints) == 0 {
		return ErrEmptyHint
	}

	t.Hints = append([]Hint(nil), hints...)
	return nil
}

type rawTimeHint struct {
	Offset time.Duration `json:"offset"`
	Hints  []rawHint     `json:"hints"`
}

func (t TimeHint) MarshalJSON() ([]byte, error) {
	hints, err := encodeHints(t.Hints)
	if err != nil {
		return nil, err
	}

	return json.Marshal(rawTimeHint{Offset: t.Offset, Hints: hints})
}

func (t *TimeHint) UnmarshalJSON(b []byte) error {
	var raw rawTimeHint
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal time hint: %w", err)
	}

	hints, err := decodeHints(raw.Hints)
	if err != nil {
		return err
	}

	t.Offset = raw.Offset
	t.Hints = hints
	return nil
}
