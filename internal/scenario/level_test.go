package scenario

import (
	"errors"
	"testing"
	"time"
)

func testLevel() Level {
	return Level{
		ID:   "first",
		Keys: []string{"SH123", "SH321"},
		BonusKeys: []BonusKey{
			{Text: "SHBONUS", Hints: []Hint{TextHint{Text: "bonus"}}},
		},
		TimeHints: []TimeHint{
			{Offset: 0, Hints: []Hint{TextHint{Text: "puzzle"}}},
			{Offset: time.Minute, Hints: []Hint{TextHint{Text: "hint 1"}}},
			{Offset: 5 * time.Minute, Hints: []Hint{TextHint{Text: "hint 2"}}},
		},
	}
}

func TestLevelValidate(t *testing.T) {
	t.Parallel()

	if err := testLevel().Validate(); err != nil {
		t.Fatalf("expected valid level got %v", err)
	}

	noKeys := testLevel()
	noKeys.Keys = nil
	if err := noKeys.Validate(); !errors.Is(err, ErrNoKeys) {
		t.Errorf("expected %v got %v", ErrNoKeys, err)
	}

	noPuzzle := testLevel()
	noPuzzle.TimeHints = noPuzzle.TimeHints[1:]
	if err := noPuzzle.Validate(); !errors.Is(err, ErrNoPuzzle) {
		t.Errorf("expected %v got %v", ErrNoPuzzle, err)
	}

	unordered := testLevel()
	unordered.TimeHints[1], unordered.TimeHints[2] = unordered.TimeHints[2], unordered.TimeHints[1]
	if err := unordered.Validate(); !errors.Is(err, ErrHintsUnordered) {
		t.Errorf("expected %v got %v", ErrHintsUnordered, err)
	}

	collision := testLevel()
	collision.BonusKeys[0].Text = "sh123"
	if err := collision.Validate(); !errors.Is(err, ErrKeyCollision) {
		t.Errorf("expected %v got %v", ErrKeyCollision, err)
	}
}

func TestLevelMatch(t *testing.T) {
	t.Parallel()

	l := testLevel()
	cases := []struct {
		text string
		kind KeyKind
		norm string
	}{
		{text: "SH123", kind: KeyKindRegular, norm: "SH123"},
		{text: "  sh321 ", kind: KeyKindRegular, norm: "SH321"},
		{text: "shbonus", kind: KeyKindBonus, norm: "SHBONUS"},
		{text: "SHWRONG", kind: KeyKindNone, norm: "SHWRONG"},
		{text: "   ", kind: KeyKindNone, norm: ""},
	}

	for _, tc := range cases {
		m := l.Match(tc.text)
		if m.Kind != tc.kind || m.Normalized != tc.norm {
			t.Errorf("%q: expected %v/%q got %v/%q", tc.text, tc.kind, tc.norm, m.Kind, m.Normalized)
		}
		if tc.kind == KeyKindBonus && (m.Bonus == nil || len(m.Bonus.Hints) != 1) {
			t.Errorf("%q: expected bonus hints", tc.text)
		}
	}
}

func TestLevelMatchCaseSensitive(t *testing.T) {
	t.Parallel()

	l := testLevel()
	l.CaseSensitive = true
	if l.Match("sh123").IsValid() {
		t.Error("expected case sensitive level to reject lower case key")
	}
	if !l.Match("SH123").IsValid() {
		t.Error("expected exact key to match")
	}
}

func TestLevelHintsWindow(t *testing.T) {
	t.Parallel()

	l := testLevel()
	if got := len(l.HintsBefore(0)); got != 1 {
		t.Errorf("expected 1 released hint got %d", got)
	}
	if got := len(l.HintsBefore(2 * time.Minute)); got != 2 {
		t.Errorf("expected 2 released hints got %d", got)
	}
	if got := len(l.HintsFrom(0)); got != 3 {
		t.Errorf("expected 3 pending hints got %d", got)
	}
	if got := len(l.HintsFrom(2 * time.Minute)); got != 1 {
		t.Errorf("expected 1 pending hint got %d", got)
	}
}
