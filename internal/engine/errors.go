package engine

import (
	"errors"
	"fmt"
	"strings"
)

type Kind uint8

const (
	// KindPrecondition errors are caller mistakes, state is unchanged and a
	// retry gives the same answer.
	KindPrecondition Kind = iota + 1
	// KindInfrastructure errors come from storage or scheduling I/O, the whole
	// operation may be retried.
	KindInfrastructure
)

type Code string

const (
	CodeInvalidGameStatus      Code = "invalid_game_status"
	CodePlayerNotInTeam        Code = "player_not_in_team"
	CodeVotingClosed           Code = "voting_closed"
	CodeInvalidVote            Code = "invalid_vote"
	CodeInsufficientPermission Code = "insufficient_permission"
	CodeEmptyRoster            Code = "empty_roster"
	CodeWaiversIncomplete      Code = "waivers_incomplete"
	CodeNoParticipants         Code = "no_participants"
	CodeInvalidScenario        Code = "invalid_scenario"
	CodeGameNotRunning         Code = "game_not_running"
	CodeGameCancelled          Code = "game_cancelled"
	CodeTeamNotParticipating   Code = "team_not_participating"
	CodeLevelMismatch          Code = "level_mismatch"
	CodeInfrastructure         Code = "infrastructure"
)

var (
	ErrInvalidGameStatus      = &Error{Kind: KindPrecondition, Code: CodeInvalidGameStatus}
	ErrPlayerNotInTeam        = &Error{Kind: KindPrecondition, Code: CodePlayerNotInTeam}
	ErrVotingClosed           = &Error{Kind: KindPrecondition, Code: CodeVotingClosed}
	ErrInvalidVote            = &Error{Kind: KindPrecondition, Code: CodeInvalidVote}
	ErrInsufficientPermission = &Error{Kind: KindPrecondition, Code: CodeInsufficientPermission}
	ErrEmptyRoster            = &Error{Kind: KindPrecondition, Code: CodeEmptyRoster}
	ErrWaiversIncomplete      = &Error{Kind: KindPrecondition, Code: CodeWaiversIncomplete}
	ErrNoParticipants         = &Error{Kind: KindPrecondition, Code: CodeNoParticipants}
	ErrInvalidScenario        = &Error{Kind: KindPrecondition, Code: CodeInvalidScenario}
	ErrGameNotRunning         = &Error{Kind: KindPrecondition, Code: CodeGameNotRunning}
	ErrGameCancelled          = &Error{Kind: KindPrecondition, Code: CodeGameCancelled}
	ErrTeamNotParticipating   = &Error{Kind: KindPrecondition, Code: CodeTeamNotParticipating}
	ErrLevelMismatch          = &Error{Kind: KindPrecondition, Code: CodeLevelMismatch}
	ErrInfrastructure         = &Error{Kind: KindInfrastructure, Code: CodeInfrastructure}
)

// Error is returned by every engine operation that fails.
type Error struct {
	Kind Kind
	Code Code
	Msg  string
	// Teams lists the teams an error is about, e.g. teams missing waiver approval.
	Teams []int64
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Teams) > 0 {
		fmt.Fprintf(&b, " %v", e.Teams)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code, so errors.Is(err, ErrLevelMismatch) holds for
// any level mismatch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

func (e *Error) Retryable() bool {
	return e.Kind == KindInfrastructure
}

func precondition(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func infrastructure(op string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Code: CodeInfrastructure, Msg: op, Err: err}
}

func IsPrecondition(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindPrecondition
}

func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
