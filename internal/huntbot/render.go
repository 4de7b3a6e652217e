package huntbot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/enescakir/emoji"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressModel "github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	"github.com/keyhunt-games/keyhunt/internal/engine"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
	"github.com/keyhunt-games/keyhunt/internal/strpool"
	"github.com/keyhunt-games/keyhunt/internal/util"
)

func nounTeams(n int) string {
	return util.Noun(n, "команда", "команды", "команд")
}

func nounPlayers(n int) string {
	return util.Noun(n, "игрок", "игрока", "игроков")
}

// levels are shown to players starting from one
func humanLevel(n int) int {
	return n + 1
}

func renderHintHeader(d scheduler.Delivery) string {
	switch {
	case d.BonusKey != "":
		return fmt.Sprintf(resource.TextBonusHeaderMsg, humanLevel(d.LevelNumber))
	case d.Offset == 0:
		return fmt.Sprintf(resource.TextPuzzleHeaderMsg, humanLevel(d.LevelNumber))
	default:
		return fmt.Sprintf(resource.TextHintHeaderMsg, humanLevel(d.LevelNumber), d.Offset)
	}
}

func renderOrganizers(orgs []gameModel.Organizer) string {
	if len(orgs) == 0 {
		return ""
	}

	names := make([]string, 0, len(orgs))
	for _, org := range orgs {
		names = append(names, org.Name)
	}

	return fmt.Sprintf(resource.TextOrganizersMsg, strings.Join(names, ", "))
}

func teamName(e gamelog.Event) string {
	if e.TeamName != "" {
		return e.TeamName
	}

	return "#" + strconv.FormatInt(e.TeamID, 10)
}

func renderEvent(e gamelog.Event) string {
	buf := strpool.Get()
	defer strpool.Put(buf)

	switch e.Kind {
	case gamelog.KindWaiversOpened:
		buf.WriteString(fmt.Sprintf(resource.TextWaiversLogMsg, e.GameName))
	case gamelog.KindGameStarted:
		buf.WriteString(fmt.Sprintf(resource.TextGameStartedLogMsg, e.GameName, len(e.Teams), nounTeams(len(e.Teams))))
	case gamelog.KindLevelUp:
		buf.WriteString(fmt.Sprintf(resource.TextTeamLevelUpMsg, teamName(e), humanLevel(e.LevelNumber)))
		buf.WriteString(" ")
		buf.WriteString(resource.Cheer())
		buf.WriteString(renderOrganizers(e.Organizers))
	case gamelog.KindTeamFinished:
		buf.WriteString(fmt.Sprintf(resource.TextTeamDoneMsg, teamName(e)))
		buf.WriteString(renderOrganizers(e.Organizers))
	case gamelog.KindGameFinished:
		buf.WriteString(fmt.Sprintf(resource.TextGameFinishedMsg, e.GameName, teamName(e)))
		buf.WriteString(" ")
		buf.WriteString(resource.Cheer())
	case gamelog.KindGameCancelled:
		buf.WriteString(fmt.Sprintf(resource.TextGameCancelledLog, e.GameName))
	case gamelog.KindHintDeliveryFailed:
		buf.WriteString(fmt.Sprintf(resource.TextHintFailedMsg, e.TeamID, humanLevel(e.LevelNumber), e.Err))
	case gamelog.KindHintCancelled:
		what := e.HintOffset.String()
		if e.BonusKey != "" {
			what = e.BonusKey
		}
		buf.WriteString(fmt.Sprintf(resource.TextHintCancelledMsg, e.TeamID, humanLevel(e.LevelNumber), what))
	default:
		buf.WriteString(string(e.Kind))
	}

	return buf.String()
}

func renderKeyResult(res engine.KeyResult) string {
	text := res.KeyTime.Text
	switch res.Outcome {
	case engine.OutcomeIncorrect:
		return fmt.Sprintf(resource.TextKeyIncorrectMsg, text)
	case engine.OutcomeDuplicate:
		return fmt.Sprintf(resource.TextKeyDuplicateMsg, text)
	case engine.OutcomeBonus:
		return fmt.Sprintf(resource.TextKeyBonusMsg, text)
	}

	buf := strpool.Get()
	defer strpool.Put(buf)

	buf.WriteString(fmt.Sprintf(resource.TextKeyCorrectMsg, text))
	switch {
	case res.GameFinished:
		buf.WriteString("\n")
		buf.WriteString(emoji.Trophy.String())
		buf.WriteString(" ")
		buf.WriteString(resource.Cheer())
	case res.TeamFinished:
		buf.WriteString("\n")
		buf.WriteString(resource.TextTeamFinishedMsg)
	case res.Advanced:
		buf.WriteString(fmt.Sprintf(resource.TextLevelUpMsg, humanLevel(res.LevelNumber)))
	default:
		buf.WriteString(fmt.Sprintf(resource.TextKeyLateMsg, humanLevel(res.KeyTime.LevelNumber)))
	}

	return buf.String()
}

// renderError turns an engine error into a message for the chat. Precondition
// errors get their own text, everything else asks to retry.
func renderError(err error) string {
	var e *engine.Error
	if !errors.As(err, &e) {
		return resource.TextUnknownErrorMsg
	}

	if e.Retryable() {
		return resource.TextTryAgainMsg
	}

	text, ok := resource.TextErrors[string(e.Code)]
	if !ok {
		return resource.TextUnknownErrorMsg
	}

	if len(e.Teams) == 0 {
		return text
	}

	return strpool.Build(func(b *strings.Builder) {
		b.WriteString(text)
		for i, id := range e.Teams {
			if i == 0 {
				b.WriteString(": #")
			} else {
				b.WriteString(", #")
			}
			b.WriteString(strconv.FormatInt(id, 10))
		}
	})
}

func sortedTeams(ids map[int64]struct{}) []int64 {
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })

	return list
}

func nameOf(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}

	return "#" + strconv.FormatInt(id, 10)
}

func renderTypedKeys(keys map[int64][]progressModel.KeyTime, names map[int64]string) string {
	if len(keys) == 0 {
		return resource.TextNoKeysMsg
	}

	buf := strpool.Get()
	defer strpool.Put(buf)

	ids := map[int64]struct{}{}
	for id := range keys {
		ids[id] = struct{}{}
	}

	buf.WriteString(resource.TextTypedKeysHeaderMsg)
	for _, id := range sortedTeams(ids) {
		buf.WriteString("\n*")
		buf.WriteString(nameOf(names, id))
		buf.WriteString("*\n")

		for _, kt := range keys[id] {
			mark := emoji.CrossMark.String()
			switch {
			case kt.IsDuplicate:
				mark = emoji.RepeatButton.String()
			case kt.IsBonus:
				mark = emoji.GemStone.String()
			case kt.IsCorrect:
				mark = emoji.CheckMarkButton.String()
			}

			buf.WriteString(mark)
			buf.WriteString(" ")
			buf.WriteString(kt.At.Format("15:04:05"))
			buf.WriteString(" ")
			buf.WriteString(strconv.Itoa(humanLevel(kt.LevelNumber)))
			buf.WriteString(": ")
			buf.WriteString(kt.Text)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func renderLevelTimes(times map[int64][]progressModel.LevelTime, names map[int64]string, now time.Time) string {
	buf := strpool.Get()
	defer strpool.Put(buf)

	ids := map[int64]struct{}{}
	for id := range times {
		ids[id] = struct{}{}
	}

	buf.WriteString(resource.TextLevelTimesHeader)
	for _, id := range sortedTeams(ids) {
		buf.WriteString("\n*")
		buf.WriteString(nameOf(names, id))
		buf.WriteString("*\n")

		for _, lt := range times[id] {
			mark := emoji.Stopwatch.String()
			if lt.IsFinished() {
				mark = emoji.ChequeredFlag.String()
			}

			buf.WriteString(mark)
			buf.WriteString(" ")
			buf.WriteString(strconv.Itoa(humanLevel(lt.LevelNumber)))
			buf.WriteString(": ")
			buf.WriteString(lt.Duration(now).Round(time.Second).String())
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
