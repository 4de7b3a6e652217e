package resource

import (
	"github.com/enescakir/emoji"
	"github.com/valyala/fastrand"
)

var (
	TextGreetingMsg = emoji.Joystick.String() + " Привет, %s\n\n" +
		"Это бот для командных квестов: команды ищут ключи на уровнях, " +
		"бот проверяет ключи и присылает подсказки по времени " + emoji.Stopwatch.String() + "\n\n" +
		"*Список комманд:*\n" +
		"/rules - правила игры\n" +
		"/yes, /no - заявить, играешь ли ты в ближайшей игре\n" +
		"/approve - капитан утверждает состав команды\n" +
		"/hints - доступные подсказки текущего уровня\n" +
		"/waivers, /startgame, /cancelgame - управление игрой для организаторов\n" +
		"/keys, /levels - введенные ключи и время уровней для организаторов"

	TextRulesMsg = emoji.Bookmark.String() + " *Правила игры*\n\n" +
		"Игра состоит из уровней. На каждом уровне спрятан ключ, его нужно отправить в чат команды. " +
		"Верный ключ переводит команду на следующий уровень.\n\n" +
		emoji.Stopwatch.String() + " Подсказки приходят сами через заданное время после начала уровня.\n\n" +
		emoji.GemStone.String() + " Бонусные ключи не меняют уровень, но открывают дополнительные подсказки.\n\n" +
		emoji.ChequeredFlag.String() + " Игра заканчивается, когда все команды прошли все уровни."

	TextWaiversOpenedMsg   = emoji.Loudspeaker.String() + " Открыт сбор заявок на игру *%s*. Отметьтесь: /yes или /no"
	TextVotedYesMsg        = emoji.ThumbsUp.String() + " %s играет"
	TextVotedNoMsg         = emoji.ThumbsDown.String() + " %s не играет"
	TextWaiverApprovedMsg  = emoji.CheckMarkButton.String() + " Состав утвержден: %d %s"
	TextGameStartedMsg     = emoji.Rocket.String() + " Игра *%s* началась!"
	TextGameCancelledMsg   = emoji.StopSign.String() + " Игра *%s* отменена"
	TextNoGameMsg          = "Сейчас нет активной игры"
	TextTeamNotFoundMsg    = "Этот чат не привязан к команде"
	TextNeedOrganizerMsg   = "Для этой команды нужны права организатора"
	TextNoHintsMsg         = "Подсказок пока нет"
	TextNoKeysMsg          = "Ключей пока нет"
	TextTeamFinishedMsg    = emoji.ChequeredFlag.String() + " Команда прошла все уровни, ждем остальных"
	TextTryAgainMsg        = emoji.HourglassNotDone.String() + " Что-то пошло не так, попробуй еще раз через минуту"
	TextUnknownErrorMsg    = emoji.BrokenHeart.String() + " Не получилось"
	TextKeyIncorrectMsg    = emoji.CrossMark.String() + " Ключ *%s* неверный"
	TextKeyDuplicateMsg    = emoji.RepeatButton.String() + " Ключ *%s* уже был"
	TextKeyBonusMsg        = emoji.GemStone.String() + " Бонусный ключ *%s*! Подсказка уже в пути"
	TextKeyCorrectMsg      = emoji.CheckMarkButton.String() + " Ключ *%s* верный!"
	TextKeyLateMsg         = " Засчитан для пройденного уровня %d"
	TextLevelUpMsg         = " Уровень %d"
	TextHintHeaderMsg      = emoji.PuzzlePiece.String() + " Уровень %d, подсказка через %s"
	TextPuzzleHeaderMsg    = emoji.PuzzlePiece.String() + " Уровень %d"
	TextBonusHeaderMsg     = emoji.GemStone.String() + " Бонусная подсказка уровня %d"
	TextHintFailedMsg      = emoji.Warning.String() + " Подсказка команде %d (уровень %d) не доставлена: %s"
	TextHintCancelledMsg   = emoji.Warning.String() + " Подсказка команде %d (уровень %d, %s) отменена"
	TextTeamLevelUpMsg     = emoji.UpArrow.String() + " Команда *%s* перешла на уровень %d"
	TextTeamDoneMsg        = emoji.ChequeredFlag.String() + " Команда *%s* прошла все уровни"
	TextGameFinishedMsg    = emoji.Trophy.String() + " Игра *%s* завершена! Последней финишировала команда *%s*"
	TextGameStartedLogMsg  = emoji.Rocket.String() + " Игра *%s* началась, %d %s"
	TextOrganizersMsg      = "\nОрганизаторы: %s"
	TextWaiversLogMsg      = emoji.Loudspeaker.String() + " Игра *%s*: открыт сбор заявок"
	TextGameCancelledLog   = emoji.StopSign.String() + " Игра *%s* отменена"
	TextTypedKeysHeaderMsg = "*Введенные ключи*\n"
	TextLevelTimesHeader   = "*Время уровней*\n"
)

// engine precondition messages by error code
var TextErrors = map[string]string{
	"invalid_game_status":     "Сейчас это действие недоступно",
	"player_not_in_team":      "Ты не состоишь в этой команде",
	"voting_closed":           "Состав уже утвержден, голосование закрыто",
	"invalid_vote":            "Неизвестный вариант голосования",
	"insufficient_permission": "Недостаточно прав",
	"empty_roster":            "Никто не отметился, что играет: /yes",
	"waivers_incomplete":      "Не все команды утвердили состав",
	"no_participants":         "Ни одна команда не утвердила состав",
	"invalid_scenario":        "Сценарий игры содержит ошибки",
	"game_not_running":        "Игра сейчас не идет",
	"game_cancelled":          "Игра отменена",
	"team_not_participating":  "Команда не участвует в игре",
	"level_mismatch":          "Ключ не для текущего уровня",
}

var Cheers = []string{
	"Отличная работа!",
	"Так держать!",
	"Вперед к следующей загадке!",
	"Блестяще!",
	"Ни шагу назад!",
}

func Cheer() string {
	idx := int(fastrand.Uint32n(uint32(len(Cheers))))
	if idx < len(Cheers) {
		return Cheers[idx]
	}

	return ""
}
