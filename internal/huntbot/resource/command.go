package resource

const (
	CmdStart      = "start"
	CmdRules      = "rules"
	CmdWaivers    = "waivers"
	CmdYes        = "yes"
	CmdNo         = "no"
	CmdApprove    = "approve"
	CmdStartGame  = "startgame"
	CmdCancelGame = "cancelgame"
	CmdHints      = "hints"
	CmdKeys       = "keys"
	CmdLevels     = "levels"
)

const (
	ProjectName    = "keyhunt"
	ProjectVersion = "v0.1.0"
	BotFatherURL   = "https://t.me/botfather"
)

var GreetingCLI = "%s %s\n\n"
