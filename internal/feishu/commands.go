package feishu

import (
	"regexp"
	"strings"
)

// Command is a parsed bot command from a chat message.
type Command struct {
	Kind    CommandKind
	Symbols []string // only for CommandRun; empty means the full portfolio
	Raw     string
}

// CommandKind enumerates the commands the bot understands.
type CommandKind string

const (
	CommandRun     CommandKind = "run"
	CommandHelp    CommandKind = "help"
	CommandUnknown CommandKind = "unknown"
)

var mentionRe = regexp.MustCompile(`@_user_\d+|@[^\s]+`)

// HelpText is the usage reply for help and unknown commands.
const HelpText = "Commands:\n" +
	"  run            analyze the full portfolio\n" +
	"  run SYM [...]  analyze specific symbols\n" +
	"  help           show this message"

// ParseCommand parses a chat message into a Command. Bot @mentions are
// stripped before matching.
func ParseCommand(text string) Command {
	cleaned := strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return Command{Kind: CommandUnknown, Raw: text}
	}

	switch strings.ToLower(fields[0]) {
	case "run":
		var symbols []string
		for _, tok := range fields[1:] {
			if isAlphabetic(tok) {
				symbols = append(symbols, strings.ToUpper(tok))
			}
		}
		return Command{Kind: CommandRun, Symbols: symbols, Raw: text}
	case "help":
		return Command{Kind: CommandHelp, Raw: text}
	default:
		return Command{Kind: CommandUnknown, Raw: text}
	}
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
