package bot

import (
	"context"
	"log"
	"strings"
)

// admin commands
const (
	CmdSpamStats     = "!spam-stats"
	CmdToxicStats    = "!toxic-stats"
	CmdLearnedWords  = "!learned-words"
	CmdToxicReset    = "!toxic-reset"
	CmdSpamReset     = "!spam-reset"
	CmdLearningReset = "!learning-reset"
	CmdHelp          = "!bot-help"
)

// parseCommand returns lowercase command if the whole trimmed text is a known command
func parseCommand(text string) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(text))
	switch cmd {
	case CmdSpamStats, CmdToxicStats, CmdLearnedWords, CmdToxicReset, CmdSpamReset, CmdLearningReset, CmdHelp:
		return cmd, true
	}
	return "", false
}

func isResetCommand(cmd string) bool {
	return cmd == CmdToxicReset || cmd == CmdSpamReset || cmd == CmdLearningReset
}

// onCommand runs the command and replies to the chat, returns number of sent messages
func (m *Moderator) onCommand(ctx context.Context, msg Message, cmd string) int {
	if isResetCommand(cmd) && m.SuperUsers != nil && !m.SuperUsers.IsSuper(msg.From.Username) {
		log.Printf("[INFO] %s is not a super user, command %s ignored", DisplayName(msg), cmd)
		return 0
	}
	log.Printf("[INFO] command %s from %s", cmd, DisplayName(msg))

	var reply string
	switch cmd {
	case CmdSpamStats:
		reply = spamStatsText(m.flood.Top(5), m.handle)
	case CmdToxicStats:
		reply = toxicStatsText(m.warnings.Top(5), m.handle)
	case CmdLearnedWords:
		reply = learningStatsText(m.detector.LearningStats())
	case CmdToxicReset:
		m.warnings.ResetAll()
		reply = toxicResetText
	case CmdSpamReset:
		m.flood.Reset()
		reply = spamResetText
	case CmdLearningReset:
		m.detector.ResetLearning()
		reply = learningResetText
	case CmdHelp:
		reply = helpText
	}
	m.send(ctx, msg.ChatID, reply)
	return 1
}
