// Package events provide the telegram transport for the moderation engine. TelegramListener gets updates from
// telegram, converts them to bot.Message and passes to the engine. It also implements bot.Transport, sending
// engine's replies back to the group and removing users from it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	tbapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/umputun/tg-moderator/app/bot"
)

//go:generate moq --out mocks/tb_api.go --pkg mocks --with-resets --skip-ensure . TbAPI
//go:generate moq --out mocks/mod_logger.go --pkg mocks --with-resets --skip-ensure . ModLogger
//go:generate moq --out mocks/moderator.go --pkg mocks --with-resets --skip-ensure . Moderator

// TbAPI is an interface for telegram bot API, only subset of methods used
type TbAPI interface {
	GetUpdatesChan(config tbapi.UpdateConfig) tbapi.UpdatesChannel
	Send(c tbapi.Chattable) (tbapi.Message, error)
	Request(c tbapi.Chattable) (*tbapi.APIResponse, error)
	GetChat(config tbapi.ChatInfoConfig) (tbapi.ChatFullInfo, error)
	GetChatAdministrators(config tbapi.ChatAdministratorsConfig) ([]tbapi.ChatMember, error)
}

// ModLogger is an interface for moderation events logger
type ModLogger interface {
	Save(msg *bot.Message, outcome *bot.Outcome)
}

// ModLoggerFunc is a function that implements ModLogger interface
type ModLoggerFunc func(msg *bot.Message, outcome *bot.Outcome)

// Save is a function that implements ModLogger interface
func (f ModLoggerFunc) Save(msg *bot.Message, outcome *bot.Outcome) {
	f(msg, outcome)
}

// Moderator is an interface for the moderation engine
type Moderator interface {
	OnMessage(ctx context.Context, msg bot.Message) bot.Outcome
}

// ModLogEntry is a record written to moderation log
type ModLogEntry struct {
	Time      time.Time       `json:"time"`
	ChatID    string          `json:"chat_id"`
	UserID    string          `json:"user_id"`
	UserName  string          `json:"user_name,omitempty"`
	Text      string          `json:"text"`
	Toxic     bool            `json:"toxic"`
	Warnings  int             `json:"warnings,omitempty"`
	Removal   bool            `json:"removal,omitempty"`
	Spam      bool            `json:"spam"`
	SpamScore float64         `json:"spam_score"`
	Flooding  bool            `json:"flooding,omitempty"`
	Verdict   json.RawMessage `json:"verdict,omitempty"`
}

// NewModLogEntry makes a log entry for the moderated message
func NewModLogEntry(msg *bot.Message, outcome *bot.Outcome) ModLogEntry {
	res := ModLogEntry{
		Time:      msg.Sent,
		ChatID:    msg.ChatID,
		UserID:    msg.From.ID,
		UserName:  msg.From.Username,
		Text:      strings.ReplaceAll(msg.Text, "\n", " "),
		Toxic:     outcome.Toxic.Toxic,
		Warnings:  outcome.Warning.Count,
		Removal:   outcome.Removal != nil,
		Spam:      outcome.Spam.Spam,
		SpamScore: outcome.Spam.Score,
		Flooding:  outcome.Flood.Flooding,
	}
	if outcome.Toxic.Toxic {
		if data, err := json.Marshal(outcome.Toxic); err == nil {
			res.Verdict = data
		}
	}
	return res
}

// send a message to the telegram as markdown first and if failed - as plain text
func send(tbMsg tbapi.Chattable, tbAPI TbAPI) error {
	withParseMode := func(tbMsg tbapi.Chattable, parseMode string) tbapi.Chattable {
		switch msg := tbMsg.(type) {
		case tbapi.MessageConfig:
			if parseMode == tbapi.ModeMarkdown {
				msg = mentionLinks(msg)
			}
			msg.ParseMode = parseMode
			msg.LinkPreviewOptions = tbapi.LinkPreviewOptions{IsDisabled: true}
			return msg
		case tbapi.EditMessageTextConfig:
			msg.ParseMode = parseMode
			msg.LinkPreviewOptions = tbapi.LinkPreviewOptions{IsDisabled: true}
			return msg
		}
		return tbMsg // don't touch other types
	}

	msg := withParseMode(tbMsg, tbapi.ModeMarkdown) // try markdown first
	if _, err := tbAPI.Send(msg); err != nil {
		log.Printf("[WARN] failed to send message as markdown, %v", err)
		msg = withParseMode(tbMsg, "") // try plain text
		if _, err := tbAPI.Send(msg); err != nil {
			return fmt.Errorf("can't send message to telegram: %w", err)
		}
	}
	return nil
}

// withMentions binds "@handle" tokens of the text to mentioned user ids, in order, as text_mention entities.
// a handle token runs from "@" up to the first space, comma or line break.
func withMentions(msg tbapi.MessageConfig, mentions []string) tbapi.MessageConfig {
	text := utf16.Encode([]rune(msg.Text)) // entity offsets are in utf-16 code units
	pos := 0
	for _, m := range mentions {
		uid, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			log.Printf("[WARN] invalid mention id %q", m)
			continue
		}
		start := slices.Index(text[pos:], '@')
		if start < 0 {
			log.Printf("[DEBUG] no handle in text for mention %d", uid)
			break
		}
		start += pos
		end := start + 1
		for end < len(text) && !strings.ContainsRune(" ,\n\t", rune(text[end])) {
			end++
		}
		msg.Entities = append(msg.Entities, tbapi.MessageEntity{Type: "text_mention", Offset: start, Length: end - start,
			User: &tbapi.User{ID: uid}})
		pos = end
	}
	return msg
}

// mentionLinks renders text_mention entities as inline markdown mentions and drops the entities
func mentionLinks(msg tbapi.MessageConfig) tbapi.MessageConfig {
	if len(msg.Entities) == 0 {
		return msg
	}
	text := utf16.Encode([]rune(msg.Text))
	var sb strings.Builder
	pos := 0
	for _, e := range msg.Entities {
		if e.Type != "text_mention" || e.User == nil || e.Offset < pos || e.Offset+e.Length > len(text) {
			continue
		}
		sb.WriteString(string(utf16.Decode(text[pos:e.Offset])))
		fmt.Fprintf(&sb, "[%s](tg://user?id=%d)", string(utf16.Decode(text[e.Offset:e.Offset+e.Length])), e.User.ID)
		pos = e.Offset + e.Length
	}
	sb.WriteString(string(utf16.Decode(text[pos:])))
	msg.Text = sb.String()
	msg.Entities = nil
	return msg
}

type removeRequest struct {
	tbAPI TbAPI

	userID int64
	chatID int64

	dry  bool
	kick bool // unban right after ban, user can join again
}

// removeUser bans user in the chat permanently, or kicks if kick mode set.
// The bot must be an administrator in the group with the appropriate rights.
func removeUser(r removeRequest) error {
	if r.dry {
		log.Printf("[INFO] dry run: remove user %d from %d", r.userID, r.chatID)
		return nil
	}

	memberCfg := tbapi.ChatMemberConfig{ChatConfig: tbapi.ChatConfig{ChatID: r.chatID}, UserID: r.userID}
	resp, err := r.tbAPI.Request(tbapi.BanChatMemberConfig{ChatMemberConfig: memberCfg})
	if err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("response is not Ok: %v", string(resp.Result))
	}

	if r.kick {
		resp, err = r.tbAPI.Request(tbapi.UnbanChatMemberConfig{ChatMemberConfig: memberCfg, OnlyIfBanned: true})
		if err != nil {
			return fmt.Errorf("failed to unban kicked user: %w", err)
		}
		if !resp.Ok {
			return fmt.Errorf("unban response is not Ok: %v", string(resp.Result))
		}
	}
	log.Printf("[INFO] user %d removed from %d, kick: %v", r.userID, r.chatID, r.kick)
	return nil
}

// transform converts telegram message to bot.Message, caption used as text for media messages
func transform(msg *tbapi.Message, botID int64) bot.Message {
	message := bot.Message{
		ID:     msg.MessageID,
		ChatID: strconv.FormatInt(msg.Chat.ID, 10),
		Sent:   msg.Time(),
		Text:   msg.Text,
		Group:  msg.Chat.Type == "group" || msg.Chat.Type == "supergroup",
	}

	if msg.From != nil {
		message.From = bot.User{
			ID:       strconv.FormatInt(msg.From.ID, 10),
			Username: msg.From.UserName,
		}
		message.FromSelf = botID != 0 && msg.From.ID == botID
		if strings.TrimSpace(msg.From.FirstName) != "" {
			message.From.DisplayName = msg.From.FirstName
		}
		if strings.TrimSpace(msg.From.LastName) != "" {
			message.From.DisplayName = strings.TrimSpace(message.From.DisplayName + " " + msg.From.LastName)
		}
	}

	if msg.Caption != "" {
		if message.Text == "" {
			message.Text = msg.Caption
		} else {
			message.Text += "\n" + msg.Caption
		}
	}
	return message
}
