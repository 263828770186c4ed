package events

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tbapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-pkgz/repeater"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/tg-moderator/app/bot"
)

// TelegramListener listens to tg updates of the group, forwards messages to Moderator.
// Implements bot.Transport for Moderator's replies and removals.
type TelegramListener struct {
	TbAPI      TbAPI
	ModLogger  ModLogger
	Moderator  Moderator
	Group      string // can be int64 or public group username (without "@" prefix)
	BotID      int64  // messages from this user are marked as sent by the bot
	SuperUsers *SuperUsers
	StartupMsg string
	Dry        bool // don't remove users, log only
	Kick       bool // unban right after ban, removed users can join again

	chatID     int64
	retryDelay time.Duration
}

// Do process all events, blocked call
func (l *TelegramListener) Do(ctx context.Context) error {
	log.Printf("[INFO] start telegram listener for %q", l.Group)
	if l.Dry {
		log.Print("[WARN] dry mode, users will not be removed")
	}

	var getChatErr error
	if l.chatID, getChatErr = l.getChatID(ctx, l.Group); getChatErr != nil {
		return fmt.Errorf("failed to get chat ID for group %q: %w", l.Group, getChatErr)
	}
	log.Printf("[INFO] group chat ID: %d", l.chatID)

	errs := new(multierror.Error)
	if err := l.updateSupers(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to update superusers: %w", err))
	}
	if l.StartupMsg != "" {
		if err := send(tbapi.NewMessage(l.chatID, l.StartupMsg), l.TbAPI); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to send startup message: %w", err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		log.Printf("[WARN] %v", err)
	}

	u := tbapi.NewUpdate(0)
	u.Timeout = 60
	updates := l.TbAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update chan closed")
			}
			if update.Message == nil {
				continue
			}
			if err := l.procEvents(ctx, update); err != nil {
				log.Printf("[WARN] failed to process update: %v", err)
				continue
			}
		}
	}
}

// procEvents passes the message to Moderator and logs moderation events, panics are reported as errors
func (l *TelegramListener) procEvents(ctx context.Context, update tbapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing message %d: %v", update.Message.MessageID, r)
		}
	}()

	if update.Message.Chat.ID != l.chatID {
		log.Printf("[DEBUG] ignore message from chat %d", update.Message.Chat.ID)
		return nil
	}

	msg := transform(update.Message, l.BotID)
	log.Printf("[DEBUG] incoming msg from %s: %s", bot.DisplayName(msg), strings.ReplaceAll(msg.Text, "\n", " "))
	outcome := l.Moderator.OnMessage(ctx, msg)
	if l.ModLogger != nil && (outcome.Toxic.Toxic || outcome.IsSpam()) {
		l.ModLogger.Save(&msg, &outcome)
	}
	return nil
}

// Send sends text to the chat, mentions are part of the text already
func (l *TelegramListener) Send(_ context.Context, chatID, text string, mentions []string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	log.Printf("[DEBUG] send to %d, mentions %v: %s", id, mentions, strings.ReplaceAll(text, "\n", "\\n"))
	if err := send(withMentions(tbapi.NewMessage(id, text), mentions), l.TbAPI); err != nil {
		return fmt.Errorf("can't send message to %d: %w", id, err)
	}
	return nil
}

// RemoveParticipant bans user in the chat, or kicks if Kick set
func (l *TelegramListener) RemoveParticipant(_ context.Context, chatID, userID string) error {
	cid, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return removeUser(removeRequest{tbAPI: l.TbAPI, chatID: cid, userID: uid, dry: l.Dry, kick: l.Kick})
}

func (l *TelegramListener) getChatID(ctx context.Context, group string) (int64, error) {
	chatID, err := strconv.ParseInt(group, 10, 64)
	if err == nil {
		return chatID, nil
	}

	delay := l.retryDelay
	if delay == 0 {
		delay = time.Second
	}
	err = repeater.NewDefault(3, delay).Do(ctx, func() error {
		chat, e := l.TbAPI.GetChat(tbapi.ChatInfoConfig{ChatConfig: tbapi.ChatConfig{SuperGroupUsername: "@" + group}})
		if e != nil {
			log.Printf("[DEBUG] can't get chat for %s: %v", group, e)
			return e
		}
		chatID = chat.ID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("can't get chat for %s: %w", group, err)
	}
	return chatID, nil
}

// updateSupers adds chat administrators to the list of super users
func (l *TelegramListener) updateSupers() error {
	if l.SuperUsers == nil {
		l.SuperUsers = NewSuperUsers()
	}
	admins, err := l.TbAPI.GetChatAdministrators(tbapi.ChatAdministratorsConfig{ChatConfig: tbapi.ChatConfig{ChatID: l.chatID}})
	if err != nil {
		return fmt.Errorf("failed to get chat administrators: %w", err)
	}

	for _, admin := range admins {
		if admin.User == nil || strings.TrimSpace(admin.User.UserName) == "" {
			continue
		}
		l.SuperUsers.Add(admin.User.UserName)
	}
	log.Printf("[INFO] added admins, full list of supers: {%s}", strings.Join(l.SuperUsers.List(), ", "))
	return nil
}
