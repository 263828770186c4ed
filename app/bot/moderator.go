// Package bot implements the moderation engine. Moderator gets messages from a transport, checks them for
// toxicity and spam and reacts: warns toxic users and removes them after repeated violations, alerts about spam
// and flooding, announces game invitations and answers admin commands.
//
// Every message goes through two independent branches. The toxic branch runs the detector, updates the learning
// store and escalates user's warnings. The spam branch runs the rule-based scorer and the flood limiter.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"

	"github.com/umputun/tg-moderator/lib/escalation"
	"github.com/umputun/tg-moderator/lib/flood"
	"github.com/umputun/tg-moderator/lib/modcheck"
	"github.com/umputun/tg-moderator/lib/spamrule"
	"github.com/umputun/tg-moderator/lib/toxic"
)

// Config is a full set of parameters for Moderator
type Config struct {
	Toxic          toxic.Config
	Flood          flood.Config
	Spam           spamrule.Config
	InviteKeywords []string      // game invitation phrases, spamrule.DefaultInviteKeywords if nil
	RemovalDelay   time.Duration // delay between removal announcement and removal, DefaultRemovalDelay if 0
	NoSpamReply    bool          // don't send spam alerts
	NoInvite       bool          // don't announce game invitations
	SuperUsers     SuperUser     // if set, reset commands accepted from super users only
}

// Moderator is the moderation engine, owns all the stores. Thread-safe.
type Moderator struct {
	Config
	transport Transport

	detector *toxic.Detector
	warnings *escalation.Tracker
	flood    *flood.Limiter
	spam     *spamrule.Scorer
	invites  *spamrule.KeywordSet
	names    cache.Cache[string, string] // user id -> handle, for stats

	tasks sync.WaitGroup
}

// Outcome describes what Moderator did with a message
type Outcome struct {
	Skipped  bool              `json:"skipped,omitempty"` // message ignored, not from a group or sent by the bot
	Command  string            `json:"command,omitempty"` // admin command, message not moderated
	Toxic    toxic.Verdict     `json:"toxic"`
	Warning  escalation.Record `json:"warning"`          // updated record of the author if toxic
	Invite   string            `json:"invite,omitempty"` // matched game invitation phrase
	Spam     spamrule.Result   `json:"spam"`
	Flood    flood.Result      `json:"flood"`
	Removal  *RemovalTask      `json:"-"`        // scheduled removal of the author
	Messages int               `json:"messages"` // number of messages sent to the chat
}

// IsSpam returns true if the message was detected as spam or the author is flooding
func (o Outcome) IsSpam() bool {
	return o.Spam.Spam || o.Flood.Flooding
}

// CheckResult is a result of a dry check, nothing is learned or recorded
type CheckResult struct {
	Toxic toxic.Verdict   `json:"toxic"`
	Spam  spamrule.Result `json:"spam"`
}

// Stats is a summary of the moderation state
type Stats struct {
	Warnings []escalation.Record `json:"warnings"`
	Flood    []flood.Entry       `json:"flood"`
	Learning toxic.LearningStats `json:"learning"`
}

// New makes a Moderator with fresh stores
func New(transport Transport, cfg Config) *Moderator {
	if cfg.RemovalDelay <= 0 {
		cfg.RemovalDelay = DefaultRemovalDelay
	}
	if cfg.InviteKeywords == nil {
		cfg.InviteKeywords = spamrule.DefaultInviteKeywords
	}
	return &Moderator{
		Config:    cfg,
		transport: transport,
		detector:  toxic.NewDetector(cfg.Toxic),
		warnings:  escalation.NewTracker(),
		flood:     flood.New(cfg.Flood),
		spam:      spamrule.NewScorer(cfg.Spam),
		invites:   spamrule.NewKeywordSet(cfg.InviteKeywords),
		names:     cache.NewCache[string, string]().WithMaxKeys(10000).WithLRU(),
	}
}

// OnMessage moderates the message or runs admin command
func (m *Moderator) OnMessage(ctx context.Context, msg Message) Outcome {
	if msg.FromSelf || !msg.Group {
		return Outcome{Skipped: true}
	}
	if strings.TrimSpace(msg.Text) == "" {
		return Outcome{Skipped: true}
	}
	m.names.Set(msg.From.ID, msg.From.Handle(), 0)

	if cmd, ok := parseCommand(msg.Text); ok {
		return Outcome{Command: cmd, Messages: m.onCommand(ctx, msg, cmd)}
	}

	res := Outcome{}
	m.toxicBranch(ctx, msg, &res)
	m.inviteCheck(ctx, msg, &res)
	m.spamBranch(ctx, msg, &res)
	return res
}

func (m *Moderator) toxicBranch(ctx context.Context, msg Message, res *Outcome) {
	res.Toxic = m.detector.Observe(modcheck.Request{Msg: msg.Text, UserID: msg.From.ID, UserName: msg.From.Username})
	if !res.Toxic.Toxic {
		log.Printf("[DEBUG] message from %s is not toxic, confidence %.2f", DisplayName(msg), res.Toxic.Confidence)
		return
	}

	res.Warning = m.warnings.Warn(msg.From.ID)
	level := res.Warning.Level()
	log.Printf("[INFO] toxic message from %s (%s), warning %d (%s), confidence %.2f, violations %+v, indicators %v",
		DisplayName(msg), msg.From.ID, res.Warning.Count, level, res.Toxic.Confidence, res.Toxic.Violations,
		res.Toxic.Indicators)

	m.send(ctx, msg.ChatID, warningText(level, msg.From, res.Toxic), msg.From.ID)
	res.Messages++
	if level == escalation.LevelRemoval {
		res.Removal = m.scheduleRemoval(ctx, msg)
	}
}

func (m *Moderator) inviteCheck(ctx context.Context, msg Message, res *Outcome) {
	if m.NoInvite {
		return
	}
	found := m.invites.Match(msg.Text)
	if len(found) == 0 {
		return
	}
	res.Invite = found[0]
	log.Printf("[INFO] game invitation from %s, %q", DisplayName(msg), res.Invite)
	m.send(ctx, msg.ChatID, inviteText(msg.From), msg.From.ID)
	res.Messages++
}

func (m *Moderator) spamBranch(ctx context.Context, msg Message, res *Outcome) {
	res.Spam = m.spam.Score(msg.Text)
	res.Flood = m.flood.Check(msg.From.ID)
	if !res.IsSpam() {
		return
	}
	log.Printf("[INFO] spam from %s, score %.2f, reasons %v, %d messages in window",
		DisplayName(msg), res.Spam.Score, res.Spam.Reasons, res.Flood.Count)
	if m.NoSpamReply {
		return
	}
	m.send(ctx, msg.ChatID, spamAlertText(msg.From, res.Spam, res.Flood), msg.From.ID)
	res.Messages++
}

// scheduleRemoval starts deferred removal of the author, not bound to the lifetime of the triggering message
func (m *Moderator) scheduleRemoval(ctx context.Context, msg Message) *RemovalTask {
	task := newRemovalTask(msg.ChatID, msg.From.ID)
	taskCtx := context.WithoutCancel(ctx)
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		task.run(taskCtx, m.RemovalDelay, func(ctx context.Context) error {
			if err := m.transport.RemoveParticipant(ctx, msg.ChatID, msg.From.ID); err != nil {
				log.Printf("[WARN] failed to remove %s (%s): %v", DisplayName(msg), msg.From.ID, err)
				m.send(ctx, msg.ChatID, removalFailedText)
				return fmt.Errorf("failed to remove user %s: %w", msg.From.ID, err)
			}
			log.Printf("[INFO] user %s (%s) removed from %s", DisplayName(msg), msg.From.ID, msg.ChatID)
			m.send(ctx, msg.ChatID, removalDoneText)
			m.warnings.Reset(msg.From.ID)
			return nil
		})
	}()
	return task
}

// Wait blocks until all scheduled removals are completed
func (m *Moderator) Wait() {
	m.tasks.Wait()
}

// Check classifies the text without learning and without recording anything
func (m *Moderator) Check(text, userID string) CheckResult {
	return CheckResult{
		Toxic: m.detector.Check(modcheck.Request{Msg: text, UserID: userID}),
		Spam:  m.spam.Score(text),
	}
}

// Stats returns top warned and flooding users and learning stats
func (m *Moderator) Stats(top int) Stats {
	return Stats{Warnings: m.warnings.Top(top), Flood: m.flood.Top(top), Learning: m.detector.LearningStats()}
}

// send sends text to the chat, errors are logged only
func (m *Moderator) send(ctx context.Context, chatID, text string, mentions ...string) {
	if err := m.transport.Send(ctx, chatID, text, mentions); err != nil {
		log.Printf("[WARN] failed to send message to %s: %v", chatID, err)
	}
}

func (m *Moderator) handle(userID string) string {
	if h, ok := m.names.Get(userID); ok {
		return h
	}
	return userID
}
