package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tg-moderator/app/bot/mocks"
	"github.com/umputun/tg-moderator/lib/escalation"
	"github.com/umputun/tg-moderator/lib/matcher"
)

func newTestTransport(removeErr error) *mocks.TransportMock {
	return &mocks.TransportMock{
		SendFunc: func(ctx context.Context, chatID, text string, mentions []string) error { return nil },
		RemoveParticipantFunc: func(ctx context.Context, chatID, userID string) error {
			return removeErr
		},
	}
}

func groupMsg(userID, username, text string) Message {
	return Message{ID: 1, ChatID: "chat1", From: User{ID: userID, Username: username}, Text: text, Group: true,
		Sent: time.Now()}
}

func sentTexts(tr *mocks.TransportMock) []string {
	res := []string{}
	for _, c := range tr.SendCalls() {
		res = append(res, c.Text)
	}
	return res
}

func waitTask(t *testing.T, task *RemovalTask) {
	t.Helper()
	require.NotNil(t, task)
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("removal task not completed")
	}
}

func TestModerator_Escalation(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{RemovalDelay: 10 * time.Millisecond})
	ctx := context.Background()

	res := m.OnMessage(ctx, groupMsg("u1", "alice", "anjing banget nih"))
	assert.True(t, res.Toxic.Toxic)
	assert.Equal(t, escalation.LevelFirst, res.Warning.Level())
	assert.Nil(t, res.Removal)
	require.Len(t, tr.SendCalls(), 1)
	first := tr.SendCalls()[0]
	assert.Equal(t, "chat1", first.ChatID)
	assert.Equal(t, []string{"u1"}, first.Mentions)
	assert.Contains(t, first.Text, "*PERINGATAN 1/3*")
	assert.Contains(t, first.Text, "@alice, mohon jaga bahasa")
	assert.Contains(t, first.Text, `🎯 "anjing" (100% mirip "anjing")`)
	assert.Contains(t, first.Text, "_Confidence: 50%_")

	res = m.OnMessage(ctx, groupMsg("u1", "alice", "dasar 4nj1ng"))
	assert.Equal(t, escalation.LevelSecond, res.Warning.Level())
	require.Len(t, tr.SendCalls(), 2)
	assert.Contains(t, tr.SendCalls()[1].Text, "*PERINGATAN 2/3*")
	assert.Contains(t, tr.SendCalls()[1].Text, `🔢 "4nj1ng" (80% mirip "anjing")`)

	res = m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	assert.Equal(t, escalation.LevelRemoval, res.Warning.Level())
	require.Len(t, tr.SendCalls(), 3, "removal announced synchronously")
	assert.Contains(t, tr.SendCalls()[2].Text, "*KICK OTOMATIS*")
	assert.Contains(t, tr.SendCalls()[2].Text, "@alice telah melanggar aturan 3 kali!")

	waitTask(t, res.Removal)
	m.Wait()
	require.NoError(t, res.Removal.Err())
	require.Len(t, tr.RemoveParticipantCalls(), 1)
	assert.Equal(t, "chat1", tr.RemoveParticipantCalls()[0].ChatID)
	assert.Equal(t, "u1", tr.RemoveParticipantCalls()[0].UserID)
	require.Len(t, tr.SendCalls(), 4)
	assert.Equal(t, removalDoneText, tr.SendCalls()[3].Text)
	_, ok := m.warnings.Get("u1")
	assert.False(t, ok, "warnings reset after removal")

	res = m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	assert.Equal(t, escalation.LevelFirst, res.Warning.Level(), "restarts with first warning")
}

func TestModerator_RemovalFailed(t *testing.T) {
	tr := newTestTransport(errors.New("not an admin"))
	m := New(tr, Config{RemovalDelay: time.Millisecond})
	ctx := context.Background()

	var res Outcome
	for i := 0; i < 3; i++ {
		res = m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	}
	waitTask(t, res.Removal)
	m.Wait()
	require.Error(t, res.Removal.Err())
	assert.Contains(t, res.Removal.Err().Error(), "not an admin")

	texts := sentTexts(tr)
	require.Len(t, texts, 4)
	assert.Equal(t, removalFailedText, texts[3])

	rec, ok := m.warnings.Get("u1")
	require.True(t, ok, "warnings kept after failed removal")
	assert.Equal(t, 3, rec.Count)

	res = m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	assert.Equal(t, 4, res.Warning.Count)
	assert.Equal(t, escalation.LevelRemoval, res.Warning.Level())
	waitTask(t, res.Removal)
	m.Wait()
	assert.Len(t, tr.RemoveParticipantCalls(), 2)
}

func TestModerator_CancelRemoval(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{RemovalDelay: time.Hour})
	var res Outcome
	for i := 0; i < 3; i++ {
		res = m.OnMessage(context.Background(), groupMsg("u1", "alice", "babi"))
	}
	require.NotNil(t, res.Removal)
	assert.True(t, res.Removal.Cancel())
	assert.True(t, res.Removal.Cancel(), "repeated cancel is fine")
	waitTask(t, res.Removal)
	m.Wait()
	assert.ErrorIs(t, res.Removal.Err(), ErrRemovalCancelled)
	assert.Empty(t, tr.RemoveParticipantCalls())
}

func TestModerator_RemovalIndependentOfMessageContext(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{RemovalDelay: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	var res Outcome
	for i := 0; i < 3; i++ {
		res = m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	}
	cancel()
	waitTask(t, res.Removal)
	assert.NoError(t, res.Removal.Err())
	assert.Len(t, tr.RemoveParticipantCalls(), 1)
}

func TestModerator_Skipped(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{})

	msg := groupMsg("u1", "alice", "anjing")
	msg.FromSelf = true
	assert.True(t, m.OnMessage(context.Background(), msg).Skipped)

	msg = groupMsg("u1", "alice", "anjing")
	msg.Group = false
	assert.True(t, m.OnMessage(context.Background(), msg).Skipped)

	assert.True(t, m.OnMessage(context.Background(), groupMsg("u1", "alice", "  ")).Skipped)

	assert.Empty(t, tr.SendCalls())
	assert.Equal(t, 0, m.warnings.Len())
	assert.Equal(t, 0, m.flood.Len())
}

func TestModerator_Commands(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{})
	ctx := context.Background()

	res := m.OnMessage(ctx, groupMsg("u1", "alice", "  !BOT-Help "))
	assert.Equal(t, CmdHelp, res.Command)
	require.Len(t, tr.SendCalls(), 1)
	assert.Equal(t, helpText, tr.SendCalls()[0].Text)
	assert.Empty(t, tr.SendCalls()[0].Mentions)
	assert.Equal(t, 0, m.flood.Count("u1"), "commands not counted for flood")

	tr.ResetSendCalls()
	res = m.OnMessage(ctx, groupMsg("u1", "alice", "!bot-help please"))
	assert.Empty(t, res.Command, "not a command, moderated as text")
	assert.Equal(t, 1, m.flood.Count("u1"))

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!toxic-stats"))
	assert.Equal(t, []string{"🤬 *Toxic User Statistics*\n\nTidak ada pelanggaran 🎉"}, sentTexts(tr))

	m.OnMessage(ctx, groupMsg("u3", "carol", "babi"))
	m.OnMessage(ctx, groupMsg("u3", "carol", "babi"))
	m.OnMessage(ctx, groupMsg("u2", "bob", "babi"))

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!toxic-stats"))
	assert.Equal(t, []string{"🤬 *Toxic User Statistics*\n\n1. @carol: 2 peringatan\n2. @bob: 1 peringatan"}, sentTexts(tr))

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!spam-stats"))
	assert.Equal(t, []string{"📊 *Spam Statistics*\n\n1. @carol: 2 pesan/menit\n2. @alice: 1 pesan/menit\n" +
		"3. @bob: 1 pesan/menit"}, sentTexts(tr))

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!learned-words"))
	require.Len(t, tr.SendCalls(), 1)
	assert.Contains(t, tr.SendCalls()[0].Text, "🧠 *AI Learning Stats*")
	assert.Contains(t, tr.SendCalls()[0].Text, "📜 Message history: 4")

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!toxic-reset"))
	assert.Equal(t, []string{toxicResetText}, sentTexts(tr))
	assert.Equal(t, 0, m.warnings.Len())

	tr.ResetSendCalls()
	m.OnMessage(ctx, groupMsg("u2", "bob", "!spam-reset"))
	assert.Equal(t, []string{spamResetText}, sentTexts(tr))
	assert.Equal(t, 0, m.flood.Len())
}

func TestModerator_LearningResetKeepsOtherStores(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		m.OnMessage(ctx, groupMsg("u1", "alice", "anjing bacot"))
	}
	require.Equal(t, 2, m.detector.LearningStats().History)

	res := m.OnMessage(ctx, groupMsg("u2", "bob", "!LEARNING-RESET"))
	assert.Equal(t, CmdLearningReset, res.Command)
	assert.Equal(t, learningResetText, tr.SendCalls()[len(tr.SendCalls())-1].Text)

	st := m.detector.LearningStats()
	assert.Equal(t, 0, st.History)
	assert.Equal(t, 0, st.Analyzed)
	assert.Equal(t, 0, st.Learned)

	rec, ok := m.warnings.Get("u1")
	require.True(t, ok, "warnings kept")
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, 2, m.flood.Count("u1"), "rate windows kept")
}

func TestModerator_SuperUsers(t *testing.T) {
	tr := newTestTransport(nil)
	su := &mocks.SuperUserMock{IsSuperFunc: func(userName string) bool { return userName == "admin" }}
	m := New(tr, Config{SuperUsers: su})
	ctx := context.Background()

	m.OnMessage(ctx, groupMsg("u1", "alice", "babi"))
	tr.ResetSendCalls()

	res := m.OnMessage(ctx, groupMsg("u1", "alice", "!toxic-reset"))
	assert.Equal(t, CmdToxicReset, res.Command)
	assert.Empty(t, tr.SendCalls(), "ignored silently")
	assert.Equal(t, 1, m.warnings.Len())

	m.OnMessage(ctx, groupMsg("u1", "alice", "!toxic-stats"))
	assert.Len(t, tr.SendCalls(), 1, "stats open to everyone")

	m.OnMessage(ctx, groupMsg("u9", "admin", "!toxic-reset"))
	assert.Equal(t, 0, m.warnings.Len())
	assert.Len(t, su.IsSuperCalls(), 2)
}

func TestModerator_Spam(t *testing.T) {
	t.Run("rule based", func(t *testing.T) {
		tr := newTestTransport(nil)
		m := New(tr, Config{})
		res := m.OnMessage(context.Background(), groupMsg("u1", "alice", "promo gratis buruan"))
		assert.False(t, res.Toxic.Toxic)
		assert.True(t, res.IsSpam())
		require.Len(t, tr.SendCalls(), 1)
		assert.Equal(t, "🚨 *SPAM ALERT*\n\n👤 Pengirim: @alice\n📊 Spam Score: 90%\n"+
			"📝 Alasan: Keyword mencurigakan: gratis, promo, buruan", tr.SendCalls()[0].Text)
		assert.Equal(t, []string{"u1"}, tr.SendCalls()[0].Mentions)
	})

	t.Run("flooding", func(t *testing.T) {
		tr := newTestTransport(nil)
		m := New(tr, Config{})
		var res Outcome
		for i := 0; i < 6; i++ {
			res = m.OnMessage(context.Background(), groupMsg("u1", "alice", fmt.Sprintf("halo %d", i)))
		}
		assert.True(t, res.Flood.Flooding)
		assert.False(t, res.Spam.Spam)
		require.Len(t, tr.SendCalls(), 1)
		assert.Contains(t, tr.SendCalls()[0].Text, "📊 Spam Score: 0%")
		assert.Contains(t, tr.SendCalls()[0].Text, "Flooding (6 pesan/menit)")
	})

	t.Run("no spam reply", func(t *testing.T) {
		tr := newTestTransport(nil)
		m := New(tr, Config{NoSpamReply: true})
		res := m.OnMessage(context.Background(), groupMsg("u1", "alice", "promo gratis buruan"))
		assert.True(t, res.IsSpam())
		assert.Empty(t, tr.SendCalls())
	})
}

func TestModerator_Invite(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{})
	res := m.OnMessage(context.Background(), groupMsg("u1", "alice", "ayo mabar ml"))
	assert.Equal(t, "mabar ml", res.Invite)
	require.Len(t, tr.SendCalls(), 1)
	assert.Contains(t, tr.SendCalls()[0].Text, "@alice ngajak mabar nih!")
	assert.Equal(t, []string{"u1"}, tr.SendCalls()[0].Mentions)

	tr = newTestTransport(nil)
	m = New(tr, Config{NoInvite: true})
	res = m.OnMessage(context.Background(), groupMsg("u1", "alice", "ayo mabar ml"))
	assert.Empty(t, res.Invite)
	assert.Empty(t, tr.SendCalls())
}

func TestModerator_SendErrorsIgnored(t *testing.T) {
	tr := newTestTransport(nil)
	tr.SendFunc = func(ctx context.Context, chatID, text string, mentions []string) error {
		return errors.New("send failed")
	}
	m := New(tr, Config{})
	res := m.OnMessage(context.Background(), groupMsg("u1", "alice", "babi"))
	assert.True(t, res.Toxic.Toxic)
	assert.Equal(t, 1, res.Messages)
	assert.Len(t, tr.SendCalls(), 1)
}

func TestModerator_CheckAndStats(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{})

	cr := m.Check("4NJ1NG promo", "u1")
	assert.True(t, cr.Toxic.Toxic)
	require.Len(t, cr.Toxic.Violations, 1)
	assert.Equal(t, matcher.TypeLeetspeak, cr.Toxic.Violations[0].Type)
	assert.InDelta(t, 0.3, cr.Spam.Score, 0.0001)

	st := m.Stats(10)
	assert.Empty(t, st.Warnings, "check records nothing")
	assert.Empty(t, st.Flood)
	assert.Equal(t, 0, st.Learning.History)

	m.OnMessage(context.Background(), groupMsg("u1", "alice", "babi"))
	st = m.Stats(10)
	require.Len(t, st.Warnings, 1)
	assert.Equal(t, "u1", st.Warnings[0].UserID)
	require.Len(t, st.Flood, 1)
	assert.Equal(t, 1, st.Learning.History)
}

func TestOutcome_JSON(t *testing.T) {
	m := New(newTestTransport(nil), Config{})
	out := m.OnMessage(context.Background(), groupMsg("u1", "alice", "anjing"))
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warning":{"user_id":"u1","count":1`)
	assert.NotContains(t, string(data), "Removal")

	data, err = json.Marshal(Outcome{Skipped: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warning":{"user_id":"","count":0`, "zero record is still encoded")
	assert.NotContains(t, string(data), "command")
}

func TestModerator_ConcurrentWarnings(t *testing.T) {
	tr := newTestTransport(nil)
	m := New(tr, Config{RemovalDelay: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := []int{}
	removals := []*RemovalTask{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := m.OnMessage(context.Background(), groupMsg("u1", "alice", "babi"))
			mu.Lock()
			counts = append(counts, res.Warning.Count)
			if res.Removal != nil {
				removals = append(removals, res.Removal)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	for _, r := range removals {
		assert.True(t, r.Cancel())
	}
	m.Wait()
	assert.Len(t, removals, 8)

	sort.Ints(counts)
	for i, c := range counts {
		assert.Equal(t, i+1, c)
	}
}

func TestUser_Handle(t *testing.T) {
	assert.Equal(t, "alice", User{ID: "1", Username: "alice", DisplayName: "Alice A"}.Handle())
	assert.Equal(t, "Alice A", User{ID: "1", DisplayName: " Alice A "}.Handle())
	assert.Equal(t, "1", User{ID: "1"}.Handle())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice A", DisplayName(Message{From: User{ID: "1", Username: "alice", DisplayName: "Alice A"}}))
	assert.Equal(t, "alice", DisplayName(Message{From: User{ID: "1", Username: "alice"}}))
	assert.Equal(t, "1", DisplayName(Message{From: User{ID: "1"}}))
}
