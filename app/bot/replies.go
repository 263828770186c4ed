package bot

import (
	"fmt"
	"strings"

	"github.com/umputun/tg-moderator/lib/escalation"
	"github.com/umputun/tg-moderator/lib/flood"
	"github.com/umputun/tg-moderator/lib/matcher"
	"github.com/umputun/tg-moderator/lib/spamrule"
	"github.com/umputun/tg-moderator/lib/toxic"
)

var matchEmoji = map[matcher.Type]string{
	matcher.TypeExact:     "🎯",
	matcher.TypeSimilar:   "🔄",
	matcher.TypeContains:  "📍",
	matcher.TypeLearned:   "🧠",
	matcher.TypeLeetspeak: "🔢",
	matcher.TypeSpaced:    "📏",
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// violationDetails renders detected words and context indicators, empty if nothing to show
func violationDetails(v toxic.Verdict) string {
	var sb strings.Builder
	if len(v.Violations) > 0 {
		sb.WriteString("\n\n*Terdeteksi:*")
		for _, vl := range v.Violations {
			emoji, ok := matchEmoji[vl.Type]
			if !ok {
				emoji = "⚠️"
			}
			fmt.Fprintf(&sb, "\n%s %q (%s mirip %q)", emoji, vl.Original, percent(vl.Confidence), vl.Matched)
		}
	}
	if len(v.Indicators) > 0 {
		sb.WriteString("\n\n*Indikator:* " + strings.Join(v.Indicators, ", "))
	}
	return sb.String()
}

func warningText(level escalation.Level, user User, v toxic.Verdict) string {
	details := violationDetails(v)
	switch level {
	case escalation.LevelFirst:
		return fmt.Sprintf("⚠️ *PERINGATAN 1/3*\n\n@%s, mohon jaga bahasa di grup ini ya! 🙏%s\n\n_Confidence: %s_",
			user.Handle(), details, percent(v.Confidence))
	case escalation.LevelSecond:
		return fmt.Sprintf("⚠️ *PERINGATAN 2/3*\n\n@%s, ini peringatan kedua! Harap gunakan bahasa yang sopan. ⚠️%s",
			user.Handle(), details)
	default:
		return fmt.Sprintf("🚨 *KICK OTOMATIS*\n\n@%s telah melanggar aturan 3 kali!%s\n\n_Member akan di-kick dari grup..._",
			user.Handle(), details)
	}
}

const (
	removalDoneText   = "✅ *Member Removed*\n\nUser telah di-kick karena pelanggaran berulang (3x toxic warning)."
	removalFailedText = "⚠️ Gagal kick member. Pastikan bot adalah admin grup!"
)

func inviteText(user User) string {
	return fmt.Sprintf("🎮 *MOBILE LEGENDS PARTY!* 🎮\n\n@%s ngajak mabar nih!\n\n"+
		"📢 Calling all gamers! Ada yang mau ikutan?\n\nYang minat langsung chat ya! 🔥", user.Handle())
}

func spamAlertText(user User, sr spamrule.Result, fr flood.Result) string {
	reasons := append([]string{}, sr.Reasons...)
	if fr.Flooding {
		reasons = append(reasons, fmt.Sprintf("Flooding (%d pesan/menit)", fr.Count))
	}
	return fmt.Sprintf("🚨 *SPAM ALERT*\n\n👤 Pengirim: @%s\n📊 Spam Score: %s\n📝 Alasan: %s",
		user.Handle(), percent(sr.Score), strings.Join(reasons, ", "))
}

func spamStatsText(top []flood.Entry, names func(userID string) string) string {
	if len(top) == 0 {
		return "📊 *Spam Statistics*\n\nTidak ada aktivitas mencurigakan"
	}
	lines := make([]string, 0, len(top))
	for i, e := range top {
		lines = append(lines, fmt.Sprintf("%d. @%s: %d pesan/menit", i+1, names(e.UserID), e.Count))
	}
	return "📊 *Spam Statistics*\n\n" + strings.Join(lines, "\n")
}

func toxicStatsText(top []escalation.Record, names func(userID string) string) string {
	if len(top) == 0 {
		return "🤬 *Toxic User Statistics*\n\nTidak ada pelanggaran 🎉"
	}
	lines := make([]string, 0, len(top))
	for i, r := range top {
		lines = append(lines, fmt.Sprintf("%d. @%s: %d peringatan", i+1, names(r.UserID), r.Count))
	}
	return "🤬 *Toxic User Statistics*\n\n" + strings.Join(lines, "\n")
}

func learningStatsText(st toxic.LearningStats) string {
	var sb strings.Builder
	sb.WriteString("🧠 *AI Learning Stats*\n\n")
	fmt.Fprintf(&sb, "📚 Learned toxic words: %d\n", st.Learned)
	fmt.Fprintf(&sb, "📊 Total analyzed words: %d\n", st.Analyzed)
	fmt.Fprintf(&sb, "📜 Message history: %d", st.History)
	if len(st.Suspicious) > 0 {
		sb.WriteString("\n\n*Top Suspicious Words:*")
		for _, w := range st.Suspicious {
			fmt.Fprintf(&sb, "\n• %s: %d toxic / %d normal", w.Word, w.Toxic, w.Normal)
		}
	}
	return sb.String()
}

const (
	toxicResetText    = "✅ Semua peringatan toxic telah di-reset"
	spamResetText     = "✅ Spam tracker telah di-reset"
	learningResetText = "✅ AI learning data telah di-reset"
)

const helpText = "🤖 *Bot Command List*\n\n" +
	"📊 *Statistik:*\n" +
	"• !spam-stats - Lihat statistik spam\n" +
	"• !toxic-stats - Lihat user toxic\n" +
	"• !learned-words - Lihat AI learning stats 🧠\n\n" +
	"🔧 *Admin:*\n" +
	"• !toxic-reset - Reset peringatan\n" +
	"• !spam-reset - Reset spam tracker\n" +
	"• !learning-reset - Reset AI learning\n" +
	"• !bot-help - Tampilkan menu ini\n\n" +
	"🛡️ *Fitur Otomatis:*\n" +
	"✓ AI learning kata kasar (deteksi variasi)\n" +
	"✓ Auto-tag saat ada ajakan main ML\n" +
	"✓ Deteksi spam & flooding\n" +
	"✓ Context analysis (CAPS, mention attack, dll)"
