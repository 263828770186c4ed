package toxic

import (
	"strings"

	"github.com/umputun/tg-moderator/lib/modcheck"
)

// context indicators reported by AnalyzeContext
const (
	IndicatorRepetition = "Repetisi kata berlebihan"
	IndicatorShouting   = "Berteriak"
	IndicatorHistory    = "Histori toxic behavior"
	IndicatorMention    = "Mention attack"
)

// aggressiveWords trigger mention attack together with multiple mentions
var aggressiveWords = []string{"payah", "jelek", "buruk", "sampah", "noob", "nub"}

// ContextScore is a result of the whole-message heuristics
type ContextScore struct {
	Score      float64  `json:"score"`      // 0.0 - 1.0
	Indicators []string `json:"indicators"` // fired rules, in rule order
}

// AnalyzeContext scores the message with heuristics independent of the lexicon.
// history is the list of author's previous messages, oldest first.
func AnalyzeContext(msg string, history []modcheck.Record) ContextScore {
	res := ContextScore{Indicators: []string{}}

	// repeated words
	freq := map[string]int{}
	for _, w := range modcheck.Tokens(msg) {
		freq[w]++
	}
	for _, n := range freq {
		if n > 3 {
			res.Score += 0.2
			res.Indicators = append(res.Indicators, IndicatorRepetition)
			break
		}
	}

	// caps with exclamation marks
	caps := 0
	for _, r := range msg {
		if r >= 'A' && r <= 'Z' {
			caps++
		}
	}
	if caps > 10 && strings.Count(msg, "!") > 3 {
		res.Score += 0.25
		res.Indicators = append(res.Indicators, IndicatorShouting)
	}

	// author was toxic recently
	if len(history) > 3 {
		recent := history
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		toxic := 0
		for _, rec := range recent {
			if rec.Toxic {
				toxic++
			}
		}
		if toxic >= 3 {
			res.Score += 0.3
			res.Indicators = append(res.Indicators, IndicatorHistory)
		}
	}

	// many mentions with aggressive words
	if strings.Count(msg, "@") > 2 {
		lowerMsg := strings.ToLower(msg)
		for _, w := range aggressiveWords {
			if strings.Contains(lowerMsg, w) {
				res.Score += 0.35
				res.Indicators = append(res.Indicators, IndicatorMention)
				break
			}
		}
	}

	res.Score = min(res.Score, 1.0)
	return res
}
