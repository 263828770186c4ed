// Package spamrule scores messages with a set of weighted rules typical for promo and scam messages:
// suspicious keywords, many links, many emojis, caps lock and very long messages. The score is independent
// of toxicity detection and of the author's history.
package spamrule

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
)

// DefaultThreshold is a score starting from which a message is spam
const DefaultThreshold = 0.7

// Hit is a fired rule with its weight and human-readable reason
type Hit struct {
	Weight float64
	Reason string
}

// Rule checks the message and returns a hit if fired
type Rule func(msg string) (Hit, bool)

// Result is a result of spam scoring
type Result struct {
	Spam    bool     `json:"spam"`
	Score   float64  `json:"score"` // 0.0 - 1.0
	Reasons []string `json:"reasons"`
}

// Config is a set of parameters for Scorer
type Config struct {
	Threshold float64  // DefaultThreshold if 0
	Keywords  []string // suspicious phrases, DefaultSpamKeywords if nil
}

// Scorer calculates spam score of a message, thread-safe
type Scorer struct {
	Config
	keywords *KeywordSet
	rules    []Rule
}

// NewScorer makes a Scorer with the default rules
func NewScorer(cfg Config) *Scorer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultSpamKeywords
	}
	res := &Scorer{Config: cfg, keywords: NewKeywordSet(cfg.Keywords)}
	res.rules = []Rule{
		KeywordsRule(res.keywords, 0.3),
		LinksRule(2, 0.3),
		EmojiRule(10, 0.2),
		CapsRule(0.6, 20, 0.2),
		LengthRule(1000, 0.15),
	}
	return res
}

// Score runs all rules and sums weights of fired ones
func (s *Scorer) Score(msg string) Result {
	res := Result{Reasons: []string{}}
	for _, rule := range s.rules {
		if hit, ok := rule(msg); ok {
			res.Score += hit.Weight
			res.Reasons = append(res.Reasons, hit.Reason)
		}
	}
	res.Spam = res.Score >= s.Threshold
	res.Score = min(res.Score, 1.0)
	return res
}

// LoadKeywords replaces suspicious phrases with lines from the reader
func (s *Scorer) LoadKeywords(r io.Reader) error {
	return s.keywords.Load(r)
}

// Keywords returns the set of suspicious phrases
func (s *Scorer) Keywords() *KeywordSet {
	return s.keywords
}

// KeywordsRule fires when the lowercase message contains phrases from the set; weight is per distinct phrase
func KeywordsRule(kws *KeywordSet, weight float64) Rule {
	return func(msg string) (Hit, bool) {
		found := kws.Match(msg)
		if len(found) == 0 {
			return Hit{}, false
		}
		return Hit{Weight: weight * float64(len(found)),
			Reason: "Keyword mencurigakan: " + strings.Join(found, ", ")}, true
	}
}

// LinksRule fires when the message has more than maxLinks http(s) links
func LinksRule(maxLinks int, weight float64) Rule {
	return func(msg string) (Hit, bool) {
		lower := strings.ToLower(msg)
		count := strings.Count(lower, "http://") + strings.Count(lower, "https://")
		if count <= maxLinks {
			return Hit{}, false
		}
		return Hit{Weight: weight, Reason: fmt.Sprintf("Terlalu banyak link (%d)", count)}, true
	}
}

// EmojiRule fires when the message has more than maxEmoji emojis
func EmojiRule(maxEmoji int, weight float64) Rule {
	return func(msg string) (Hit, bool) {
		if len(gomoji.CollectAll(msg)) <= maxEmoji {
			return Hit{}, false
		}
		return Hit{Weight: weight, Reason: "Emoji berlebihan"}, true
	}
}

// CapsRule fires when the ratio of upper case latin letters to all characters of the message is above maxRatio
// and the message is longer than minLen characters.
func CapsRule(maxRatio float64, minLen int, weight float64) Rule {
	return func(msg string) (Hit, bool) {
		total := utf8.RuneCountInString(msg)
		if total <= minLen {
			return Hit{}, false
		}
		caps := 0
		for _, r := range msg {
			if r >= 'A' && r <= 'Z' {
				caps++
			}
		}
		if float64(caps)/float64(total) <= maxRatio {
			return Hit{}, false
		}
		return Hit{Weight: weight, Reason: "CAPS LOCK berlebihan"}, true
	}
}

// LengthRule fires when the message is longer than maxLen characters
func LengthRule(maxLen int, weight float64) Rule {
	return func(msg string) (Hit, bool) {
		if utf8.RuneCountInString(msg) <= maxLen {
			return Hit{}, false
		}
		return Hit{Weight: weight, Reason: "Pesan terlalu panjang"}, true
	}
}
