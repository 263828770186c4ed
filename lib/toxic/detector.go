// Package toxic provides toxicity detection for chat messages. The primary type is Detector, which
// combines fuzzy matching of every token against a lexicon (see lib/matcher) with whole-message heuristics
// and learns new toxic variants from the verdicts it makes.
//
// Detector is thread-safe and supports concurrent usage. Check is read-only, Observe checks the message
// and updates the learning store with the verdict.
package toxic

import (
	"time"

	"github.com/umputun/tg-moderator/lib/matcher"
	"github.com/umputun/tg-moderator/lib/modcheck"
)

// Severity is a level of toxicity
type Severity string

// enum of severities
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ConfidenceMode defines how violation confidences are combined
type ConfidenceMode string

// enum of confidence modes
const (
	// ConfidenceSum adds up confidences of all violations, a message with two violations saturates the score
	ConfidenceSum ConfidenceMode = "sum"
	// ConfidenceMean divides the sum of confidences by the number of tokens
	ConfidenceMean ConfidenceMode = "mean"
)

// DefaultHistorySize is the number of processed messages kept for context analysis
const DefaultHistorySize = 500

// Config is a set of parameters for Detector.
type Config struct {
	Lexicon        []string       // toxic words, matcher.DefaultLexicon if empty
	HistorySize    int            // message history size, DefaultHistorySize if 0
	ConfidenceMode ConfidenceMode // how to combine violation confidences, ConfidenceSum if empty
}

// Violation is a token matched against the lexicon
type Violation struct {
	Original   string       `json:"original"`
	Matched    string       `json:"matched"`
	Confidence float64      `json:"confidence"`
	Type       matcher.Type `json:"type"`
}

// Verdict is a result of toxicity check
type Verdict struct {
	Toxic      bool        `json:"toxic"`
	Violations []Violation `json:"violations"`
	Confidence float64     `json:"confidence"` // 0.0 - 1.0
	Severity   Severity    `json:"severity"`
	Indicators []string    `json:"indicators"`
}

// Detector is a toxicity detector, thread-safe.
type Detector struct {
	Config
	matcher *matcher.Matcher
	learner *Learner
	nowFn   func() time.Time
}

// NewDetector makes a new Detector with the given config.
func NewDetector(cfg Config) *Detector {
	if len(cfg.Lexicon) == 0 {
		cfg.Lexicon = matcher.DefaultLexicon
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.ConfidenceMode == "" {
		cfg.ConfidenceMode = ConfidenceSum
	}
	return &Detector{
		Config:  cfg,
		matcher: matcher.New(cfg.Lexicon),
		learner: NewLearner(cfg.HistorySize),
		nowFn:   time.Now,
	}
}

// Check classifies the message without updating the learning store
func (d *Detector) Check(req modcheck.Request) Verdict {
	tokens := modcheck.Tokens(req.Msg)
	res := Verdict{Violations: []Violation{}, Indicators: []string{}}

	total := 0.0
	for _, token := range tokens {
		best, ok := matcher.Best(d.matcher.Match(token, d.learner))
		if !ok {
			continue
		}
		res.Violations = append(res.Violations,
			Violation{Original: token, Matched: best.Word, Confidence: best.Confidence, Type: best.Type})
		total += best.Confidence
	}
	if d.ConfidenceMode == ConfidenceMean && len(tokens) > 0 {
		total /= float64(len(tokens))
	}

	ctxScore := AnalyzeContext(req.Msg, d.learner.History(req.UserID))
	res.Indicators = ctxScore.Indicators
	res.Confidence = min((total+ctxScore.Score)/2, 1)
	res.Toxic = len(res.Violations) > 0 || res.Confidence > 0.5

	switch {
	case res.Confidence > 0.8:
		res.Severity = SeverityHigh
	case res.Confidence > 0.5:
		res.Severity = SeverityMedium
	default:
		res.Severity = SeverityLow
	}
	return res
}

// Observe classifies the message and learns from the verdict
func (d *Detector) Observe(req modcheck.Request) Verdict {
	v := d.Check(req)
	d.learner.Learn(req, v.Toxic, d.nowFn())
	return v
}

// LearningStats returns summary of the learning store
func (d *Detector) LearningStats() LearningStats {
	return d.learner.Stats(10)
}

// Learned returns learned toxic variants
func (d *Detector) Learned() []string {
	return d.learner.Learned()
}

// ResetLearning clears word stats, learned variants and message history
func (d *Detector) ResetLearning() {
	d.learner.Reset()
}
