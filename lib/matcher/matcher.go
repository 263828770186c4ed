// Package matcher implements fuzzy lookup of a single token against a lexicon of toxic words.
//
// A Matcher runs a fixed pipeline of independent strategies, each one producing zero or more candidates
// with a confidence fixed by the strategy type:
//
//   - exact: token equals a lexicon word, 1.0
//   - contains: token contains a lexicon word, 0.9
//   - similar: levenshtein similarity in (0.75, 1.0), confidence is the similarity
//   - learned: token is one of the learned variants, 0.85
//   - leetspeak: de-leeted token contains a lexicon word, 0.8
//   - spaced: token without separators contains a lexicon word, 0.85
//
// Matcher has no mutable state and is safe for concurrent use.
package matcher

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Type is a kind of match
type Type string

// enum of match types, in pipeline order
const (
	TypeExact     Type = "exact"
	TypeContains  Type = "contains"
	TypeSimilar   Type = "similar"
	TypeLearned   Type = "learned"
	TypeLeetspeak Type = "leetspeak"
	TypeSpaced    Type = "spaced"
)

// Candidate is a single match of a token against a lexicon word
type Candidate struct {
	Token      string  `json:"token"`      // original token
	Word       string  `json:"word"`       // matched lexicon word or learned variant
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
	Type       Type    `json:"type"`
}

// Learned is a set of learned toxic variants
type Learned interface {
	IsLearned(word string) bool
}

// Strategy is a single matching rule. It gets a token and returns all candidates found by the rule.
type Strategy func(token string, learned Learned) []Candidate

// DefaultLexicon is the base list of toxic words
var DefaultLexicon = []string{
	"anjing", "anjir", "asu", "bangsat", "babi", "kampret", "tolol", "goblok", "idiot", "bodoh",
	"tai", "ngentot", "memek", "kontol", "jancok", "cok", "bajingan", "monyet", "brengsek", "sialan",
	"setan", "iblis", "pantek", "puki", "anjg", "bgst", "tlol", "gblk", "njir", "b4bi", "k0nt0l",
}

// Matcher matches tokens against a lexicon using a pipeline of strategies
type Matcher struct {
	lexicon    []string
	strategies []Strategy
}

// New makes a Matcher for the given lexicon with the default pipeline.
// Empty and duplicate words are dropped, words are lowercased.
func New(lexicon []string) *Matcher {
	seen := map[string]bool{}
	lex := make([]string, 0, len(lexicon))
	for _, w := range lexicon {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		lex = append(lex, w)
	}
	return &Matcher{
		lexicon: lex,
		strategies: []Strategy{
			ExactStrategy(lex),
			ContainsStrategy(lex),
			SimilarStrategy(lex, 0.75),
			LearnedStrategy(),
			LeetspeakStrategy(lex),
			SpacedStrategy(lex),
		},
	}
}

// LoadLexicon reads lexicon words from a reader, one word per line. Lines starting with # are ignored.
func LoadLexicon(r io.Reader) ([]string, error) {
	res := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		res = append(res, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	return res, nil
}

// words returns a copy of the lexicon
func (m *Matcher) words() []string {
	res := make([]string, len(m.lexicon))
	copy(res, m.lexicon)
	return res
}

// Match runs all strategies for the token and returns all candidates in pipeline order.
// learned can be nil.
func (m *Matcher) Match(token string, learned Learned) []Candidate {
	res := []Candidate{}
	for _, s := range m.strategies {
		res = append(res, s(token, learned)...)
	}
	return res
}

// Best returns the candidate with the highest confidence, the first one wins on tie.
// Returns false if there are no candidates.
func Best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}
