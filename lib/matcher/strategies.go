package matcher

import "strings"

// ExactStrategy matches tokens equal to a lexicon word
func ExactStrategy(lexicon []string) Strategy {
	return func(token string, _ Learned) []Candidate {
		res := []Candidate{}
		for _, w := range lexicon {
			if token == w {
				res = append(res, Candidate{Token: token, Word: w, Confidence: 1.0, Type: TypeExact})
			}
		}
		return res
	}
}

// ContainsStrategy matches tokens containing a lexicon word, like "anjingbanget"
func ContainsStrategy(lexicon []string) Strategy {
	return func(token string, _ Learned) []Candidate {
		res := []Candidate{}
		for _, w := range lexicon {
			if token != w && strings.Contains(token, w) {
				res = append(res, Candidate{Token: token, Word: w, Confidence: 0.9, Type: TypeContains})
			}
		}
		return res
	}
}

// SimilarStrategy matches tokens with levenshtein similarity above threshold and below 1.0 (typos).
// Similarity is used as the confidence.
func SimilarStrategy(lexicon []string, threshold float64) Strategy {
	return func(token string, _ Learned) []Candidate {
		res := []Candidate{}
		for _, w := range lexicon {
			sim := Similarity(token, w)
			if sim > threshold && sim < 1.0 {
				res = append(res, Candidate{Token: token, Word: w, Confidence: sim, Type: TypeSimilar})
			}
		}
		return res
	}
}

// LearnedStrategy matches tokens equal to one of the learned variants
func LearnedStrategy() Strategy {
	return func(token string, learned Learned) []Candidate {
		if learned == nil || !learned.IsLearned(token) {
			return []Candidate{}
		}
		return []Candidate{{Token: token, Word: token, Confidence: 0.85, Type: TypeLearned}}
	}
}

// LeetspeakStrategy matches tokens which contain a lexicon word after leetspeak replacement, like "4nj1ng"
func LeetspeakStrategy(lexicon []string) Strategy {
	return func(token string, _ Learned) []Candidate {
		return embeddedMatch(token, DeLeet(token), lexicon, 0.8, TypeLeetspeak)
	}
}

// SpacedStrategy matches tokens which contain a lexicon word after separators removal, like "a-n-j-i-n-g"
func SpacedStrategy(lexicon []string) Strategy {
	return func(token string, _ Learned) []Candidate {
		return embeddedMatch(token, Squeeze(token), lexicon, 0.85, TypeSpaced)
	}
}

// embeddedMatch checks normalized token against lexicon, only if normalization changed something
func embeddedMatch(token, normalized string, lexicon []string, confidence float64, tp Type) []Candidate {
	res := []Candidate{}
	if normalized == token {
		return res
	}
	for _, w := range lexicon {
		if strings.Contains(normalized, w) {
			res = append(res, Candidate{Token: token, Word: w, Confidence: confidence, Type: tp})
		}
	}
	return res
}
