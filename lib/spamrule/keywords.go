package spamrule

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// DefaultSpamKeywords is a list of phrases typical for promo and scam messages
var DefaultSpamKeywords = []string{
	"klik link", "menang hadiah", "gratis", "promo", "diskon 90%", "jangan lewatkan",
	"buruan", "terbatas", "claim sekarang", "transfer sekarang", "investasi cuan", "passive income",
}

// DefaultInviteKeywords is a list of phrases used to invite people to play a game together
var DefaultInviteKeywords = []string{
	"main ml", "mabar ml", "ml yuk", "mobile legend", "mobile legends", "push rank", "classic ml",
	"ranked ml", "ml bareng", "mabar mobile", "ada yang ml", "ml gak", "ml ga", "yuk ml", "gas ml",
	"ml dulu", "ngajakin ml", "ajak ml", "main mole", "mabar mole",
}

// KeywordSet is a set of lowercase phrases matched as substrings of a text, thread-safe.
// The set can be replaced at runtime.
type KeywordSet struct {
	keywords []string
	matcher  *ahocorasick.Matcher
	lock     sync.RWMutex
}

// NewKeywordSet makes a KeywordSet with the given phrases
func NewKeywordSet(keywords []string) *KeywordSet {
	res := &KeywordSet{}
	res.Set(keywords)
	return res
}

// Set replaces phrases of the set, phrases are lowercased and deduplicated, empty ones dropped
func (k *KeywordSet) Set(keywords []string) {
	uniq := map[string]bool{}
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || uniq[kw] {
			continue
		}
		uniq[kw] = true
		kws = append(kws, kw)
	}

	var m *ahocorasick.Matcher
	if len(kws) > 0 {
		m = ahocorasick.NewStringMatcher(kws)
	}

	k.lock.Lock()
	defer k.lock.Unlock()
	k.keywords = kws
	k.matcher = m
}

// Load replaces phrases of the set with lines from the reader, empty lines and lines started with # are skipped
func (k *KeywordSet) Load(r io.Reader) error {
	kws := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kws = append(kws, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read keywords: %w", err)
	}
	k.Set(kws)
	return nil
}

// Match returns distinct phrases found in the text, in the order of the set
func (k *KeywordSet) Match(text string) []string {
	k.lock.RLock()
	defer k.lock.RUnlock()
	if k.matcher == nil {
		return []string{}
	}
	hits := k.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	sort.Ints(hits)
	res := make([]string, 0, len(hits))
	for i, idx := range hits {
		if i > 0 && hits[i-1] == idx {
			continue
		}
		res = append(res, k.keywords[idx])
	}
	return res
}

// Keywords returns a copy of the set's phrases
func (k *KeywordSet) Keywords() []string {
	k.lock.RLock()
	defer k.lock.RUnlock()
	res := make([]string, len(k.keywords))
	copy(res, k.keywords)
	return res
}

// Len returns number of phrases in the set
func (k *KeywordSet) Len() int {
	k.lock.RLock()
	defer k.lock.RUnlock()
	return len(k.keywords)
}
