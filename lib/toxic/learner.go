package toxic

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/umputun/tg-moderator/lib/modcheck"
)

// WordStat counts how many times a word was seen in toxic and normal messages
type WordStat struct {
	Toxic  int `json:"toxic"`
	Normal int `json:"normal"`
}

// WordInfo is a word with its stats
type WordInfo struct {
	Word string `json:"word"`
	WordStat
}

// LearningStats is a summary of the learning store
type LearningStats struct {
	Learned    int        `json:"learned"`    // number of learned variants
	Analyzed   int        `json:"analyzed"`   // number of words with stats
	History    int        `json:"history"`    // number of records in message history
	Suspicious []WordInfo `json:"suspicious"` // top words seen in toxic messages
}

// Learner keeps word stats, learned variants and message history, thread-safe.
// Words seen mostly in toxic messages are promoted to learned variants and never demoted.
type Learner struct {
	words   map[string]WordStat
	learned map[string]struct{}
	history *modcheck.History
	lock    sync.RWMutex
}

// NewLearner makes a Learner with the given history size
func NewLearner(historySize int) *Learner {
	return &Learner{
		words:   map[string]WordStat{},
		learned: map[string]struct{}{},
		history: modcheck.NewHistory(historySize),
	}
}

// IsLearned checks if the word is one of the learned variants
func (l *Learner) IsLearned(word string) bool {
	l.lock.RLock()
	defer l.lock.RUnlock()
	_, ok := l.learned[word]
	return ok
}

// Learn updates stats of every word of 3+ characters with the verdict of the whole message
// and appends the message to history.
func (l *Learner) Learn(req modcheck.Request, toxic bool, ts time.Time) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, w := range modcheck.Tokens(req.Msg) {
		if len([]rune(w)) < 3 {
			continue
		}
		st := l.words[w]
		if !toxic {
			st.Normal++
			l.words[w] = st
			continue
		}
		st.Toxic++
		l.words[w] = st
		if _, ok := l.learned[w]; !ok && st.Toxic > 3 && st.Toxic > 2*st.Normal {
			l.learned[w] = struct{}{}
			log.Printf("[INFO] learned new toxic word %q, %d toxic / %d normal", w, st.Toxic, st.Normal)
		}
	}
	l.history.Push(modcheck.Record{Timestamp: ts, UserID: req.UserID, Msg: req.Msg, Toxic: toxic})
}

// stat returns stats for the word
func (l *Learner) stat(word string) (WordStat, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	st, ok := l.words[word]
	return st, ok
}

// Learned returns sorted list of learned variants
func (l *Learner) Learned() []string {
	l.lock.RLock()
	defer l.lock.RUnlock()
	res := make([]string, 0, len(l.learned))
	for w := range l.learned {
		res = append(res, w)
	}
	sort.Strings(res)
	return res
}

// History returns user's messages from history, oldest first
func (l *Learner) History(userID string) []modcheck.Record {
	return l.history.ByUser(userID)
}

// Stats returns summary of the learning store with up to top suspicious words.
// A word is suspicious if it was seen in more than 2 toxic messages.
func (l *Learner) Stats(top int) LearningStats {
	l.lock.RLock()
	res := LearningStats{Learned: len(l.learned), Analyzed: len(l.words), Suspicious: []WordInfo{}}
	for w, st := range l.words {
		if st.Toxic > 2 {
			res.Suspicious = append(res.Suspicious, WordInfo{Word: w, WordStat: st})
		}
	}
	res.History = l.history.Len()
	l.lock.RUnlock()

	sort.Slice(res.Suspicious, func(i, j int) bool {
		if res.Suspicious[i].Toxic != res.Suspicious[j].Toxic {
			return res.Suspicious[i].Toxic > res.Suspicious[j].Toxic
		}
		return res.Suspicious[i].Word < res.Suspicious[j].Word
	})
	if len(res.Suspicious) > top {
		res.Suspicious = res.Suspicious[:top]
	}
	return res
}

// Reset clears word stats, learned variants and message history
func (l *Learner) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.words = map[string]WordStat{}
	l.learned = map[string]struct{}{}
	l.history.Reset()
}
