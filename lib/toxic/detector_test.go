package toxic

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tg-moderator/lib/matcher"
	"github.com/umputun/tg-moderator/lib/modcheck"
)

func TestDetector_Check(t *testing.T) {
	d := NewDetector(Config{})

	t.Run("exact word", func(t *testing.T) {
		v := d.Check(modcheck.Request{Msg: "anjing banget nih", UserID: "u1"})
		assert.True(t, v.Toxic)
		require.Len(t, v.Violations, 1)
		assert.Equal(t, Violation{Original: "anjing", Matched: "anjing", Confidence: 1.0, Type: matcher.TypeExact}, v.Violations[0])
		assert.InDelta(t, 0.5, v.Confidence, 0.0001)
		assert.Equal(t, SeverityLow, v.Severity)
		assert.Empty(t, v.Indicators)
	})

	t.Run("leetspeak upper case", func(t *testing.T) {
		v := d.Check(modcheck.Request{Msg: "4NJ1NG", UserID: "u1"})
		assert.True(t, v.Toxic)
		require.Len(t, v.Violations, 1)
		assert.Equal(t, Violation{Original: "4nj1ng", Matched: "anjing", Confidence: 0.8, Type: matcher.TypeLeetspeak}, v.Violations[0])
		assert.InDelta(t, 0.4, v.Confidence, 0.0001)
	})

	t.Run("two violations saturate", func(t *testing.T) {
		v := d.Check(modcheck.Request{Msg: "dasar babi tolol", UserID: "u1"})
		assert.True(t, v.Toxic)
		assert.Len(t, v.Violations, 2)
		assert.InDelta(t, 1.0, v.Confidence, 0.0001)
		assert.Equal(t, SeverityHigh, v.Severity)
	})

	t.Run("clean", func(t *testing.T) {
		v := d.Check(modcheck.Request{Msg: "selamat pagi semuanya", UserID: "u1"})
		assert.False(t, v.Toxic)
		assert.Empty(t, v.Violations)
		assert.Equal(t, SeverityLow, v.Severity)
	})

	t.Run("check does not learn", func(t *testing.T) {
		d.Check(modcheck.Request{Msg: "anjing", UserID: "u1"})
		assert.Equal(t, 0, d.LearningStats().History)
	})
}

func TestDetector_ConfidenceMean(t *testing.T) {
	d := NewDetector(Config{ConfidenceMode: ConfidenceMean})
	v := d.Check(modcheck.Request{Msg: "dasar babi tolol lah", UserID: "u1"})
	assert.True(t, v.Toxic)
	assert.Len(t, v.Violations, 2)
	assert.InDelta(t, 0.25, v.Confidence, 0.0001) // (2.0/4 + 0)/2
}

func TestDetector_Observe(t *testing.T) {
	d := NewDetector(Config{HistorySize: 10})
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.nowFn = func() time.Time { return ts }

	t.Run("learns new variant", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			v := d.Observe(modcheck.Request{Msg: "anjing bacot", UserID: "u1"})
			assert.True(t, v.Toxic)
		}
		assert.Equal(t, []string{"anjing", "bacot"}, d.Learned())

		v := d.Check(modcheck.Request{Msg: "bacot", UserID: "u2"})
		assert.True(t, v.Toxic)
		require.Len(t, v.Violations, 1)
		assert.Equal(t, matcher.TypeLearned, v.Violations[0].Type)

		stats := d.LearningStats()
		assert.Equal(t, 2, stats.Learned)
		assert.Equal(t, 2, stats.Analyzed)
		assert.Equal(t, 4, stats.History)
		assert.Len(t, stats.Suspicious, 2)
	})

	t.Run("history indicator", func(t *testing.T) {
		v := d.Check(modcheck.Request{Msg: "halo", UserID: "u1"})
		assert.Equal(t, []string{IndicatorHistory}, v.Indicators)
		assert.InDelta(t, 0.15, v.Confidence, 0.0001)
		assert.False(t, v.Toxic)

		v = d.Check(modcheck.Request{Msg: "halo", UserID: "u2"})
		assert.Empty(t, v.Indicators, "other user has no history")
	})

	t.Run("reset learning", func(t *testing.T) {
		d.ResetLearning()
		assert.Empty(t, d.Learned())
		assert.Equal(t, LearningStats{Suspicious: []WordInfo{}}, d.LearningStats())
		v := d.Check(modcheck.Request{Msg: "bacot", UserID: "u2"})
		assert.False(t, v.Toxic)
	})
}

func TestDetector_Concurrent(t *testing.T) {
	d := NewDetector(Config{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Observe(modcheck.Request{Msg: fmt.Sprintf("pesan %d anjing", i), UserID: fmt.Sprintf("u%d", i%5)})
			d.Check(modcheck.Request{Msg: "halo", UserID: "u1"})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, d.LearningStats().History)
}

func TestLearner_Promotion(t *testing.T) {
	tests := []struct {
		name    string
		toxic   int
		normal  int
		learned bool
	}{
		{"4 toxic 1 normal", 4, 1, true},
		{"4 toxic 3 normal", 4, 3, false},
		{"3 toxic 0 normal", 3, 0, false},
		{"7 toxic 3 normal", 7, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLearner(100)
			for i := 0; i < tt.normal; i++ {
				l.Learn(modcheck.Request{Msg: "bacot", UserID: "u1"}, false, time.Now())
			}
			for i := 0; i < tt.toxic; i++ {
				l.Learn(modcheck.Request{Msg: "bacot", UserID: "u1"}, true, time.Now())
			}
			assert.Equal(t, tt.learned, l.IsLearned("bacot"))
			st, ok := l.stat("bacot")
			require.True(t, ok)
			assert.Equal(t, WordStat{Toxic: tt.toxic, Normal: tt.normal}, st)
		})
	}

	t.Run("never demoted", func(t *testing.T) {
		l := NewLearner(100)
		for i := 0; i < 4; i++ {
			l.Learn(modcheck.Request{Msg: "bacot"}, true, time.Now())
		}
		for i := 0; i < 10; i++ {
			l.Learn(modcheck.Request{Msg: "bacot"}, false, time.Now())
		}
		assert.True(t, l.IsLearned("bacot"))
	})
}

func TestLearner_ConcurrentReset(t *testing.T) {
	l := NewLearner(10000)
	var mismatches atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				// one unique word per message, so word stats and history grow together
				l.Learn(modcheck.Request{Msg: fmt.Sprintf("kata%dx%d", i, j), UserID: "u1"}, j%2 == 0, time.Now())
			}
		}(i)
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if j%20 == 0 {
					l.Reset()
				}
				if st := l.Stats(1); st.Analyzed != st.History {
					mismatches.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), mismatches.Load(), "stats and history must change together")

	l.Reset()
	assert.Equal(t, LearningStats{Suspicious: []WordInfo{}}, l.Stats(5))
	assert.Empty(t, l.History("u1"))
	assert.Empty(t, l.Learned())
}

func TestLearner_ShortWords(t *testing.T) {
	l := NewLearner(100)
	l.Learn(modcheck.Request{Msg: "ah yg bgt"}, true, time.Now())
	_, ok := l.stat("ah")
	assert.False(t, ok)
	_, ok = l.stat("yg")
	assert.False(t, ok)
	st, ok := l.stat("bgt")
	require.True(t, ok)
	assert.Equal(t, 1, st.Toxic)
}

func TestLearner_History(t *testing.T) {
	l := NewLearner(3)
	for i := 0; i < 5; i++ {
		l.Learn(modcheck.Request{Msg: fmt.Sprintf("msg %d", i), UserID: fmt.Sprintf("u%d", i%2)}, i%2 == 0, time.Now())
	}
	assert.Equal(t, 3, l.Stats(10).History)
	recs := l.History("u0")
	require.Len(t, recs, 2)
	assert.Equal(t, "msg 2", recs[0].Msg)
	assert.Equal(t, "msg 4", recs[1].Msg)
	assert.True(t, recs[1].Toxic)
}

func TestLearner_StatsTop(t *testing.T) {
	l := NewLearner(100)
	words := []string{}
	for i := 0; i < 12; i++ {
		words = append(words, fmt.Sprintf("kata%02d", i))
	}
	for i := 0; i < 3; i++ {
		l.Learn(modcheck.Request{Msg: strings.Join(words, " ")}, true, time.Now())
	}
	l.Learn(modcheck.Request{Msg: "kata05"}, true, time.Now())

	stats := l.Stats(10)
	require.Len(t, stats.Suspicious, 10)
	assert.Equal(t, WordInfo{Word: "kata05", WordStat: WordStat{Toxic: 4}}, stats.Suspicious[0])
	assert.Equal(t, "kata00", stats.Suspicious[1].Word)
	assert.Equal(t, 12, stats.Analyzed)
	assert.Equal(t, 1, stats.Learned)
}

func TestAnalyzeContext(t *testing.T) {
	toxicHist := func(n int) []modcheck.Record {
		res := []modcheck.Record{}
		for i := 0; i < n; i++ {
			res = append(res, modcheck.Record{Msg: "x", Toxic: true})
		}
		return res
	}

	tests := []struct {
		name    string
		msg     string
		history []modcheck.Record
		score   float64
		ind     []string
	}{
		{"clean", "halo semua", nil, 0, []string{}},
		{"repetition", "woi woi woi woi", nil, 0.2, []string{IndicatorRepetition}},
		{"three repeats only", "woi woi woi", nil, 0, []string{}},
		{"shouting", "KALIAN SEMUA DIAM!!!!", nil, 0.25, []string{IndicatorShouting}},
		{"caps without exclamations", "KALIAN SEMUA DIAM", nil, 0, []string{}},
		{"history", "halo", toxicHist(4), 0.3, []string{IndicatorHistory}},
		{"history too short", "halo", toxicHist(3), 0, []string{}},
		{"history last five", "halo",
			append(toxicHist(3), modcheck.Record{}, modcheck.Record{}, modcheck.Record{}), 0, []string{}},
		{"mention attack", "@a @b @c kalian noob", nil, 0.35, []string{IndicatorMention}},
		{"mentions no aggression", "@a @b @c ayo main", nil, 0, []string{}},
		{"all rules", "@A @B @C NOOB NOOB NOOB NOOB KALIAN!!!!", toxicHist(5), 1.0,
			[]string{IndicatorRepetition, IndicatorShouting, IndicatorHistory, IndicatorMention}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := AnalyzeContext(tt.msg, tt.history)
			assert.InDelta(t, tt.score, res.Score, 0.0001)
			assert.Equal(t, tt.ind, res.Indicators)
		})
	}
}
