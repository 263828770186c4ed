package modcheck

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_BasicOps(t *testing.T) {
	h := NewHistory(5)
	rec1 := Record{Msg: "msg1", UserID: "1", Timestamp: time.Now()}
	rec2 := Record{Msg: "msg2", UserID: "2", Toxic: true}
	rec3 := Record{Msg: "msg3", UserID: "1"}

	h.Push(rec1)
	h.Push(rec2)
	h.Push(rec3)

	res := h.last(3)
	require.Equal(t, 3, len(res))
	assert.Equal(t, rec1, res[0])
	assert.Equal(t, rec2, res[1])
	assert.Equal(t, rec3, res[2])
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 5, h.size)

	assert.Equal(t, []Record{rec2, rec3}, h.last(2), "last returns the newest records")
	assert.Equal(t, []Record{rec1, rec3}, h.ByUser("1"))
	assert.Empty(t, h.ByUser("3"))
}

func TestHistory_Overflow(t *testing.T) {
	h := NewHistory(500)
	for i := 0; i < 501; i++ {
		h.Push(Record{Msg: fmt.Sprintf("msg%d", i), UserID: "1"})
	}
	all := h.All()
	require.Len(t, all, 500)
	assert.Equal(t, "msg1", all[0].Msg, "oldest record evicted")
	assert.Equal(t, "msg500", all[499].Msg)
	assert.Equal(t, 500, h.Len())
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	assert.Empty(t, h.last(1))
	assert.Empty(t, h.All())
	assert.Empty(t, h.last(-1))
}

func TestHistory_ZeroSize(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, 1, h.size, "zero size should be clamped to 1")
	h.Push(Record{Msg: "msg1"})
	h.Push(Record{Msg: "msg2"})
	assert.Equal(t, []Record{{Msg: "msg2"}}, h.All())
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(3)
	h.Push(Record{Msg: "msg1"})
	h.Push(Record{Msg: "msg2"})
	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.All())
	h.Push(Record{Msg: "msg3"})
	assert.Equal(t, []Record{{Msg: "msg3"}}, h.All())
}

func TestHistory_Concurrent(t *testing.T) {
	h := NewHistory(5)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.Push(Record{Msg: "msg", UserID: "1"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.ByUser("1")
		}
	}()
	wg.Wait()
	assert.Equal(t, 5, h.Len())
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"anjing", "banget", "nih"}, Tokens("  Anjing BANGET\tnih \n"))
	assert.Empty(t, Tokens("   "))
}
