package server

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordSink 录制发往单个连接的事件，替代真实 WebSocket 连接
type recordSink struct {
	mu     sync.Mutex
	events []Message
}

func (s *recordSink) Enqueue(b []byte) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, m)
	s.mu.Unlock()
}

// all 按到达顺序取事件副本
func (s *recordSink) all() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordSink) ofType(event string) []json.RawMessage {
	var out []json.RawMessage
	for _, m := range s.all() {
		if m.Type == event {
			out = append(out, m.Data)
		}
	}
	return out
}

// lastState 最近一次全量快照
func (s *recordSink) lastState(t *testing.T) GameState {
	t.Helper()
	states := s.ofType(evtStateUpdate)
	require.NotEmpty(t, states, "no stateUpdate received")
	var gs GameState
	require.NoError(t, json.Unmarshal(states[len(states)-1], &gs))
	return gs
}

// countdownTexts 倒计时事件序列；nil 表示清除覆盖层的 null
func (s *recordSink) countdownTexts(t *testing.T) []*string {
	t.Helper()
	var out []*string
	for _, raw := range s.ofType(evtCountdown) {
		var text *string
		require.NoError(t, json.Unmarshal(raw, &text))
		out = append(out, text)
	}
	return out
}

func mustMsg(t *testing.T, event string, payload any) Message {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{Type: event, Data: b}
}

// joinAs 在测试协程内直接执行加入（房间循环未启动的场景）
func joinAs(t *testing.T, r *Room, id, name string, color int, role Role) *recordSink {
	t.Helper()
	sink := &recordSink{}
	err := r.handleJoin(joinRequest{id: id, sink: sink, p: JoinPayload{Name: name, Color: color, Role: role}})
	require.NoError(t, err)
	return sink
}

// do 在测试协程内直接执行一条动作
func do(t *testing.T, r *Room, from, event string, payload any) {
	t.Helper()
	r.dispatch(command{from: from, msg: mustMsg(t, event, payload)})
}

func strPtr(s string) *string { return &s }
