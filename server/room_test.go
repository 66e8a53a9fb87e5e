package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSpawnsPlayerAndBroadcasts(t *testing.T) {
	r := newTestRoom()
	sink := joinAs(t, r, "p1", "Alice", 0xff0000, RoleDPS)

	// joinSuccess 单发给加入者，随后全量广播
	succ := sink.ofType(evtJoinSuccess)
	require.Len(t, succ, 1)
	var js JoinSuccessEvent
	require.NoError(t, json.Unmarshal(succ[0], &js))
	assert.Equal(t, "TEST", js.Code)

	state := sink.lastState(t)
	require.Contains(t, state.Players, "p1")
	p := state.Players["p1"]
	assert.Equal(t, float64(spawnX), p.X)
	assert.Equal(t, float64(spawnY), p.Y)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, RoleDPS, p.Role)
	assert.NotNil(t, p.Debuffs)
	assert.Nil(t, p.LimitCut)
}

func TestJoinNameTakenCaseInsensitive(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 0xff0000, RoleDPS)

	err := r.handleJoin(joinRequest{id: "p2", sink: &recordSink{}, p: JoinPayload{Name: "alice", Color: 0x00ff00, Role: RoleHealer}})
	assert.ErrorIs(t, err, ErrNameTaken)

	// 另一个名字照常进入
	joinAs(t, r, "p3", "Bob", 0x00ff00, RoleHealer)
	assert.Len(t, r.players, 2)
}

func TestJoinColorTakenAmongNonSpectators(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 0xff0000, RoleDPS)

	err := r.handleJoin(joinRequest{id: "p2", sink: &recordSink{}, p: JoinPayload{Name: "Bob", Color: 0xff0000, Role: RoleTank}})
	assert.ErrorIs(t, err, ErrColorTaken)

	// spectator 不占用颜色，也不受颜色占用限制
	joinAs(t, r, "p3", "Carol", 0xff0000, RoleSpectator)
	err = r.handleJoin(joinRequest{id: "p4", sink: &recordSink{}, p: JoinPayload{Name: "Dave", Color: 0x123456, Role: RoleDPS}})
	assert.NoError(t, err)
}

func TestJoinInvalidRoleDefaultsToDPS(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 1, Role("boss"))
	assert.Equal(t, RoleDPS, r.players["p1"].Role)
}

func TestMoveBroadcastsDeltaOnly(t *testing.T) {
	r := newTestRoom()
	sink := joinAs(t, r, "p1", "Alice", 1, RoleDPS)
	statesBefore := len(sink.ofType(evtStateUpdate))

	do(t, r, "p1", evtMove, MovePayload{X: 123, Y: 456})

	moved := sink.ofType(evtPlayerMoved)
	require.Len(t, moved, 1)
	var mv MovedEvent
	require.NoError(t, json.Unmarshal(moved[0], &mv))
	assert.Equal(t, MovedEvent{ID: "p1", X: 123, Y: 456}, mv)

	// 移动不触发全量快照
	assert.Equal(t, statesBefore, len(sink.ofType(evtStateUpdate)))
	assert.Equal(t, float64(123), r.players["p1"].X)
}

func TestMoveFromUnknownConnectionIgnored(t *testing.T) {
	r := newTestRoom()
	sink := joinAs(t, r, "p1", "Alice", 1, RoleDPS)

	do(t, r, "ghost", evtMove, MovePayload{X: 1, Y: 2})
	assert.Empty(t, sink.ofType(evtPlayerMoved))
}

func TestHonkRebroadcastsSenderId(t *testing.T) {
	r := newTestRoom()
	sink1 := joinAs(t, r, "p1", "Alice", 1, RoleDPS)
	sink2 := joinAs(t, r, "p2", "Bob", 2, RoleDPS)

	do(t, r, "p1", evtHonk, nil)

	for _, sink := range []*recordSink{sink1, sink2} {
		honks := sink.ofType(evtHonk)
		require.Len(t, honks, 1)
		var h HonkEvent
		require.NoError(t, json.Unmarshal(honks[0], &h))
		assert.Equal(t, "p1", h.ID)
	}
}

func TestLeaveRemovesPlayerAndBroadcasts(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 1, RoleDPS)
	sink2 := joinAs(t, r, "p2", "Bob", 2, RoleDPS)

	r.handleLeave("p1")

	assert.NotContains(t, r.players, "p1")
	state := sink2.lastState(t)
	assert.NotContains(t, state.Players, "p1")
	assert.Contains(t, state.Players, "p2")
}

func TestProbeReportsNamesAndNonSpectatorColors(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 0xff0000, RoleDPS)
	joinAs(t, r, "p2", "Bob", 0x00ff00, RoleSpectator)

	probe := r.probe()
	assert.True(t, probe.Exists)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, probe.TakenNames)
	assert.Equal(t, []int{0xff0000}, probe.TakenColors)
}

func TestInstantDebuffAndLimitCutUpdates(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 1, RoleDPS)
	joinAs(t, r, "p2", "Bob", 2, RoleDPS)

	lc := 3
	do(t, r, "p1", evtUpdateDebuffs, DebuffPayload{Debuffs: map[string][]int{"p1": {0xff0000, 0x0000ff}}})
	do(t, r, "p1", evtUpdateLCs, DebuffPayload{LimitCuts: map[string]*int{"p2": &lc}})

	assert.Equal(t, []int{0xff0000, 0x0000ff}, r.players["p1"].Debuffs)
	require.NotNil(t, r.players["p2"].LimitCut)
	assert.Equal(t, 3, *r.players["p2"].LimitCut)

	do(t, r, "p1", evtClearLimitCut, nil)
	assert.Nil(t, r.players["p2"].LimitCut)
}

func TestDebuffUpdateForUnknownPlayerIgnored(t *testing.T) {
	r := newTestRoom()
	joinAs(t, r, "p1", "Alice", 1, RoleDPS)

	do(t, r, "p1", evtUpdateDebuffs, DebuffPayload{Debuffs: map[string][]int{"ghost": {1}}})
	assert.Len(t, r.players, 1)
}
