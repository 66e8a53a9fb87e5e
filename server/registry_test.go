package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortSettings 缩短空房回收时长，便于测试等待
func shortSettings() Settings {
	return Settings{
		IdleGrace:     40 * time.Millisecond,
		CountdownStep: 5 * time.Millisecond,
		MessageRate:   100,
		MessageBurst:  100,
	}
}

func TestCreateRoomCodeFormat(t *testing.T) {
	reg := NewRoomRegistry(DefaultSettings())
	room := reg.CreateRoom()

	require.Len(t, room.Code, 4)
	for _, c := range room.Code {
		assert.True(t, c >= 'A' && c <= 'Z', "code must be uppercase letters, got %q", room.Code)
	}

	got, ok := reg.GetRoom(room.Code)
	require.True(t, ok)
	assert.Same(t, room, got)
}

func TestCheckRoomProbe(t *testing.T) {
	reg := NewRoomRegistry(DefaultSettings())
	room := reg.CreateRoom()

	// 刚建好的房间：存在、无占用
	probe := reg.CheckRoom(room.Code)
	assert.True(t, probe.Exists)
	assert.Empty(t, probe.TakenNames)
	assert.Empty(t, probe.TakenColors)

	sink := &recordSink{}
	require.NoError(t, room.Join("p1", sink, JoinPayload{Name: "Alice", Color: 0xff0000, Role: RoleDPS}))

	probe = reg.CheckRoom(room.Code)
	assert.Equal(t, []string{"Alice"}, probe.TakenNames)
	assert.Equal(t, []int{0xff0000}, probe.TakenColors)
}

func TestCheckRoomUnknownCode(t *testing.T) {
	reg := NewRoomRegistry(DefaultSettings())
	probe := reg.CheckRoom("ZZZZ")

	assert.False(t, probe.Exists)
	assert.NotNil(t, probe.TakenNames)
	assert.NotNil(t, probe.TakenColors)
	assert.Empty(t, probe.TakenNames)
}

func TestIdleRoomExpiresAfterGrace(t *testing.T) {
	reg := NewRoomRegistry(shortSettings())
	room := reg.CreateRoom()

	sink := &recordSink{}
	require.NoError(t, room.Join("p1", sink, JoinPayload{Name: "Alice", Color: 1, Role: RoleDPS}))
	room.RequestLeave("p1")

	require.Eventually(t, func() bool {
		_, ok := reg.GetRoom(room.Code)
		return !ok
	}, time.Second, 5*time.Millisecond, "empty room was not reclaimed")

	totals := reg.Totals()
	assert.Equal(t, int64(1), totals["rooms_expired"])
}

func TestJoinCancelsIdleDeletion(t *testing.T) {
	reg := NewRoomRegistry(shortSettings())
	room := reg.CreateRoom()

	sink := &recordSink{}
	require.NoError(t, room.Join("p1", sink, JoinPayload{Name: "Alice", Color: 1, Role: RoleDPS}))
	room.RequestLeave("p1")

	// 宽限期内再次加入，撤销回收
	sink2 := &recordSink{}
	require.NoError(t, room.Join("p2", sink2, JoinPayload{Name: "Bob", Color: 2, Role: RoleDPS}))

	time.Sleep(4 * shortSettings().IdleGrace)
	_, ok := reg.GetRoom(room.Code)
	assert.True(t, ok, "room with players must survive the idle grace")
}

func TestJoinAfterExpiryFailsAsNotFound(t *testing.T) {
	reg := NewRoomRegistry(shortSettings())
	room := reg.CreateRoom()

	sink := &recordSink{}
	require.NoError(t, room.Join("p1", sink, JoinPayload{Name: "Alice", Color: 1, Role: RoleDPS}))
	room.RequestLeave("p1")

	require.Eventually(t, func() bool {
		_, ok := reg.GetRoom(room.Code)
		return !ok
	}, time.Second, 5*time.Millisecond)

	// 拿着旧指针也进不去已回收的房间
	err := room.Join("p2", &recordSink{}, JoinPayload{Name: "Bob", Color: 2, Role: RoleDPS})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryTotals(t *testing.T) {
	reg := NewRoomRegistry(DefaultSettings())
	reg.CreateRoom()
	reg.CreateRoom()

	totals := reg.Totals()
	assert.Equal(t, int64(2), totals["rooms_created"])
	assert.Equal(t, 2, totals["rooms_live"])
}
