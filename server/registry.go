package server

import (
	"crypto/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Settings 进程级可调参数，经管理接口热更新
// CountdownStep 与限流参数在房间/连接创建时取值生效
type Settings struct {
	IdleGrace     time.Duration // 空房保留时长
	CountdownStep time.Duration // 倒计时节拍间隔
	MessageRate   float64       // 每连接每秒消息数上限
	MessageBurst  int           // 限流突发额度
}

// DefaultSettings 缺省参数
func DefaultSettings() Settings {
	return Settings{
		IdleGrace:     5 * time.Minute,
		CountdownStep: time.Second,
		MessageRate:   60,
		MessageBurst:  120,
	}
}

// RoomRegistry 房间注册表：code → Room，唯一的跨房间共享状态
// 显式构造并注入，不做包级单例，便于隔离测试
type RoomRegistry struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	idleTimers map[string]*time.Timer
	settings   Settings

	created int64
	expired int64
}

// NewRoomRegistry 创建注册表
func NewRoomRegistry(s Settings) *RoomRegistry {
	return &RoomRegistry{
		rooms:      make(map[string]*Room),
		idleTimers: make(map[string]*time.Timer),
		settings:   s,
	}
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomCode 随机 4 位大写房间码
func randomCode() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

// CreateRoom 生成唯一房间码并启动房间协程
func (reg *RoomRegistry) CreateRoom() *Room {
	reg.mu.Lock()
	var code string
	for {
		code = randomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}
	room := NewRoom(code, reg.settings.CountdownStep, reg)
	reg.rooms[code] = room
	reg.mu.Unlock()

	atomic.AddInt64(&reg.created, 1)
	go room.Run()
	Log.Infof("room %s created", code)
	return room
}

// GetRoom 查找房间
func (reg *RoomRegistry) GetRoom(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// CheckRoom 加入前的只读探测；房间不存在时返回空占用表
func (reg *RoomRegistry) CheckRoom(code string) RoomProbe {
	room, ok := reg.GetRoom(code)
	if !ok {
		return RoomProbe{TakenNames: []string{}, TakenColors: []int{}}
	}
	return room.Probe()
}

// ScheduleIdleDeletion 预约一次性空房回收；再次预约会重置计时
// 到期只发检查信号，是否真正回收由房间协程确认（期间有人加入则作废）
func (reg *RoomRegistry) ScheduleIdleDeletion(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if t, ok := reg.idleTimers[code]; ok {
		t.Stop()
	}
	reg.idleTimers[code] = time.AfterFunc(reg.settings.IdleGrace, func() {
		if room, ok := reg.GetRoom(code); ok {
			room.requestExpire()
		}
	})
}

// cancelIdle 加入成功后撤销待回收状态
func (reg *RoomRegistry) cancelIdle(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if t, ok := reg.idleTimers[code]; ok {
		t.Stop()
		delete(reg.idleTimers, code)
	}
}

// remove 从注册表摘除房间（由房间协程在回收确认后调用）
func (reg *RoomRegistry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
	if t, ok := reg.idleTimers[code]; ok {
		t.Stop()
		delete(reg.idleTimers, code)
	}
	atomic.AddInt64(&reg.expired, 1)
}

// Settings 当前参数快照
func (reg *RoomRegistry) Settings() Settings {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.settings
}

// UpdateSettings 整体替换参数（管理接口在读出快照上打补丁后回写）
func (reg *RoomRegistry) UpdateSettings(s Settings) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.settings = s
}

// Stats 全部房间的摘要列表
func (reg *RoomRegistry) Stats() []RoomStats {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	out := make([]RoomStats, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Stats())
	}
	return out
}

// Totals 进程级计数
func (reg *RoomRegistry) Totals() map[string]any {
	reg.mu.RLock()
	live := len(reg.rooms)
	reg.mu.RUnlock()
	return map[string]any{
		"rooms_live":    live,
		"rooms_created": atomic.LoadInt64(&reg.created),
		"rooms_expired": atomic.LoadInt64(&reg.expired),
	}
}
