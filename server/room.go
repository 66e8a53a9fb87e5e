package server

import (
	"strings"
	"time"
)

// EventSink 向单个连接投递已编码消息的发送端
// 生产实现为 ClientConn，测试用录制桩替代
type EventSink interface {
	Enqueue(b []byte)
}

// command 会话投递给房间的一条已解析动作
type command struct {
	from string // 发起者连接 id
	msg  Message
}

// joinRequest 加入请求，校验结果经 reply 返回给会话协程
type joinRequest struct {
	id    string
	sink  EventSink
	p     JoinPayload
	reply chan error
}

// RoomStats 管理接口用的房间摘要
type RoomStats struct {
	Code      string `json:"code"`
	Players   int    `json:"players"`
	Pages     int    `json:"pages"`
	Countdown bool   `json:"countdown"`
}

// Room 房间：权威状态维护在内存，由单一协程串行推进
// 状态只在 Run 协程内读写，外部一律经通道请求
type Room struct {
	Code string

	players map[string]*Player
	pages   []*Page
	current int

	sessions map[string]EventSink

	inbox    chan command
	joinCh   chan joinRequest
	leaveCh  chan string
	probeCh  chan chan RoomProbe
	statsCh  chan chan RoomStats
	stepCh   chan *countdown
	expireCh chan struct{}
	done     chan struct{}

	cd           *countdown
	stepInterval time.Duration

	reg     *RoomRegistry
	metrics *RoomMetrics
}

// NewRoom 创建房间并初始化默认首页
func NewRoom(code string, stepInterval time.Duration, reg *RoomRegistry) *Room {
	return &Room{
		Code:         code,
		players:      make(map[string]*Player),
		pages:        []*Page{NewPage(defaultConfig())},
		sessions:     make(map[string]EventSink),
		inbox:        make(chan command, 256), // 足够缓冲，避免网络读阻塞影响房间协程
		joinCh:       make(chan joinRequest),
		leaveCh:      make(chan string, 64),
		probeCh:      make(chan chan RoomProbe),
		statsCh:      make(chan chan RoomStats),
		stepCh:       make(chan *countdown, 1),
		expireCh:     make(chan struct{}, 1),
		done:         make(chan struct{}),
		stepInterval: stepInterval,
		reg:          reg,
		metrics:      &RoomMetrics{},
	}
}

// Run 房间主循环：所有状态变更都在这里串行执行
func (r *Room) Run() {
	for {
		select {
		case jr := <-r.joinCh:
			jr.reply <- r.handleJoin(jr)
		case id := <-r.leaveCh:
			r.handleLeave(id)
		case cmd := <-r.inbox:
			r.dispatch(cmd)
		case resp := <-r.probeCh:
			resp <- r.probe()
		case resp := <-r.statsCh:
			resp <- RoomStats{Code: r.Code, Players: len(r.players), Pages: len(r.pages), Countdown: r.cd != nil}
		case cd := <-r.stepCh:
			r.advanceCountdown(cd)
		case <-r.expireCh:
			if len(r.players) > 0 {
				continue // 到期前有人加入，放弃回收
			}
			Log.Infof("room %s expired after idle grace", r.Code)
			if r.reg != nil {
				r.reg.remove(r.Code)
			}
			close(r.done)
			return
		}
	}
}

// Join 请求加入房间（阻塞到校验完成）；房间已回收时按不存在处理
func (r *Room) Join(id string, sink EventSink, p JoinPayload) error {
	jr := joinRequest{id: id, sink: sink, p: p, reply: make(chan error, 1)}
	select {
	case r.joinCh <- jr:
		return <-jr.reply
	case <-r.done:
		return ErrRoomNotFound
	}
}

// Post 投递一条客户端动作（非阻塞，拥塞时丢弃以保护房间协程）
func (r *Room) Post(from string, msg Message) {
	select {
	case r.inbox <- command{from: from, msg: msg}:
	case <-r.done:
	default:
		Log.Warnf("room %s inbox full, dropping %s from %s", r.Code, msg.Type, from)
	}
}

// RequestLeave 请求在房间协程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id string) {
	select {
	case r.leaveCh <- id:
	case <-r.done:
	}
}

// Probe 只读探测当前占用的名字与颜色
func (r *Room) Probe() RoomProbe {
	resp := make(chan RoomProbe, 1)
	select {
	case r.probeCh <- resp:
		return <-resp
	case <-r.done:
		return RoomProbe{TakenNames: []string{}, TakenColors: []int{}}
	}
}

// Stats 管理接口用的房间摘要
func (r *Room) Stats() RoomStats {
	resp := make(chan RoomStats, 1)
	select {
	case r.statsCh <- resp:
		return <-resp
	case <-r.done:
		return RoomStats{Code: r.Code}
	}
}

// Metrics 运行指标（原子计数，跨协程读安全）
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// requestExpire 空闲定时器到期后的回收检查信号
func (r *Room) requestExpire() {
	select {
	case r.expireCh <- struct{}{}:
	case <-r.done:
	default:
	}
}

// handleJoin 服务端权威的加入校验；客户端预检结果仅供参考
func (r *Room) handleJoin(jr joinRequest) error {
	p := jr.p
	for _, existing := range r.players {
		if strings.EqualFold(existing.Name, p.Name) {
			return ErrNameTaken
		}
	}
	if !p.Role.Valid() {
		p.Role = RoleDPS
	}
	if p.Role != RoleSpectator {
		for _, existing := range r.players {
			if existing.Role != RoleSpectator && existing.Color == p.Color {
				return ErrColorTaken
			}
		}
	}

	r.players[jr.id] = &Player{
		ID:      jr.id,
		X:       spawnX,
		Y:       spawnY,
		Color:   p.Color,
		Name:    p.Name,
		Role:    p.Role,
		Debuffs: []int{},
	}
	r.sessions[jr.id] = jr.sink
	if r.reg != nil {
		r.reg.cancelIdle(r.Code)
	}
	Log.Infof("room %s: %s joined as %q (%s)", r.Code, jr.id, p.Name, p.Role)

	r.sendTo(jr.sink, evtJoinSuccess, JoinSuccessEvent{Code: r.Code})
	r.broadcastState()
	return nil
}

// handleLeave 断线清理；房间清空后预约空闲回收
func (r *Room) handleLeave(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	delete(r.sessions, id)
	Log.Infof("room %s: %s left", r.Code, id)
	r.broadcastState()
	if len(r.players) == 0 && r.reg != nil {
		r.reg.ScheduleIdleDeletion(r.Code)
	}
}

// probe 汇总当前占用情况；颜色只统计非 spectator
func (r *Room) probe() RoomProbe {
	names := make([]string, 0, len(r.players))
	colors := make([]int, 0, len(r.players))
	for _, p := range r.players {
		names = append(names, p.Name)
		if p.Role != RoleSpectator {
			colors = append(colors, p.Color)
		}
	}
	return RoomProbe{Exists: true, TakenNames: names, TakenColors: colors}
}

// snapshot 当前完整状态（仅在房间协程内调用）
func (r *Room) snapshot() GameState {
	return GameState{Players: r.players, Pages: r.pages, CurrentPageIndex: r.current}
}

// broadcast 编码一次，投递给房间内全部连接
func (r *Room) broadcast(event string, data any) {
	b := encodeEvent(event, data)
	if b == nil {
		return
	}
	for _, sink := range r.sessions {
		sink.Enqueue(b)
	}
	r.metrics.AddBytes(int64(len(b)) * int64(len(r.sessions)))
}

// broadcastState 全量快照广播，除移动外的一切变更走这里
func (r *Room) broadcastState() {
	r.broadcast(evtStateUpdate, r.snapshot())
	r.metrics.IncSnapshots()
}

// sendTo 单发给指定连接
func (r *Room) sendTo(sink EventSink, event string, data any) {
	b := encodeEvent(event, data)
	if b == nil {
		return
	}
	sink.Enqueue(b)
	r.metrics.AddBytes(int64(len(b)))
}

// page 当前页指针；不变量 0 <= current < len(pages) 由页操作维护
func (r *Room) page() *Page {
	return r.pages[r.current]
}
