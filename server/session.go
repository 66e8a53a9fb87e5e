package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// ClientConn 单个浏览器连接：传输身份与房间绑定之间的会话
// 只持有房间指针作回引，不拥有房间状态
type ClientConn struct {
	id      string
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	reg     *RoomRegistry
	room    *Room

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClientConn 包装一条已升级的 WebSocket 连接
func NewClientConn(ws *websocket.Conn, reg *RoomRegistry) *ClientConn {
	s := reg.Settings()
	return &ClientConn{
		id:      uuid.NewString(),
		ws:      ws,
		send:    make(chan []byte, 64),
		limiter: rate.NewLimiter(rate.Limit(s.MessageRate), s.MessageBurst),
		reg:     reg,
		closed:  make(chan struct{}),
	}
}

// ID 本连接的临时标识，同时作为玩家 key
func (c *ClientConn) ID() string {
	return c.id
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃以保护房间协程）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃而非阻塞广播方
	}
}

// shutdown 幂等关闭底层连接并终止写协程
func (c *ClientConn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息并路由；退出时触发断线清理
func (c *ClientConn) readPump() {
	defer func() {
		if c.room != nil {
			c.room.RequestLeave(c.id)
		}
		c.shutdown()
	}()
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			Log.Debugf("conn %s rate limited, dropping message", c.id)
			continue
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			Log.Debugf("conn %s: malformed message: %v", c.id, err)
			continue
		}
		c.handle(msg)
	}
}

// handle 会话级路由：入房前只认 checkRoom 与 joinGame
func (c *ClientConn) handle(msg Message) {
	switch msg.Type {
	case evtCheckRoom:
		var p CheckRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		probe := c.reg.CheckRoom(normalizeCode(p.Code))
		c.Enqueue(encodeEvent(evtCheckResult, probe))
	case evtJoinGame:
		c.handleJoinGame(msg.Data)
	default:
		if c.room == nil {
			Log.Debugf("conn %s: %s before join ignored", c.id, msg.Type)
			return
		}
		c.room.Post(c.id, msg)
	}
}

// handleJoinGame 建房或入房；校验在房间协程内完成，失败经 joinError 下发
func (c *ClientConn) handleJoinGame(data json.RawMessage) {
	if c.room != nil {
		Log.Debugf("conn %s: duplicate join ignored", c.id)
		return
	}
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.Enqueue(encodeEvent(evtJoinError, JoinErrorEvent{Message: "Invalid join request"}))
		return
	}

	var room *Room
	if p.Action == "create" {
		room = c.reg.CreateRoom()
	} else {
		var ok bool
		room, ok = c.reg.GetRoom(normalizeCode(p.Code))
		if !ok {
			c.Enqueue(encodeEvent(evtJoinError, JoinErrorEvent{Message: ErrRoomNotFound.Error()}))
			return
		}
	}
	if err := room.Join(c.id, c, p); err != nil {
		c.Enqueue(encodeEvent(evtJoinError, JoinErrorEvent{Message: err.Error()}))
		return
	}
	c.room = room
}

// normalizeCode 房间码统一按大写处理
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 客户端与服务端分域部署，放开来源校验
		return true
	},
}

// NewWSHandler WebSocket 接入点，注册表由 main 注入
func NewWSHandler(reg *RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnf("ws upgrade error: %v", err)
			return
		}
		c := NewClientConn(ws, reg)
		Log.Infof("conn %s connected from %s", c.id, r.RemoteAddr)
		go c.writePump()
		go c.readPump()
	}
}
