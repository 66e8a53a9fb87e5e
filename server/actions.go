package server

import "encoding/json"

// Message 客户端与服务端共用的消息信封：{"type":"move","data":{...}}
// data 在边界处按 type 解析成具体载荷，房间内部只处理类型化数据
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// 客户端 → 服务端事件名
const (
	evtJoinGame       = "joinGame"
	evtCheckRoom      = "checkRoom"
	evtMove           = "move"
	evtUpdateConfig   = "updateConfig"
	evtStartStroke    = "startStroke"
	evtDrawPoint      = "drawPoint"
	evtEndStroke      = "endStroke"
	evtAddText        = "addText"
	evtUndoStroke     = "undoStroke"
	evtClearStrokes   = "clearStrokes"
	evtPlaceMarker    = "placeMarker"
	evtRemoveMarker   = "removeMarker"
	evtClearMarkers   = "clearMarkers"
	evtAddPage        = "addPage"
	evtDeletePage     = "deletePage"
	evtChangePage     = "changePage"
	evtHonk           = "honk"
	evtDebuffCount    = "startDebuffCountdown"
	evtLimitCut       = "limitCut"
	evtUpdateDebuffs  = "updateDebuffs"
	evtUpdateLCs      = "updateLimitCuts"
	evtClearLimitCut  = "clearLimitCut"
	evtKeepalive      = "keepalive"
	evtRestoreState   = "restoreState"
)

// 服务端 → 客户端事件名
const (
	evtStateUpdate  = "stateUpdate"
	evtPlayerMoved  = "playerMoved"
	evtJoinSuccess  = "joinSuccess"
	evtJoinError    = "joinError"
	evtCountdown    = "countdown"
	evtCheckResult  = "checkRoomResult"
)

// JoinPayload joinGame 载荷；action 决定建房还是加入
type JoinPayload struct {
	Action string `json:"action"` // create | join
	Code   string `json:"code,omitempty"`
	Name   string `json:"name"`
	Color  int    `json:"color"`
	Role   Role   `json:"role"`
}

// MovePayload 移动载荷，服务端不校验坐标，原样覆盖
type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StartStrokePayload startStroke 载荷
type StartStrokePayload struct {
	ID       string     `json:"id"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Color    int        `json:"color"`
	Width    float64    `json:"width"`
	IsEraser bool       `json:"isEraser"`
	Type     StrokeType `json:"type"`
}

// DrawPointPayload drawPoint 载荷
type DrawPointPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// MarkerPayload placeMarker / removeMarker 载荷
type MarkerPayload struct {
	Type string  `json:"type"` // A-D / 1-4
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ChangePagePayload changePage 载荷
type ChangePagePayload struct {
	Index int `json:"index"`
}

// ConfigPatch updateConfig 的部分更新载荷，nil 字段表示不改动
type ConfigPatch struct {
	Shape         *string  `json:"shape,omitempty"`
	Width         *float64 `json:"width,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	ShowGrid      *bool    `json:"showGrid,omitempty"`
	WaymarkPreset *string  `json:"waymarkPreset,omitempty"`
}

// DebuffPayload startDebuffCountdown / updateDebuffs / updateLimitCuts 载荷
// key 为玩家连接 id；limitCuts 的 null 表示清除该玩家编号
type DebuffPayload struct {
	Debuffs   map[string][]int `json:"debuffs"`
	LimitCuts map[string]*int  `json:"limitCuts"`
}

// CheckRoomPayload checkRoom 载荷
type CheckRoomPayload struct {
	Code string `json:"code"`
}

// MovedEvent playerMoved 增量广播载荷
type MovedEvent struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// HonkEvent honk 转播载荷
type HonkEvent struct {
	ID string `json:"id"`
}

// JoinSuccessEvent joinSuccess 载荷
type JoinSuccessEvent struct {
	Code string `json:"code"`
}

// JoinErrorEvent joinError 载荷
type JoinErrorEvent struct {
	Message string `json:"message"`
}

// RoomProbe checkRoom 的只读探测结果
// takenColors 只统计非 spectator 占用的颜色
type RoomProbe struct {
	Exists      bool     `json:"exists"`
	TakenNames  []string `json:"takenNames"`
	TakenColors []int    `json:"takenColors"`
}

// encodeEvent 将事件编码为发往客户端的信封字节
// 编码一次后对房间内所有连接复用
func encodeEvent(event string, data any) []byte {
	b, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: event, Data: data})
	if err != nil {
		Log.Errorf("encode event %s: %v", event, err)
		return nil
	}
	return b
}
