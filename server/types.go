package server

// Role 玩家职能，spectator 不参与颜色占用与 limit cut 分配
type Role string

const (
	RoleTank      Role = "tank"
	RoleHealer    Role = "healer"
	RoleDPS       Role = "dps"
	RoleSpectator Role = "spectator"
)

// Valid 判断是否为已知职能
func (r Role) Valid() bool {
	switch r {
	case RoleTank, RoleHealer, RoleDPS, RoleSpectator:
		return true
	}
	return false
}

// Point 画布坐标点
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokeType 笔画形状
type StrokeType string

const (
	StrokeFreehand StrokeType = "freehand"
	StrokeLine     StrokeType = "line"
	StrokeCircle   StrokeType = "circle"
	StrokeDonut    StrokeType = "donut"
)

// Stroke 一条笔画，id 由客户端生成，页内唯一
// 不变量：points 至少包含起点
type Stroke struct {
	ID       string     `json:"id"`
	Color    int        `json:"color"`
	Width    float64    `json:"width"`
	IsEraser bool       `json:"isEraser"`
	Type     StrokeType `json:"type"`
	Points   []Point    `json:"points"`
}

// TextObject 画布文本，创建后只能整体撤销或清空
type TextObject struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	Color    int     `json:"color"`
	FontSize float64 `json:"fontSize"`
}

// ArenaConfig 场地配置
type ArenaConfig struct {
	Shape         string  `json:"shape"` // circle | square
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	ShowGrid      bool    `json:"showGrid"`
	WaymarkPreset string  `json:"waymarkPreset,omitempty"`
}

// defaultConfig 新房间第一页的场地配置
func defaultConfig() ArenaConfig {
	return ArenaConfig{Shape: "circle", Width: 500, Height: 500, ShowGrid: false}
}

// 坐标空间 800x600，出生点取正中
const (
	spawnX = 400
	spawnY = 300
)

// Player 房间内的玩家（服务端权威状态）
// 不变量：同房间内非 spectator 的 color 不重复，name 不分大小写唯一
type Player struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    int     `json:"color"`
	Name     string  `json:"name"`
	Role     Role    `json:"role"`
	Debuffs  []int   `json:"debuffs"`
	LimitCut *int    `json:"limitCut,omitempty"`
}

// GameState 广播给客户端的完整房间快照
type GameState struct {
	Players          map[string]*Player `json:"players"`
	Pages            []*Page            `json:"pages"`
	CurrentPageIndex int                `json:"currentPageIndex"`
}

// markerSlots 合法的场地标点位
var markerSlots = map[string]struct{}{
	"A": {}, "B": {}, "C": {}, "D": {},
	"1": {}, "2": {}, "3": {}, "4": {},
}

// validMarkerSlot 判断标点名是否合法
func validMarkerSlot(slot string) bool {
	_, ok := markerSlots[slot]
	return ok
}
