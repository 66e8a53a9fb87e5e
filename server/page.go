package server

import "github.com/google/uuid"

// undoKind 撤销记录的类别，只区分笔画与文本
type undoKind string

const (
	undoStroke undoKind = "stroke"
	undoText   undoKind = "text"
)

// Page 一页独立画布：笔画、标点、文本与本页的撤销记录
// openStrokeID 指向尚未被替换的最近笔画，drawPoint 只对它生效
type Page struct {
	ID      string           `json:"id"`
	Config  ArenaConfig      `json:"config"`
	Strokes []Stroke         `json:"strokes"`
	Markers map[string]Point `json:"markers"`
	Text    []TextObject     `json:"text"`

	history      []undoKind
	openStrokeID string
}

// NewPage 创建空白页，config 由调用方决定（通常继承上一页）
func NewPage(cfg ArenaConfig) *Page {
	return &Page{
		ID:      uuid.NewString(),
		Config:  cfg,
		Strokes: make([]Stroke, 0),
		Markers: make(map[string]Point),
		Text:    make([]TextObject, 0),
	}
}

// StartStroke 开启一条新笔画（至少含起点），并成为唯一可追加的笔画
func (p *Page) StartStroke(s Stroke) {
	if len(s.Points) == 0 {
		s.Points = []Point{{}}
	}
	p.Strokes = append(p.Strokes, s)
	p.history = append(p.history, undoStroke)
	p.openStrokeID = s.ID
}

// AddPoint 向未结束的笔画追加一个点
// id 不匹配（页已切换或笔画已被替换）时返回 false，由调用方记日志忽略
func (p *Page) AddPoint(id string, pt Point) bool {
	if id == "" || id != p.openStrokeID {
		return false
	}
	for i := len(p.Strokes) - 1; i >= 0; i-- {
		if p.Strokes[i].ID == id {
			p.Strokes[i].Points = append(p.Strokes[i].Points, pt)
			return true
		}
	}
	return false
}

// CloseStroke 结束当前笔画，之后的 drawPoint 全部忽略
func (p *Page) CloseStroke() {
	p.openStrokeID = ""
}

// AddText 追加文本对象
func (p *Page) AddText(t TextObject) {
	p.Text = append(p.Text, t)
	p.history = append(p.history, undoText)
}

// PlaceMarker 放置场地标点，slot 非法时返回 false
func (p *Page) PlaceMarker(slot string, pt Point) bool {
	if !validMarkerSlot(slot) {
		return false
	}
	p.Markers[slot] = pt
	return true
}

// RemoveMarker 移除场地标点，slot 非法时返回 false
func (p *Page) RemoveMarker(slot string) bool {
	if !validMarkerSlot(slot) {
		return false
	}
	delete(p.Markers, slot)
	return true
}

// ClearMarkers 清空本页全部标点
func (p *Page) ClearMarkers() {
	p.Markers = make(map[string]Point)
}

// Undo 撤销本页最近一次笔画或文本；无可撤销内容时返回 false
// 历史为空但仍有笔画时（如导入的旧存档）退化为弹出最后一条笔画
func (p *Page) Undo() bool {
	if len(p.history) == 0 {
		if len(p.Strokes) == 0 {
			return false
		}
		p.popStroke()
		return true
	}
	kind := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	switch kind {
	case undoText:
		if len(p.Text) == 0 {
			return false
		}
		p.Text = p.Text[:len(p.Text)-1]
	default:
		if len(p.Strokes) == 0 {
			return false
		}
		p.popStroke()
	}
	return true
}

func (p *Page) popStroke() {
	last := p.Strokes[len(p.Strokes)-1]
	p.Strokes = p.Strokes[:len(p.Strokes)-1]
	if last.ID == p.openStrokeID {
		p.openStrokeID = ""
	}
}

// Clear 清空本页笔画、文本与撤销记录；标点保留
func (p *Page) Clear() {
	p.Strokes = make([]Stroke, 0)
	p.Text = make([]TextObject, 0)
	p.history = nil
	p.openStrokeID = ""
}

// normalize 补齐反序列化后可能缺失的字段，并清空撤销记录
// 导入的页不携带历史，撤销从导入后重新计起
func (p *Page) normalize() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Strokes == nil {
		p.Strokes = make([]Stroke, 0)
	}
	if p.Markers == nil {
		p.Markers = make(map[string]Point)
	}
	if p.Text == nil {
		p.Text = make([]TextObject, 0)
	}
	p.history = nil
	p.openStrokeID = ""
}
