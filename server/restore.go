package server

import "encoding/json"

// 存档恢复：客户端导出的快照整体替换房间页数据
// 支持现代 {pages, currentPageIndex} 与旧版扁平 {config, strokes, markers, text} 两种形态

type restoreModern struct {
	Pages            []*Page `json:"pages"`
	CurrentPageIndex *int    `json:"currentPageIndex"`
}

type restoreLegacy struct {
	Config  *ArenaConfig     `json:"config"`
	Strokes []Stroke         `json:"strokes"`
	Markers map[string]Point `json:"markers"`
	Text    []TextObject     `json:"text"`
}

// handleRestore 解析并整体替换；载荷非法时状态原样保留，绝不半套用
func (r *Room) handleRestore(raw json.RawMessage) {
	if pages, idx, ok := parseRestore(raw); ok {
		r.pages = pages
		r.current = idx
		r.broadcastState()
		return
	}
	Log.Infof("room %s: malformed restore payload ignored", r.Code)
	r.metrics.IncInvalid()
}

// parseRestore 返回规整后的页列表与页指针；两种形态都不匹配时 ok=false
func parseRestore(raw json.RawMessage) ([]*Page, int, bool) {
	var modern restoreModern
	if err := json.Unmarshal(raw, &modern); err == nil && len(modern.Pages) > 0 && !hasNilPage(modern.Pages) {
		for _, p := range modern.Pages {
			p.normalize()
		}
		idx := 0
		if modern.CurrentPageIndex != nil {
			idx = *modern.CurrentPageIndex
		}
		if idx < 0 || idx >= len(modern.Pages) {
			idx = 0
		}
		return modern.Pages, idx, true
	}

	// 旧版存档没有分页概念，包成单页
	var legacy restoreLegacy
	if err := json.Unmarshal(raw, &legacy); err != nil || legacy.Config == nil || legacy.Strokes == nil {
		return nil, 0, false
	}
	page := NewPage(*legacy.Config)
	page.Strokes = legacy.Strokes
	if legacy.Markers != nil {
		page.Markers = legacy.Markers
	}
	if legacy.Text != nil {
		page.Text = legacy.Text
	}
	page.normalize()
	return []*Page{page}, 0, true
}

func hasNilPage(pages []*Page) bool {
	for _, p := range pages {
		if p == nil {
			return true
		}
	}
	return false
}
