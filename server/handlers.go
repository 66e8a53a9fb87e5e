package server

import (
	"encoding/json"

	"github.com/google/uuid"
)

// dispatch 在房间协程内执行一条客户端动作
// 悬空引用类错误（笔画 id 不存在、空撤销等）只记日志不下发
func (r *Room) dispatch(cmd command) {
	r.metrics.IncActions()
	switch cmd.msg.Type {
	case evtMove:
		r.handleMove(cmd)
	case evtUpdateConfig:
		r.handleUpdateConfig(cmd)
	case evtStartStroke:
		r.handleStartStroke(cmd)
	case evtDrawPoint:
		r.handleDrawPoint(cmd)
	case evtEndStroke:
		// 客户端收笔信号，画布状态不依赖它；仅关闭可追加笔画
		r.page().CloseStroke()
	case evtAddText:
		r.handleAddText(cmd)
	case evtUndoStroke:
		if r.page().Undo() {
			r.broadcastState()
		} else {
			Log.Debugf("room %s: undo on empty page ignored", r.Code)
		}
	case evtClearStrokes:
		r.page().Clear()
		r.broadcastState()
	case evtPlaceMarker:
		r.handlePlaceMarker(cmd)
	case evtRemoveMarker:
		r.handleRemoveMarker(cmd)
	case evtClearMarkers:
		r.page().ClearMarkers()
		r.broadcastState()
	case evtAddPage:
		r.handleAddPage()
	case evtDeletePage:
		r.handleDeletePage()
	case evtChangePage:
		r.handleChangePage(cmd)
	case evtHonk:
		if _, ok := r.players[cmd.from]; ok {
			r.broadcast(evtHonk, HonkEvent{ID: cmd.from})
		}
	case evtDebuffCount:
		r.handleDebuffCountdown(cmd)
	case evtLimitCut:
		r.startCountdown(func(r *Room) { r.assignLimitCuts() })
	case evtUpdateDebuffs:
		r.handleUpdateDebuffs(cmd)
	case evtUpdateLCs:
		r.handleUpdateLimitCuts(cmd)
	case evtClearLimitCut:
		for _, p := range r.players {
			p.LimitCut = nil
		}
		r.broadcastState()
	case evtKeepalive:
		// 仅保活，无状态效果
	case evtRestoreState:
		r.handleRestore(cmd.msg.Data)
	default:
		Log.Debugf("room %s: unknown action %q from %s", r.Code, cmd.msg.Type, cmd.from)
		r.metrics.IncInvalid()
	}
}

// handleMove 无条件覆盖位置，只发增量不发全量
func (r *Room) handleMove(cmd command) {
	var p MovePayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	player, ok := r.players[cmd.from]
	if !ok {
		return
	}
	player.X = p.X
	player.Y = p.Y
	r.broadcast(evtPlayerMoved, MovedEvent{ID: cmd.from, X: p.X, Y: p.Y})
	r.metrics.IncDeltas()
}

// handleUpdateConfig 部分合并场地配置；选择预设时展开为完整标点布局
func (r *Room) handleUpdateConfig(cmd command) {
	var patch ConfigPatch
	if err := json.Unmarshal(cmd.msg.Data, &patch); err != nil {
		r.metrics.IncInvalid()
		return
	}
	page := r.page()
	if patch.Shape != nil {
		page.Config.Shape = *patch.Shape
	}
	if patch.Width != nil {
		page.Config.Width = *patch.Width
	}
	if patch.Height != nil {
		page.Config.Height = *patch.Height
	}
	if patch.ShowGrid != nil {
		page.Config.ShowGrid = *patch.ShowGrid
	}
	if patch.WaymarkPreset != nil {
		page.Config.WaymarkPreset = *patch.WaymarkPreset
		if layout := expandWaymarkPreset(*patch.WaymarkPreset); layout != nil {
			page.Markers = layout
		}
	}
	r.broadcastState()
}

func (r *Room) handleStartStroke(cmd command) {
	var p StartStrokePayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil || p.ID == "" {
		r.metrics.IncInvalid()
		return
	}
	if p.Width <= 0 {
		p.Width = 3
	}
	if p.Type == "" {
		p.Type = StrokeFreehand
	}
	r.page().StartStroke(Stroke{
		ID:       p.ID,
		Color:    p.Color,
		Width:    p.Width,
		IsEraser: p.IsEraser,
		Type:     p.Type,
		Points:   []Point{{X: p.X, Y: p.Y}},
	})
	r.broadcastState()
}

func (r *Room) handleDrawPoint(cmd command) {
	var p DrawPointPayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	if !r.page().AddPoint(p.ID, Point{X: p.X, Y: p.Y}) {
		// 常见于中途翻页或笔画已被替换，无害竞态
		Log.Debugf("room %s: drawPoint ignored, stroke %s not open", r.Code, p.ID)
		return
	}
	r.broadcastState()
}

func (r *Room) handleAddText(cmd command) {
	var t TextObject
	if err := json.Unmarshal(cmd.msg.Data, &t); err != nil || t.Text == "" {
		r.metrics.IncInvalid()
		return
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.page().AddText(t)
	r.broadcastState()
}

func (r *Room) handlePlaceMarker(cmd command) {
	var m MarkerPayload
	if err := json.Unmarshal(cmd.msg.Data, &m); err != nil {
		r.metrics.IncInvalid()
		return
	}
	if !r.page().PlaceMarker(m.Type, Point{X: m.X, Y: m.Y}) {
		Log.Debugf("room %s: invalid marker slot %q", r.Code, m.Type)
		r.metrics.IncInvalid()
		return
	}
	r.broadcastState()
}

func (r *Room) handleRemoveMarker(cmd command) {
	var m MarkerPayload
	if err := json.Unmarshal(cmd.msg.Data, &m); err != nil {
		r.metrics.IncInvalid()
		return
	}
	if !r.page().RemoveMarker(m.Type) {
		Log.Debugf("room %s: invalid marker slot %q", r.Code, m.Type)
		r.metrics.IncInvalid()
		return
	}
	r.broadcastState()
}

// handleAddPage 新页只继承上一页的场地配置，内容从空开始
func (r *Room) handleAddPage() {
	r.page().CloseStroke()
	r.pages = append(r.pages, NewPage(r.page().Config))
	r.current = len(r.pages) - 1
	r.broadcastState()
}

// handleDeletePage 删除当前页；至少保留一页
func (r *Room) handleDeletePage() {
	if len(r.pages) == 1 {
		Log.Debugf("room %s: refusing to delete last page", r.Code)
		return
	}
	r.pages = append(r.pages[:r.current], r.pages[r.current+1:]...)
	if r.current >= len(r.pages) {
		r.current = len(r.pages) - 1
	}
	r.broadcastState()
}

func (r *Room) handleChangePage(cmd command) {
	var p ChangePagePayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	if p.Index < 0 || p.Index >= len(r.pages) {
		Log.Debugf("room %s: changePage index %d out of range", r.Code, p.Index)
		return
	}
	r.page().CloseStroke() // 翻页即收笔
	r.current = p.Index
	r.broadcastState()
}

func (r *Room) handleDebuffCountdown(cmd command) {
	var p DebuffPayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	r.startCountdown(func(r *Room) {
		r.applyDebuffs(p.Debuffs)
		r.applyLimitCuts(p.LimitCuts)
	})
}

func (r *Room) handleUpdateDebuffs(cmd command) {
	var p DebuffPayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	r.applyDebuffs(p.Debuffs)
	r.broadcastState()
}

func (r *Room) handleUpdateLimitCuts(cmd command) {
	var p DebuffPayload
	if err := json.Unmarshal(cmd.msg.Data, &p); err != nil {
		r.metrics.IncInvalid()
		return
	}
	r.applyLimitCuts(p.LimitCuts)
	r.broadcastState()
}

// applyDebuffs 覆盖指定玩家的 debuff 列表；未知 id 跳过
func (r *Room) applyDebuffs(updates map[string][]int) {
	for id, debuffs := range updates {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		if debuffs == nil {
			debuffs = []int{}
		}
		p.Debuffs = debuffs
	}
}

// applyLimitCuts 覆盖指定玩家的 limit cut 编号；null 表示清除
func (r *Room) applyLimitCuts(updates map[string]*int) {
	for id, lc := range updates {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		if lc == nil {
			p.LimitCut = nil
			continue
		}
		n := *lc
		p.LimitCut = &n
	}
}
