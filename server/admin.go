package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HandleAdminSettings 提供进程参数的读取与更新（热更新基本规则）
// GET  /admin/settings      返回当前参数
// POST /admin/settings      以 JSON 载荷更新部分字段
// 倒计时节拍与限流参数在新房间/新连接上生效，已有的不受影响
func HandleAdminSettings(reg *RoomRegistry) http.HandlerFunc {
	type cfg struct {
		IdleGraceSec    *int     `json:"idleGraceSec,omitempty"`
		CountdownStepMs *int     `json:"countdownStepMs,omitempty"`
		MessageRate     *float64 `json:"messageRate,omitempty"`
		MessageBurst    *int     `json:"messageBurst,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s := reg.Settings()
			grace := int(s.IdleGrace / time.Second)
			step := int(s.CountdownStep / time.Millisecond)
			cur := cfg{
				IdleGraceSec:    &grace,
				CountdownStepMs: &step,
				MessageRate:     &s.MessageRate,
				MessageBurst:    &s.MessageBurst,
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cur)
		case http.MethodPost:
			var body cfg
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			s := reg.Settings()
			if body.IdleGraceSec != nil {
				s.IdleGrace = time.Duration(*body.IdleGraceSec) * time.Second
			}
			if body.CountdownStepMs != nil {
				s.CountdownStep = time.Duration(*body.CountdownStepMs) * time.Millisecond
			}
			if body.MessageRate != nil {
				s.MessageRate = *body.MessageRate
			}
			if body.MessageBurst != nil {
				s.MessageBurst = *body.MessageBurst
			}
			reg.UpdateSettings(s)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
			Log.Infof("settings updated: idleGrace=%s countdownStep=%s rate=%.1f burst=%d",
				s.IdleGrace, s.CountdownStep, s.MessageRate, s.MessageBurst)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleAdminRooms 列出当前全部房间的摘要
// GET /admin/rooms
func HandleAdminRooms(reg *RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reg.Stats())
	}
}

// HandleMetrics 输出运行指标
// GET /metrics              进程级计数
// GET /metrics?room=ABCD    指定房间的指标
func HandleMetrics(reg *RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		code := r.URL.Query().Get("room")
		if code == "" {
			_ = json.NewEncoder(w).Encode(reg.Totals())
			return
		}
		room, ok := reg.GetRoom(normalizeCode(code))
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		payload := map[string]any{
			"room":    room.Code,
			"metrics": room.Metrics().Snapshot(),
		}
		_ = json.NewEncoder(w).Encode(payload)
	}
}
