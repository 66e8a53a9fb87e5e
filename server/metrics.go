package server

import "sync/atomic"

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	ActionsProcessed int64 // 已处理的客户端动作数
	SnapshotsSent    int64 // 全量快照广播次数
	DeltasSent       int64 // 移动增量广播次数
	BytesOut         int64 // 广播累计字节数（按接收方计）
	InvalidDropped   int64 // 因载荷非法被丢弃的动作数
	CountdownsRun    int64 // 已启动的倒计时次数
}

func (m *RoomMetrics) IncActions()    { atomic.AddInt64(&m.ActionsProcessed, 1) }
func (m *RoomMetrics) IncSnapshots()  { atomic.AddInt64(&m.SnapshotsSent, 1) }
func (m *RoomMetrics) IncDeltas()     { atomic.AddInt64(&m.DeltasSent, 1) }
func (m *RoomMetrics) IncInvalid()    { atomic.AddInt64(&m.InvalidDropped, 1) }
func (m *RoomMetrics) IncCountdowns() { atomic.AddInt64(&m.CountdownsRun, 1) }
func (m *RoomMetrics) AddBytes(n int64) {
	atomic.AddInt64(&m.BytesOut, n)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	return map[string]any{
		"actions_processed": atomic.LoadInt64(&m.ActionsProcessed),
		"snapshots_sent":    atomic.LoadInt64(&m.SnapshotsSent),
		"deltas_sent":       atomic.LoadInt64(&m.DeltasSent),
		"bytes_out":         atomic.LoadInt64(&m.BytesOut),
		"invalid_dropped":   atomic.LoadInt64(&m.InvalidDropped),
		"countdowns_run":    atomic.LoadInt64(&m.CountdownsRun),
	}
}
