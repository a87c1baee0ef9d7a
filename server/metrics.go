package server

import (
	"sync/atomic"
)

// ServerMetrics 进程级运行指标（用于监控与调试）
type ServerMetrics struct {
	RoomsCreated    int64 // 累计建房数
	TicksExecuted   int64 // 累计执行的 Tick 数
	TotalTickNs     int64 // Tick 累计耗时（纳秒）
	SnapshotsSent   int64 // 广播出去的状态快照数
	InputsApplied   int64 // 被应用的输入消息数
	MessagesDropped int64 // 解析失败或类型未知而被丢弃的消息数
}

func (m *ServerMetrics) IncRoomCreated() { atomic.AddInt64(&m.RoomsCreated, 1) }

func (m *ServerMetrics) IncSnapshot() { atomic.AddInt64(&m.SnapshotsSent, 1) }

func (m *ServerMetrics) IncInputApplied() { atomic.AddInt64(&m.InputsApplied, 1) }

func (m *ServerMetrics) IncDropped() { atomic.AddInt64(&m.MessagesDropped, 1) }
func (m *ServerMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TicksExecuted, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *ServerMetrics) Snapshot() map[string]any {
	ticks := atomic.LoadInt64(&m.TicksExecuted)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if ticks > 0 {
		avgMs = float64(total) / float64(ticks) / 1e6
	}
	return map[string]any{
		"rooms_created":    atomic.LoadInt64(&m.RoomsCreated),
		"ticks_executed":   ticks,
		"snapshots_sent":   atomic.LoadInt64(&m.SnapshotsSent),
		"inputs_applied":   atomic.LoadInt64(&m.InputsApplied),
		"messages_dropped": atomic.LoadInt64(&m.MessagesDropped),
		"avg_tick_ms":      avgMs,
	}
}
