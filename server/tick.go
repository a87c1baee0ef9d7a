package server

import (
	"sync"
	"time"
)

const (
	// TicksPerSecond 模拟推进频率
	TicksPerSecond = 60
	// broadcastEvery 每 N 个 Tick 广播一次快照（约 20 次/秒）
	broadcastEvery = 3
	// endGraceDelay 终局倒计时走完后，留给客户端播结算的缓冲
	endGraceDelay = 3 * time.Second
)

var tickInterval = time.Second / TicksPerSecond

// roomDriver 单个房间的 Tick 驱动；halt 幂等
type roomDriver struct {
	room *Room
	stop chan struct{}
	once sync.Once
}

func (d *roomDriver) halt() {
	d.once.Do(func() { close(d.stop) })
}

// startDriver 为已开局的房间启动独立驱动；重复启动是无副作用的
func (h *Hub) startDriver(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, running := h.drivers[room.Code]; running {
		return
	}
	d := &roomDriver{room: room, stop: make(chan struct{})}
	h.drivers[room.Code] = d
	go h.runDriver(d)
}

// stopDriver 停掉并注销指定房间的驱动；幂等
func (h *Hub) stopDriver(code string) {
	h.mu.Lock()
	d := h.drivers[code]
	delete(h.drivers, code)
	h.mu.Unlock()
	if d != nil {
		d.halt()
	}
}

// runDriver 核心循环：固定频率 Tick → 降频广播 → 终局收尾
func (h *Hub) runDriver(d *roomDriver) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	tickCount := 0
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			start := time.Now()
			d.room.Tick()
			h.metrics.AddTick(time.Since(start).Nanoseconds())

			tickCount++
			if tickCount%broadcastEvery == 0 {
				h.broadcastState(d.room)
			}

			st := d.room.State()
			if (st == StateGameOver || st == StateWin) && d.room.StateTimer() <= 0 {
				select {
				case <-d.stop:
					return
				case <-time.After(endGraceDelay):
				}
				h.finishRun(d.room)
				return
			}
		}
	}
}

// broadcastState 把当前快照广播给房间内所有连接
func (h *Hub) broadcastState(room *Room) {
	h.broadcastToRoom(room.Code, stateMsg{Type: "state", Snapshot: room.Snapshot()}, nil)
	h.metrics.IncSnapshot()
}

// finishRun 终局收尾：注销驱动、回到大厅并广播最终比分
func (h *Hub) finishRun(room *Room) {
	h.mu.Lock()
	delete(h.drivers, room.Code)
	h.mu.Unlock()

	finalScore := room.Score()
	room.StopGame()
	h.broadcastToRoom(room.Code, gameEndedMsg{
		Type:       "game_ended",
		FinalScore: finalScore,
		Players:    room.Roster(),
	}, nil)
	Log.Infof("room %s run finished, final score %d", room.Code, finalScore)
}
