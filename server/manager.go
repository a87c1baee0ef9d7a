package server

import (
	"math/rand"
	"sync"
	"time"
)

// 房间码与空闲清理参数
const (
	// 去掉易混淆字符（0/O、1/I）的取码字母表
	codeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength    = 4
	roomIdleLimit = 2 * time.Minute
	sweepInterval = 30 * time.Second
)

// Registry 管理全部房间的生命周期：建房、查找、空闲回收
// 由连接协调层持有，不做成包级单例
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:  make(chan struct{}),
	}
}

// CreateRoom 生成一个未被占用的房间码并注册新房间（大厅状态）
func (g *Registry) CreateRoom() *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	var code string
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[g.rng.Intn(len(codeAlphabet))]
		}
		code = string(b)
		if _, taken := g.rooms[code]; !taken {
			break
		}
	}
	room := NewRoom(code)
	g.rooms[code] = room
	return room
}

// FindRoom 按房间码查找，不存在返回 nil
func (g *Registry) FindRoom(code string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[code]
}

// RemoveRoom 注销房间；对不存在的码调用无副作用
func (g *Registry) RemoveRoom(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

// Count 当前活跃房间数
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Rooms 返回当前全部房间的切片副本（巡检接口用）
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	list := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		list = append(list, r)
	}
	return list
}

// StartSweeper 启动空闲清理：定期扫描，空房闲置超时即停掉并移除
// onEvict 在移除后回调（协调层借此停掉对应的 Tick 驱动）
func (g *Registry) StartSweeper(onEvict func(room *Room)) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-g.stop:
				return
			case <-ticker.C:
				for _, room := range g.staleRooms() {
					room.StopGame()
					g.RemoveRoom(room.Code)
					if onEvict != nil {
						onEvict(room)
					}
					Log.Infof("room %s cleaned up (empty)", room.Code)
				}
			}
		}
	}()
}

func (g *Registry) staleRooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var stale []*Room
	for _, room := range g.rooms {
		if room.IsEmpty() && time.Since(room.LastActivity()) > roomIdleLimit {
			stale = append(stale, room)
		}
	}
	return stale
}

// Stop 停止空闲清理；重复调用是无副作用的
func (g *Registry) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}
