package server

import "math"

// round1 数值字段统一保留一位小数，压缩广播体积
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PlayerSnapshot 玩家的广播投影
type PlayerSnapshot struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Frame   float64 `json:"frame"`
	Invuln  int     `json:"invuln"`
	Lives   int     `json:"lives"`
	Active  bool    `json:"active"`
	Bubbled bool    `json:"bubbled"`
	Idx     int     `json:"idx"`
}

// EnemySnapshot 敌人的广播投影
type EnemySnapshot struct {
	Type   EnemyType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Dir    int       `json:"dir"`
	DirY   int       `json:"dirY"`
	Frame  float64   `json:"frame"`
	Puffed bool      `json:"puffed"`
}

// Snapshot 房间完整状态的不可变投影，广播给客户端
// 全部为副本，不暴露内部可变引用
type Snapshot struct {
	State      RoomState        `json:"state"`
	Score      int              `json:"score"`
	Level      int              `json:"level"`
	Frame      int64            `json:"frame"`
	StateTimer int              `json:"stateTimer"`
	Players    []PlayerSnapshot `json:"players"`
	Enemies    []EnemySnapshot  `json:"enemies"`
	Cookies    []Cookie         `json:"cookies"`
	Grid       [][]int          `json:"grid"`
	BabyCrab   *BabyCrab        `json:"babyCrab"`
	Events     []Event          `json:"events"`
	Paused     bool             `json:"paused"`
	PausedBy   int              `json:"pausedBy"`
}

// Snapshot 生成当前 Tick 的状态快照
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		State:      r.state,
		Score:      r.score,
		Level:      r.level,
		Frame:      r.frame,
		StateTimer: r.stateTimer,
		Players:    make([]PlayerSnapshot, 0, len(r.players)),
		Enemies:    make([]EnemySnapshot, 0, len(r.enemies)),
		Cookies:    make([]Cookie, 0, len(r.cookies)),
		Grid:       make([][]int, len(r.grid)),
		Paused:     r.paused,
		PausedBy:   r.pausedBy,
	}
	for _, p := range r.players {
		s.Players = append(s.Players, PlayerSnapshot{
			X:       round1(p.X),
			Y:       round1(p.Y),
			Frame:   round1(p.Frame),
			Invuln:  p.Invuln,
			Lives:   p.Lives,
			Active:  p.Active,
			Bubbled: p.Bubbled,
			Idx:     p.Idx,
		})
	}
	for _, e := range r.enemies {
		s.Enemies = append(s.Enemies, EnemySnapshot{
			Type:   e.Type,
			X:      round1(e.X),
			Y:      round1(e.Y),
			Dir:    e.Dir,
			DirY:   e.DirY,
			Frame:  round1(e.Frame),
			Puffed: e.Puffed,
		})
	}
	for _, ck := range r.cookies {
		s.Cookies = append(s.Cookies, *ck)
	}
	for i, row := range r.grid {
		s.Grid[i] = append([]int(nil), row...)
	}
	if r.babyCrab != nil {
		crab := *r.babyCrab
		s.BabyCrab = &crab
	}
	if len(r.events) > 0 {
		s.Events = append([]Event(nil), r.events...)
	} else {
		s.Events = []Event{}
	}
	return s
}
