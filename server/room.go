package server

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RoomState 房间状态机取值（数值与线上协议保持一致）
type RoomState int

const (
	StateLobby      RoomState = -1
	StatePlaying    RoomState = 1
	StateDying      RoomState = 2
	StateLevelClear RoomState = 3
	StateGameOver   RoomState = 4
	StateWin        RoomState = 5
)

// MaxPlayers 每个房间的槽位数
const MaxPlayers = 4

// 状态机定时与计分常量（单位：Tick / 分）
const (
	levelClearTicks    = 120
	gameOverTicks      = 180
	winTicks           = 240
	cookieScore        = 100
	babyCrabScore      = 250
	levelClearBase     = 500
	levelClearPerLevel = 200
	difficultyStep     = 0.3 // 关卡表每循环一轮，难度倍率加 0.3
	seaweedBounce      = 3.5 // 海藻弹开力度（像素）
)

// 离散事件类型（随快照广播，客户端用于音效与提示）
const (
	eventCollect    = "collect"
	eventBabyCrab   = "baby_crab"
	eventHit        = "hit"
	eventGameOver   = "game_over"
	eventLevelClear = "level_clear"
	eventPause      = "pause"
	eventUnpause    = "unpause"
	eventBubble     = "bubble"
)

// 加入房间时的前置校验错误，文案直接作为协议错误消息下发
var (
	ErrGameInProgress = errors.New("Game already in progress")
	ErrRoomFull       = errors.New("Room is full")
)

// Event 单个 Tick 内产生的离散事件；非玩家事件 PlayerIdx 为 -1
type Event struct {
	Type      string `json:"type"`
	PlayerIdx int    `json:"playerIdx"`
	On        bool   `json:"on,omitempty"`
}

// Cookie 收集物：固定格子坐标，收集标记只会从 false 翻到 true
type Cookie struct {
	Col       int  `json:"col"`
	Row       int  `json:"row"`
	Collected bool `json:"collected"`
}

// BabyCrab 奖励小螃蟹：每第 4 关随机落在一个空格，拾取加 250 分并补一条命
type BabyCrab struct {
	Col       int  `json:"col"`
	Row       int  `json:"row"`
	Collected bool `json:"collected"`
}

// RosterEntry 大厅名单条目
type RosterEntry struct {
	Idx    int    `json:"idx"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Room 一局独立游戏：权威状态全部在内存，由互斥锁保护
// 同一房间的消息处理与 Tick 驱动互斥，房间之间互不共享
type Room struct {
	Code string

	mu         sync.Mutex
	state      RoomState
	score      int
	level      int
	frame      int64
	stateTimer int

	grid     [][]int
	cookies  []*Cookie
	enemies  []*Enemy
	players  []*Player
	babyCrab *BabyCrab

	events   []Event
	paused   bool
	pausedBy int

	playerSlots [MaxPlayers]string // 槽位 → 客户端标识，空串表示空位
	playerNames [MaxPlayers]string
	hostID      string

	lastActivity time.Time
	rng          *rand.Rand
}

// NewRoom 创建处于大厅状态的房间
func NewRoom(code string) *Room {
	return &Room{
		Code:         code,
		state:        StateLobby,
		pausedBy:     -1,
		lastActivity: time.Now(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPlayer 占用第一个空槽位；若尚无房主则指定为房主
// 返回分配的槽位下标，满员返回 -1
func (r *Room) AddPlayer(clientID, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPlayerLocked(clientID, name)
}

// Join 带前置校验的加入：仅大厅状态且未满员时成功
func (r *Room) Join(clientID, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateLobby {
		return -1, ErrGameInProgress
	}
	if r.playerCountLocked() >= MaxPlayers {
		return -1, ErrRoomFull
	}
	return r.addPlayerLocked(clientID, name), nil
}

func (r *Room) addPlayerLocked(clientID, name string) int {
	for i := 0; i < MaxPlayers; i++ {
		if r.playerSlots[i] != "" {
			continue
		}
		if name == "" {
			name = "P" + string(rune('1'+i))
		}
		r.playerSlots[i] = clientID
		r.playerNames[i] = name
		if i == 0 || r.hostID == "" {
			r.hostID = clientID
		}
		r.lastActivity = time.Now()
		return i
	}
	return -1
}

// RemovePlayer 释放槽位，停用对应的对局内玩家，必要时把房主移交给
// 第一个仍被占用的槽位
func (r *Room) RemovePlayer(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < MaxPlayers; i++ {
		if r.playerSlots[i] != clientID {
			continue
		}
		r.playerSlots[i] = ""
		r.playerNames[i] = ""
		if p := r.playerAtLocked(i); p != nil {
			p.Active = false
			p.Lives = 0
		}
		if r.hostID == clientID {
			r.hostID = ""
			for _, id := range r.playerSlots {
				if id != "" {
					r.hostID = id
					break
				}
			}
		}
		r.lastActivity = time.Now()
		return
	}
}

// SetInput 记录输入意图；位置变化统一延迟到下一次 Tick
func (r *Room) SetInput(clientID string, in InputVector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.slotOfLocked(clientID)
	if idx == -1 {
		return
	}
	if p := r.playerAtLocked(idx); p != nil {
		p.Input = in
	}
	r.lastActivity = time.Now()
}

// TogglePause 暂停/恢复：只能在对局中暂停，恢复不受状态限制
func (r *Room) TogglePause(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePlaying && !r.paused {
		return
	}
	r.paused = !r.paused
	if r.paused {
		r.pausedBy = r.slotOfLocked(clientID)
		r.events = append(r.events, Event{Type: eventPause, PlayerIdx: -1})
	} else {
		r.pausedBy = -1
		r.events = append(r.events, Event{Type: eventUnpause, PlayerIdx: -1})
	}
}

// ToggleBubble 切换泡泡状态；未在局内或已淘汰的玩家忽略
func (r *Room) ToggleBubble(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.slotOfLocked(clientID)
	if idx == -1 {
		return
	}
	p := r.playerAtLocked(idx)
	if p == nil || !p.Active {
		return
	}
	p.Bubbled = !p.Bubbled
	r.events = append(r.events, Event{Type: eventBubble, PlayerIdx: idx, On: p.Bubbled})
}

// StartGame 开局：清零计分与进度，为每个占用槽位创建玩家并加载第 0 关
func (r *Room) StartGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StatePlaying
	r.score = 0
	r.level = 0
	r.frame = 0
	r.events = nil
	r.players = nil
	for i := 0; i < MaxPlayers; i++ {
		if r.playerSlots[i] == "" {
			continue
		}
		r.players = append(r.players, &Player{
			Lives:  startingLives,
			Active: true,
			Idx:    i,
		})
	}
	r.loadLevelLocked(0)
}

// StopGame 结束本局回到大厅；重复调用无副作用
func (r *Room) StopGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateLobby
	r.players = nil
	r.paused = false
	r.pausedBy = -1
}

// loadLevelLocked 按模板重建关卡：网格、收集物、敌人、玩家落位与奖励
func (r *Room) loadLevelLocked(idx int) {
	template := TemplateAt(idx)
	diffMult := 1 + float64(idx/TemplateCount())*difficultyStep

	r.grid = make([][]int, Rows)
	r.cookies = nil
	r.enemies = nil

	for row := 0; row < Rows; row++ {
		r.grid[row] = make([]int, Cols)
		var rowStr string
		if row < len(template.Map) {
			rowStr = template.Map[row]
		}
		for col := 0; col < Cols; col++ {
			v := tileEmpty
			if col < len(rowStr) {
				v = int(rowStr[col] - '0')
			}
			if v == tileCrumb {
				// 饼干屑格转为收集物，格子本身还原为空
				r.cookies = append(r.cookies, &Cookie{Col: col, Row: row})
				v = tileEmpty
			}
			r.grid[row][col] = v
		}
	}

	for _, spawn := range template.Enemies {
		r.enemies = append(r.enemies, newEnemy(spawn, diffMult))
	}

	// 所有存活玩家按槽位偏移落到出生点附近并重置瞬时状态
	start := template.PlayerStart
	for _, p := range r.players {
		if !p.Active {
			continue
		}
		off := spawnOffsets[0]
		if p.Idx >= 0 && p.Idx < len(spawnOffsets) {
			off = spawnOffsets[p.Idx]
		}
		p.X = clamp(float64(start.Col*TileSize)+off.DX, 0, MapW-TileSize)
		p.Y = clamp(float64(start.Row*TileSize)+off.DY, 0, MapH-TileSize)
		p.Frame = 0
		p.Invuln = 0
		p.Bubbled = false
	}

	// 海胆是静止障碍，压在它脚下的饼干屑永远吃不到，直接剔除
	urchinTiles := make(map[TileCoord]bool)
	for _, e := range r.enemies {
		if e.Type == EnemyUrchin {
			urchinTiles[TileCoord{Col: tileOf(e.X), Row: tileOf(e.Y)}] = true
		}
	}
	kept := r.cookies[:0]
	for _, ck := range r.cookies {
		if !urchinTiles[TileCoord{Col: ck.Col, Row: ck.Row}] {
			kept = append(kept, ck)
		}
	}
	r.cookies = kept

	// 每第 4 关（按 1 计数）投放奖励小螃蟹：
	// 候选为 1..Rows-3 行内的空格，且不能与出生点或收集物重合
	r.babyCrab = nil
	if (idx+1)%4 == 0 {
		cookieTiles := make(map[TileCoord]bool, len(r.cookies))
		for _, ck := range r.cookies {
			cookieTiles[TileCoord{Col: ck.Col, Row: ck.Row}] = true
		}
		var empties []TileCoord
		for row := 1; row < Rows-2; row++ {
			for col := 0; col < Cols; col++ {
				if r.grid[row][col] != tileEmpty {
					continue
				}
				if col == start.Col && row == start.Row {
					continue
				}
				if cookieTiles[TileCoord{Col: col, Row: row}] {
					continue
				}
				empties = append(empties, TileCoord{Col: col, Row: row})
			}
		}
		if len(empties) > 0 {
			pick := empties[r.rng.Intn(len(empties))]
			r.babyCrab = &BabyCrab{Col: pick.Col, Row: pick.Row}
		}
	}
}

// findNearestPlayer 敌人 AI 的索敌：直线距离最近的存活且未入泡玩家，
// 等距时按玩家列表顺序（即槽位顺序）先到先得
func (r *Room) findNearestPlayer(x, y float64) *Player {
	var best *Player
	bestDist := math.Inf(1)
	for _, p := range r.players {
		if !p.Active || p.Bubbled {
			continue
		}
		d := math.Hypot(p.X-x, p.Y-y)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// Tick 推进一个固定时间步
// 暂停时除清空事件表外不改动任何状态；帧计数在未暂停时先行递增
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	if r.paused {
		return
	}
	r.frame++

	switch r.state {
	case StatePlaying:
		// 顺序敏感：先结算玩家移动与拾取，敌人碰撞再基于新位置判定
		r.updatePlayersLocked()
		r.updateEnemiesLocked()
	case StateDying:
		r.stateTimer--
		if r.stateTimer <= 0 {
			r.loadLevelLocked(r.level)
			r.state = StatePlaying
		}
	case StateLevelClear:
		r.stateTimer--
		if r.stateTimer <= 0 {
			if r.level >= TemplateCount()-1 {
				r.state = StateWin
				r.stateTimer = winTicks
			} else {
				r.level++
				r.loadLevelLocked(r.level)
				r.state = StatePlaying
			}
		}
	case StateGameOver:
		if r.stateTimer > 0 {
			r.stateTimer--
		}
	}
}

func (r *Room) updatePlayersLocked() {
	for _, p := range r.players {
		if !p.Active || p.Bubbled {
			continue
		}
		if p.Invuln > 0 {
			p.Invuln--
		}

		var dx, dy float64
		if p.Input.Left {
			dx = -playerSpeed
		}
		if p.Input.Right {
			dx = playerSpeed
		}
		if p.Input.Up {
			dy = -playerSpeed
		}
		if p.Input.Down {
			dy = playerSpeed
		}
		if dx != 0 && dy != 0 {
			dx *= diagonalFactor
			dy *= diagonalFactor
		}

		// 两轴分开试探：任一采样格实心则该轴保持原位
		if dx != 0 {
			nx := p.X + dx
			if !r.boxBlockedLocked(nx, p.Y) {
				p.X = nx
			}
		}
		if dy != 0 {
			ny := p.Y + dy
			if !r.boxBlockedLocked(p.X, ny) {
				p.Y = ny
			}
		}

		p.X = clamp(p.X, 0, MapW-TileSize)
		p.Y = clamp(p.Y, 0, MapH-TileSize)

		if dx != 0 || dy != 0 {
			p.Frame += 0.15
		}

		// 海藻弹开：从海藻格中心沿单位向量外推固定力度
		pcol := tileOf(p.X + TileSize/2)
		prow := tileOf(p.Y + TileSize/2)
		if pcol >= 0 && pcol < Cols && prow >= 0 && prow < Rows && r.grid[prow][pcol] == tileSeaweed {
			bx := p.X + TileSize/2 - float64(pcol*TileSize+TileSize/2)
			by := p.Y + TileSize/2 - float64(prow*TileSize+TileSize/2)
			l := math.Hypot(bx, by)
			if l == 0 {
				l = 1
			}
			p.X = clamp(p.X+bx/l*seaweedBounce, 0, MapW-TileSize)
			p.Y = clamp(p.Y+by/l*seaweedBounce, 0, MapH-TileSize)
		}

		// 拾取判定
		for _, ck := range r.cookies {
			if ck.Collected {
				continue
			}
			box := Rect{X: float64(ck.Col*TileSize + 6), Y: float64(ck.Row*TileSize + 6), W: 20, H: 20}
			if rectsOverlap(p.pickupBox(), box) {
				ck.Collected = true
				r.score += cookieScore
				r.events = append(r.events, Event{Type: eventCollect, PlayerIdx: p.Idx})
			}
		}
		if r.babyCrab != nil && !r.babyCrab.Collected {
			box := Rect{X: float64(r.babyCrab.Col*TileSize + 6), Y: float64(r.babyCrab.Row*TileSize + 6), W: 20, H: 20}
			if rectsOverlap(p.pickupBox(), box) {
				r.babyCrab.Collected = true
				p.Lives++
				r.score += babyCrabScore
				r.events = append(r.events, Event{Type: eventBabyCrab, PlayerIdx: p.Idx})
			}
		}
	}

	// 过关判定：全体玩家结算完后统一检查一次
	if len(r.cookies) > 0 && r.allCookiesCollectedLocked() {
		r.score += levelClearBase + r.level*levelClearPerLevel
		r.state = StateLevelClear
		r.stateTimer = levelClearTicks
		r.events = append(r.events, Event{Type: eventLevelClear, PlayerIdx: -1})
	}
}

// boxBlockedLocked 玩家碰撞盒（整格内缩 moveMargin）落在 (x,y) 时
// 是否压到任何实心格
func (r *Room) boxBlockedLocked(x, y float64) bool {
	left := tileOf(x + moveMargin)
	right := tileOf(x + TileSize - 1 - moveMargin)
	top := tileOf(y + moveMargin)
	bot := tileOf(y + TileSize - 1 - moveMargin)
	for row := top; row <= bot; row++ {
		for col := left; col <= right; col++ {
			if isSolid(r.grid, col, row) {
				return true
			}
		}
	}
	return false
}

func (r *Room) updateEnemiesLocked() {
	for _, e := range r.enemies {
		e.Frame += 0.1
		target := r.findNearestPlayer(e.X, e.Y)
		if update := enemyBehaviors[e.Type]; update != nil {
			update(r, e, target)
		}

		// 移动后立刻做接触判定；鼓起状态在本 Tick 内即影响碰撞盒
		box := e.hitbox()
		for _, p := range r.players {
			if !p.Active || p.Invuln > 0 || p.Bubbled {
				continue
			}
			if rectsOverlap(p.hitbox(), box) {
				r.playerHitLocked(p)
			}
		}
	}
}

// playerHitLocked 玩家受击：扣命；归零则淘汰，全灭进入 GAME_OVER，
// 否则给一段无敌窗口
func (r *Room) playerHitLocked(p *Player) {
	p.Lives--
	r.events = append(r.events, Event{Type: eventHit, PlayerIdx: p.Idx})
	if p.Lives <= 0 {
		p.Active = false
		for _, pl := range r.players {
			if pl.Active {
				return
			}
		}
		r.state = StateGameOver
		r.stateTimer = gameOverTicks
		r.events = append(r.events, Event{Type: eventGameOver, PlayerIdx: -1})
		return
	}
	p.Invuln = invulnTicks
}

func (r *Room) allCookiesCollectedLocked() bool {
	for _, ck := range r.cookies {
		if !ck.Collected {
			return false
		}
	}
	return true
}

func (r *Room) slotOfLocked(clientID string) int {
	for i, id := range r.playerSlots {
		if id != "" && id == clientID {
			return i
		}
	}
	return -1
}

func (r *Room) playerAtLocked(idx int) *Player {
	for _, p := range r.players {
		if p.Idx == idx {
			return p
		}
	}
	return nil
}

func (r *Room) playerCountLocked() int {
	n := 0
	for _, id := range r.playerSlots {
		if id != "" {
			n++
		}
	}
	return n
}

// ---- 供协调层使用的只读访问器 ----

// State 当前状态机状态
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Score 当前总分
func (r *Room) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// Level 当前关卡下标
func (r *Room) Level() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// Frame 已推进的帧计数
func (r *Room) Frame() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// StateTimer 当前状态倒计时
func (r *Room) StateTimer() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateTimer
}

// HostID 房主标识，空串表示无人
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// PlayerCount 已占用槽位数
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerCountLocked()
}

// IsEmpty 房间是否已无人占用
func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// LastActivity 最近一次活动时间，用于空闲清理
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Roster 大厅名单（按槽位顺序，仅含占用槽位）
func (r *Room) Roster() []RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]RosterEntry, 0, MaxPlayers)
	for i := 0; i < MaxPlayers; i++ {
		if r.playerSlots[i] == "" {
			continue
		}
		list = append(list, RosterEntry{
			Idx:    i,
			Name:   r.playerNames[i],
			IsHost: r.playerSlots[i] == r.hostID,
		})
	}
	return list
}

// AllPlayersInactive 对局内是否已无存活玩家（无对局视为 false）
func (r *Room) AllPlayersInactive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if p.Active {
			return false
		}
	}
	return true
}
