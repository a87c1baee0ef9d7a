package server

import "math"

// EnemyType 敌人类型（封闭集合）
type EnemyType string

const (
	EnemyShark         EnemyType = "shark"
	EnemyStingray      EnemyType = "stingray"
	EnemyPorcupinefish EnemyType = "porcupinefish"
	EnemyUrchin        EnemyType = "urchin"
	EnemyPenguin       EnemyType = "penguin"
	EnemyMegalodon     EnemyType = "megalodon"
)

const (
	maxEnemySpeed = 7.0
	puffTicks     = 60 // 河豚鼓起持续时间
)

// enemyBaseSpeed 各类型基础速度，随难度倍率放大后按 maxEnemySpeed 截断
var enemyBaseSpeed = map[EnemyType]float64{
	EnemyShark:         2.24,
	EnemyStingray:      1.54,
	EnemyPorcupinefish: 0.84,
	EnemyUrchin:        0,
	EnemyPenguin:       1.96,
	EnemyMegalodon:     1.82,
}

// Enemy 对局内的敌人实体，每次加载关卡从模板重建
type Enemy struct {
	Type  EnemyType
	X, Y  float64
	Dir   int // 横向方向 ±1（海胆为 0）
	DirY  int // 纵向方向，仅斜向巡逻类型使用
	Speed float64
	Frame float64

	// 类型专属的瞬时状态
	Puffed    bool // 河豚：鼓起（威胁提升、判定收紧）
	PuffTimer int
	Lunging   bool // 巨齿鲨：冲刺中

	HomeX, HomeY float64 // 出生像素坐标
}

// newEnemy 按出生点与难度倍率构造敌人
func newEnemy(s EnemySpawn, diffMult float64) *Enemy {
	base, ok := enemyBaseSpeed[s.Type]
	if !ok {
		base = 0.7
	}
	dirY := 0
	if s.Type == EnemyStingray || s.Type == EnemyPenguin {
		dirY = 1
	}
	x := float64(s.Col * TileSize)
	y := float64(s.Row * TileSize)
	return &Enemy{
		Type:  s.Type,
		X:     x,
		Y:     y,
		Dir:   s.Dir,
		DirY:  dirY,
		Speed: math.Min(base*diffMult, maxEnemySpeed),
		HomeX: x,
		HomeY: y,
	}
}

// hitbox 敌人碰撞盒：边距与尺寸随类型变化
// 鼓起的河豚判定更紧、海胆略松、巨齿鲨用双倍宽度的大盒
func (e *Enemy) hitbox() Rect {
	m := 6.0
	w, h := float64(TileSize), float64(TileSize)
	switch {
	case e.Type == EnemyPorcupinefish && e.Puffed:
		m = 2
	case e.Type == EnemyUrchin:
		m = 4
	case e.Type == EnemyMegalodon:
		w, h, m = TileSize*2, TileSize*1.2, 4
	}
	return Rect{X: e.X + m, Y: e.Y + m, W: w - m*2, H: h - m*2}
}

// enemyBehavior 单个敌人的每 Tick 行为；target 为最近的存活且未入泡玩家（可为 nil）
type enemyBehavior func(r *Room, e *Enemy, target *Player)

// enemyBehaviors 行为分发表：类型 → 更新函数
var enemyBehaviors = map[EnemyType]enemyBehavior{
	EnemyShark:         updateShark,
	EnemyStingray:      updateStingray,
	EnemyPorcupinefish: updatePorcupinefish,
	EnemyUrchin:        updateUrchin,
	EnemyPenguin:       updatePenguin,
	EnemyMegalodon:     updateMegalodon,
}

// updateShark 鲨鱼：恒定方向横向巡逻，撞到边界或前方整格实心时折返
func updateShark(r *Room, e *Enemy, _ *Player) {
	e.X += float64(e.Dir) * e.Speed
	if e.X <= 0 || e.X >= MapW-TileSize {
		e.Dir = -e.Dir
	}
	fc := tileOf(e.X)
	if e.Dir > 0 {
		fc = tileOf(e.X + TileSize)
	}
	fr := tileOf(e.Y + TileSize/2)
	if isSolid(r.grid, fc, fr) {
		e.Dir = -e.Dir
	}
}

// updateStingray 魟鱼：斜向巡逻，横纵各自在边界折返；中心格实心时两轴一起折返
func updateStingray(r *Room, e *Enemy, _ *Player) {
	e.X += float64(e.Dir) * e.Speed
	e.Y += float64(e.DirY) * e.Speed * 0.7
	if e.X <= 0 || e.X >= MapW-TileSize {
		e.Dir = -e.Dir
	}
	if e.Y <= 0 || e.Y >= MapH-TileSize*2 {
		e.DirY = -e.DirY
	}
	if isSolid(r.grid, tileOf(e.X+TileSize/2), tileOf(e.Y+TileSize/2)) {
		e.Dir, e.DirY = -e.Dir, -e.DirY
	}
}

// updatePorcupinefish 河豚：平时横向巡逻；目标进入 4 格警戒圈则鼓起并以半速追踪
// 撞实心格折返并额外推一步脱离障碍，位置始终收回地图内
func updatePorcupinefish(r *Room, e *Enemy, target *Player) {
	dist := math.Inf(1)
	if target != nil {
		dist = math.Hypot(target.X-e.X, target.Y-e.Y)
	}
	if target != nil && dist < TileSize*4 {
		e.Puffed = true
		e.PuffTimer = puffTicks
		ang := math.Atan2(target.Y-e.Y, target.X-e.X)
		e.X += math.Cos(ang) * e.Speed * 0.5
		e.Y += math.Sin(ang) * e.Speed * 0.5
	} else {
		if e.PuffTimer > 0 {
			e.PuffTimer--
		} else {
			e.Puffed = false
		}
		e.X += float64(e.Dir) * e.Speed
		if e.X <= 0 || e.X >= MapW-TileSize {
			e.Dir = -e.Dir
		}
	}
	if isSolid(r.grid, tileOf(e.X+TileSize/2), tileOf(e.Y+TileSize/2)) {
		e.Dir = -e.Dir
		e.X += float64(e.Dir) * e.Speed * 2
	}
	e.X = clamp(e.X, 0, MapW-TileSize)
	e.Y = clamp(e.Y, 0, MapH-TileSize)
}

// updateUrchin 海胆：纯静止障碍
func updateUrchin(_ *Room, _ *Enemy, _ *Player) {}

// updatePenguin 企鹅：斜向巡逻，目标在 3 格内时获得 1.8 倍速度冲刺
func updatePenguin(r *Room, e *Enemy, target *Player) {
	dist := math.Inf(1)
	if target != nil {
		dist = math.Hypot(target.X-e.X, target.Y-e.Y)
	}
	boost := 1.0
	if dist < TileSize*3 {
		boost = 1.8
	}
	e.X += float64(e.Dir) * e.Speed * boost
	e.Y += float64(e.DirY) * e.Speed * 0.8 * boost
	if e.X <= 0 || e.X >= MapW-TileSize {
		e.Dir = -e.Dir
	}
	if e.Y <= 0 || e.Y >= MapH-TileSize*2 {
		e.DirY = -e.DirY
	}
	if isSolid(r.grid, tileOf(e.X+TileSize/2), tileOf(e.Y+TileSize/2)) {
		e.Dir, e.DirY = -e.Dir, -e.DirY
	}
}

// updateMegalodon 巨齿鲨 BOSS：目标进入 1.5 格纵向窄带时以 1.6 倍速横向冲刺，
// 同时缓慢纵向对齐目标；边界按双倍体型修正，位置按大盒收回
func updateMegalodon(_ *Room, e *Enemy, target *Player) {
	yDiff := math.Inf(1)
	if target != nil {
		yDiff = math.Abs(target.Y - e.Y)
	}
	if target != nil && yDiff < TileSize*1.5 {
		chDir := -1
		if target.X > e.X {
			chDir = 1
		}
		e.X += float64(chDir) * e.Speed * 1.6
		e.Dir = chDir
		e.Lunging = true
	} else {
		e.X += float64(e.Dir) * e.Speed
		e.Lunging = false
	}
	if target != nil {
		if target.Y > e.Y+2 {
			e.Y += 0.56
		} else if target.Y < e.Y-2 {
			e.Y -= 0.56
		}
	}
	if e.X <= 0 || e.X >= MapW-TileSize*2 {
		e.Dir = -e.Dir
	}
	e.X = clamp(e.X, 0, MapW-TileSize*2)
	e.Y = clamp(e.Y, 0, MapH-TileSize*2)
}
