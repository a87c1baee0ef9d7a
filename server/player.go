package server

// 玩家运动参数
const (
	playerSpeed    = 3.36  // 每 Tick 基础移动速度（像素）
	diagonalFactor = 0.707 // 斜向移动归一化系数
	moveMargin     = 4     // 移动碰撞盒相对整格的内缩边距
	hitMargin      = 6     // 受击盒内缩边距
	startingLives  = 3
	invulnTicks    = 90 // 受击后的无敌窗口
)

// InputVector 客户端输入意图（四方向布尔），在下一次 Tick 才生效
type InputVector struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Player 对局内的玩家实体（服务端权威状态）
// 仅在开局时为每个已占用的槽位创建一个，回到大厅后整体清空
type Player struct {
	X, Y    float64
	Frame   float64 // 动画相位，移动时递增
	Invuln  int     // 无敌剩余 Tick 数
	Lives   int
	Active  bool
	Bubbled bool // 泡泡状态：免疫敌人接触但不能移动
	Idx     int  // 槽位下标 0..3
	Input   InputVector
}

// spawnOffsets 每个槽位相对出生格的偏移（2x2 排布）：
// 槽 0 原点、槽 1 右移一格、槽 2 上移一格、槽 3 右上各一格
var spawnOffsets = [4]struct{ DX, DY float64 }{
	{0, 0},
	{TileSize, 0},
	{0, -TileSize},
	{TileSize, -TileSize},
}

// hitbox 玩家受击盒（整格内缩 hitMargin）
func (p *Player) hitbox() Rect {
	return Rect{X: p.X + hitMargin, Y: p.Y + hitMargin, W: TileSize - hitMargin*2, H: TileSize - hitMargin*2}
}

// pickupBox 拾取判定盒（比受击盒略宽松）
func (p *Player) pickupBox() Rect {
	return Rect{X: p.X + 4, Y: p.Y + 4, W: 24, H: 24}
}
