package server

// 地图与世界尺寸常量：20x15 的格子，每格 32 像素
const (
	TileSize = 32
	Cols     = 20
	Rows     = 15
	MapW     = Cols * TileSize // 640
	MapH     = Rows * TileSize // 480
)

// 格子类型：0 空、1 珊瑚（实心障碍）、2 海藻（弹开）、3 饼干屑（加载时转为收集物）
const (
	tileEmpty   = 0
	tileCoral   = 1
	tileSeaweed = 2
	tileCrumb   = 3
)

// TileCoord 地图格子坐标
type TileCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// EnemySpawn 关卡模板中的敌人出生点（类型、格子位置、初始横向方向）
type EnemySpawn struct {
	Type EnemyType
	Col  int
	Row  int
	Dir  int
}

// LevelTemplate 关卡静态模板：行字符串地图 + 敌人列表 + 玩家出生格
// 模板只读，加载关卡时复制出可变网格
type LevelTemplate struct {
	Map         []string
	Enemies     []EnemySpawn
	PlayerStart TileCoord
}

// TemplateCount 返回关卡模板总数
func TemplateCount() int { return len(levelTemplates) }

// TemplateAt 取第 idx 关模板（对总数取模，关卡无限循环）
func TemplateAt(idx int) *LevelTemplate {
	return &levelTemplates[idx%len(levelTemplates)]
}

var levelTemplates = []LevelTemplate{
	// 第 1 关
	{
		Map: []string{
			"00000000000000000000",
			"00000000000000000000",
			"00030003000030000300",
			"00000000000000000000",
			"01000200010002000100",
			"00000000000000000000",
			"00030003000030000300",
			"00000000000000000000",
			"00200100020001000020",
			"00000000000000000000",
			"00030003000030000300",
			"00000000000000000000",
			"00000100000002000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 15, Row: 3, Dir: -1},
			{Type: EnemyStingray, Col: 5, Row: 7, Dir: 1},
		},
		PlayerStart: TileCoord{Col: 1, Row: 13},
	},
	// 第 2 关
	{
		Map: []string{
			"00000000000000000000",
			"00300030003000300030",
			"01000010000100001000",
			"00000000000000000000",
			"00030003000300030003",
			"00001002000020010000",
			"00000000000000000000",
			"03000300030003000300",
			"00020001000010020000",
			"00000000000000000000",
			"00300030003000300030",
			"01000100000001000100",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 18, Row: 2, Dir: -1},
			{Type: EnemyShark, Col: 2, Row: 8, Dir: 1},
			{Type: EnemyStingray, Col: 10, Row: 5, Dir: 1},
			{Type: EnemyPorcupinefish, Col: 14, Row: 10, Dir: -1},
		},
		PlayerStart: TileCoord{Col: 0, Row: 13},
	},
	// 第 3 关
	{
		Map: []string{
			"00000000000000000000",
			"03020300030203000302",
			"00010000010000010000",
			"03000300030003000300",
			"00000100000001000000",
			"00300030003000300030",
			"02000020000200002000",
			"03000300030003000300",
			"00010000010000010000",
			"00300030003000300030",
			"00000200000002000000",
			"03020300030203000300",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 17, Row: 1, Dir: -1},
			{Type: EnemyShark, Col: 3, Row: 6, Dir: 1},
			{Type: EnemyStingray, Col: 10, Row: 3, Dir: -1},
			{Type: EnemyStingray, Col: 8, Row: 9, Dir: 1},
			{Type: EnemyPorcupinefish, Col: 15, Row: 5, Dir: -1},
			{Type: EnemyPorcupinefish, Col: 5, Row: 11, Dir: 1},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 4 关
	{
		Map: []string{
			"00000000000000000000",
			"03010301030103010301",
			"00000000000000000000",
			"00200030002000300020",
			"00000000000000000000",
			"01030103010301030103",
			"00000000000000000000",
			"00300020003000200030",
			"00000000000000000000",
			"03010301030103010301",
			"00000000000000000000",
			"00200030002000300020",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 18, Row: 2, Dir: -1},
			{Type: EnemyShark, Col: 1, Row: 8, Dir: 1},
			{Type: EnemyStingray, Col: 6, Row: 4, Dir: 1},
			{Type: EnemyPorcupinefish, Col: 10, Row: 1, Dir: 1},
			{Type: EnemyUrchin, Col: 5, Row: 5},
			{Type: EnemyUrchin, Col: 14, Row: 5},
			{Type: EnemyUrchin, Col: 9, Row: 9},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 5 关
	{
		Map: []string{
			"00000000000000000000",
			"03000300030003000300",
			"00020002000200020002",
			"03000300030003000300",
			"00010001000100010001",
			"00300030003000300030",
			"02000200020002000200",
			"00300030003000300030",
			"01000100010001000100",
			"03000300030003000300",
			"00020002000200020002",
			"03000300030003000300",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 0, Row: 2, Dir: 1},
			{Type: EnemyShark, Col: 19, Row: 8, Dir: -1},
			{Type: EnemyStingray, Col: 14, Row: 5, Dir: -1},
			{Type: EnemyUrchin, Col: 10, Row: 4},
			{Type: EnemyUrchin, Col: 10, Row: 8},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 6 关
	{
		Map: []string{
			"00000000000000000000",
			"03020103020103020103",
			"01000200010002000100",
			"03000300030003000300",
			"00020100020001000200",
			"00300030003000300030",
			"01000200010002000100",
			"03020103020103020103",
			"00010000010000010000",
			"00300030003000300030",
			"02000100020001000200",
			"03020103020103020103",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 0, Row: 2, Dir: 1},
			{Type: EnemyShark, Col: 19, Row: 6, Dir: -1},
			{Type: EnemyStingray, Col: 8, Row: 7, Dir: 1},
			{Type: EnemyPenguin, Col: 5, Row: 3, Dir: 1},
			{Type: EnemyPenguin, Col: 15, Row: 9, Dir: -1},
			{Type: EnemyUrchin, Col: 10, Row: 5},
			{Type: EnemyUrchin, Col: 10, Row: 9},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 7 关
	{
		Map: []string{
			"00000000000000000000",
			"03000030000300003000",
			"00100010001000100010",
			"00030000030000030000",
			"02000020000200002000",
			"00003000003000003000",
			"00100010001000100010",
			"03000030000300003000",
			"00002000002000002000",
			"00030000030000030000",
			"01000010001000100010",
			"00300003000030000300",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 17, Row: 1, Dir: -1},
			{Type: EnemyShark, Col: 3, Row: 7, Dir: 1},
			{Type: EnemyUrchin, Col: 5, Row: 3},
			{Type: EnemyUrchin, Col: 14, Row: 3},
			{Type: EnemyUrchin, Col: 9, Row: 6},
			{Type: EnemyUrchin, Col: 5, Row: 9},
			{Type: EnemyUrchin, Col: 14, Row: 9},
			{Type: EnemyPenguin, Col: 8, Row: 1, Dir: 1},
		},
		PlayerStart: TileCoord{Col: 0, Row: 13},
	},
	// 第 8 关
	{
		Map: []string{
			"00000000000000000000",
			"03010300030103000301",
			"00000200000002000000",
			"00300030003000300030",
			"01000010000100001000",
			"03020300030203000302",
			"00000000000000000000",
			"00300030003000300030",
			"02000100020001000200",
			"03000300030003000300",
			"00010200000002010000",
			"00300030003000300030",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 18, Row: 3, Dir: -1},
			{Type: EnemyShark, Col: 1, Row: 9, Dir: 1},
			{Type: EnemyPenguin, Col: 3, Row: 1, Dir: 1},
			{Type: EnemyPenguin, Col: 16, Row: 1, Dir: -1},
			{Type: EnemyPenguin, Col: 10, Row: 5, Dir: 1},
			{Type: EnemyPenguin, Col: 7, Row: 9, Dir: -1},
			{Type: EnemyUrchin, Col: 10, Row: 2},
			{Type: EnemyUrchin, Col: 10, Row: 8},
			{Type: EnemyPorcupinefish, Col: 4, Row: 11, Dir: 1},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 9 关
	{
		Map: []string{
			"00000000000000000000",
			"03010201030102010301",
			"00200100020001000020",
			"03000300030003000300",
			"01020001000010020100",
			"00300030003000300030",
			"02010200020102000201",
			"03000300030003000300",
			"00100020001000200010",
			"00300030003000300030",
			"01000102000020100001",
			"03020103020103020103",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyShark, Col: 0, Row: 2, Dir: 1},
			{Type: EnemyShark, Col: 19, Row: 8, Dir: -1},
			{Type: EnemyStingray, Col: 5, Row: 4, Dir: 1},
			{Type: EnemyStingray, Col: 14, Row: 10, Dir: -1},
			{Type: EnemyPenguin, Col: 3, Row: 1, Dir: 1},
			{Type: EnemyPenguin, Col: 16, Row: 6, Dir: -1},
			{Type: EnemyPenguin, Col: 10, Row: 10, Dir: 1},
			{Type: EnemyPorcupinefish, Col: 6, Row: 6, Dir: 1},
			{Type: EnemyUrchin, Col: 10, Row: 5},
			{Type: EnemyUrchin, Col: 4, Row: 9},
			{Type: EnemyUrchin, Col: 16, Row: 9},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
	// 第 10 关 —— 巨齿鲨 BOSS
	{
		Map: []string{
			"00000000000000000000",
			"00300030003000300030",
			"00000000000000000000",
			"03000300030003000300",
			"00010000000000010000",
			"00300030003000300030",
			"00000000000000000000",
			"03000300030003000300",
			"00000100000001000000",
			"00300030003000300030",
			"00000000000000000000",
			"03000300030003000300",
			"00000000000000000000",
			"00000000000000000000",
			"00000000000000000000",
		},
		Enemies: []EnemySpawn{
			{Type: EnemyMegalodon, Col: 8, Row: 2, Dir: -1},
			{Type: EnemyShark, Col: 0, Row: 6, Dir: 1},
			{Type: EnemyShark, Col: 19, Row: 10, Dir: -1},
			{Type: EnemyPenguin, Col: 4, Row: 4, Dir: 1},
			{Type: EnemyPenguin, Col: 15, Row: 8, Dir: -1},
			{Type: EnemyUrchin, Col: 6, Row: 6},
			{Type: EnemyUrchin, Col: 13, Row: 6},
			{Type: EnemyStingray, Col: 10, Row: 10, Dir: 1},
		},
		PlayerStart: TileCoord{Col: 10, Row: 13},
	},
}
