package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyGrid 全空的 20x15 网格
func emptyGrid() [][]int {
	g := make([][]int, Rows)
	for r := range g {
		g[r] = make([]int, Cols)
	}
	return g
}

// eventTypes 提取事件类型列表，便于断言
func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestAddPlayerFillsSlotsInOrder(t *testing.T) {
	r := NewRoom("TEST")
	assert.Equal(t, 0, r.AddPlayer("c1", "A"))
	assert.Equal(t, 1, r.AddPlayer("c2", "B"))
	assert.Equal(t, 2, r.AddPlayer("c3", "C"))
	assert.Equal(t, 3, r.AddPlayer("c4", "D"))
	assert.Equal(t, -1, r.AddPlayer("c5", "E"), "满员返回 -1")
	assert.Equal(t, "c1", r.HostID())
	assert.Equal(t, 4, r.PlayerCount())
}

func TestJoinRejectsFifthPlayer(t *testing.T) {
	r := NewRoom("TEST")
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		idx, err := r.Join(id, "")
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
	_, err := r.Join("c5", "E")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 4, r.PlayerCount(), "拒绝后状态不应被改动")
}

func TestJoinRejectsWhenGameInProgress(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	_, err := r.Join("c2", "B")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestDefaultPlayerNames(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "")
	r.AddPlayer("c2", "")
	roster := r.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, "P1", roster[0].Name)
	assert.Equal(t, "P2", roster[1].Name)
}

func TestRemovePlayerReassignsHost(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.AddPlayer("c3", "C")

	r.RemovePlayer("c1")
	assert.Equal(t, "c2", r.HostID(), "房主移交给槽位最靠前的占用者")
	assert.Equal(t, 2, r.PlayerCount())

	roster := r.Roster()
	require.Len(t, roster, 2)
	assert.True(t, roster[0].IsHost)
	assert.False(t, roster[1].IsHost)
}

func TestRemovePlayerDeactivatesInGameEntity(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.StartGame()

	r.RemovePlayer("c2")
	p := r.playerAtLocked(1)
	require.NotNil(t, p)
	assert.False(t, p.Active)
	assert.Zero(t, p.Lives)
}

func TestStartGameCreatesPlayerPerOccupiedSlot(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.StartGame()

	assert.Equal(t, StatePlaying, r.State())
	assert.Zero(t, r.Score())
	assert.Zero(t, r.Level())
	require.Len(t, r.players, 2)
	for _, p := range r.players {
		assert.Equal(t, startingLives, p.Lives)
		assert.True(t, p.Active)
		assert.False(t, p.Bubbled)
	}
}

func TestLoadLevelSpawnOffsets(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.AddPlayer("c3", "C")
	r.AddPlayer("c4", "D")
	r.StartGame()

	start := TemplateAt(0).PlayerStart
	baseX := float64(start.Col * TileSize)
	baseY := float64(start.Row * TileSize)
	require.Len(t, r.players, 4)
	assert.Equal(t, [2]float64{baseX, baseY}, [2]float64{r.players[0].X, r.players[0].Y})
	assert.Equal(t, [2]float64{baseX + TileSize, baseY}, [2]float64{r.players[1].X, r.players[1].Y})
	assert.Equal(t, [2]float64{baseX, baseY - TileSize}, [2]float64{r.players[2].X, r.players[2].Y})
	assert.Equal(t, [2]float64{baseX + TileSize, baseY - TileSize}, [2]float64{r.players[3].X, r.players[3].Y})
}

func TestSetInputDeferredToTick(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	x := p.X

	r.SetInput("c1", InputVector{Right: true})
	assert.Equal(t, x, p.X, "SetInput 不应立即移动")

	r.enemies = nil
	r.cookies = nil
	r.Tick()
	assert.Equal(t, x+playerSpeed, p.X)
}

func TestSetInputIgnoresUnknownClient(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.SetInput("ghost", InputVector{Right: true})
	r.enemies = nil
	r.cookies = nil
	x := r.players[0].X
	r.Tick()
	assert.Equal(t, x, r.players[0].X)
}

func TestDiagonalMovementNormalized(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.enemies = nil
	r.cookies = nil
	r.grid = emptyGrid()
	p := r.players[0]
	p.X, p.Y = 160, 160
	r.SetInput("c1", InputVector{Right: true, Down: true})

	r.Tick()
	assert.InDelta(t, 160+playerSpeed*diagonalFactor, p.X, 1e-9)
	assert.InDelta(t, 160+playerSpeed*diagonalFactor, p.Y, 1e-9)
}

func TestPlayerBlockedByCoral(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.enemies = nil
	r.cookies = nil
	r.grid = emptyGrid()
	p := r.players[0]
	p.X, p.Y = 4*TileSize, 4*TileSize
	r.grid[4][5] = tileCoral // 正右方

	r.SetInput("c1", InputVector{Right: true})
	for i := 0; i < 30; i++ {
		r.Tick()
	}
	assert.Less(t, p.X, float64(5*TileSize)-float64(TileSize)+moveMargin+1,
		"不能穿进珊瑚格")
	assert.Equal(t, float64(4*TileSize), p.Y)
}

func TestPlayerStaysInBounds(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.enemies = nil
	r.cookies = nil
	r.grid = emptyGrid()
	p := r.players[0]
	p.X, p.Y = 0, 0

	r.SetInput("c1", InputVector{Left: true, Up: true})
	for i := 0; i < 100; i++ {
		r.Tick()
	}
	assert.GreaterOrEqual(t, p.X, 0.0)
	assert.GreaterOrEqual(t, p.Y, 0.0)

	r.SetInput("c1", InputVector{Right: true, Down: true})
	for i := 0; i < 1000; i++ {
		r.Tick()
	}
	assert.LessOrEqual(t, p.X, float64(MapW-TileSize))
	assert.LessOrEqual(t, p.Y, float64(MapH-TileSize))
}

func TestSeaweedBouncesPlayerOutward(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.enemies = nil
	r.cookies = nil
	r.grid = emptyGrid()
	r.grid[5][5] = tileSeaweed
	p := r.players[0]
	// 中心略偏向海藻格左侧，应被向左弹出
	p.X = 5*TileSize - 8
	p.Y = 5 * TileSize

	before := p.X
	r.Tick()
	assert.Less(t, p.X, before)
	assert.Equal(t, float64(5*TileSize), p.Y)
}

func TestCookiePickupTriggersLevelClear(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	r.enemies = nil
	r.cookies = []*Cookie{{Col: tileOf(p.X), Row: tileOf(p.Y)}}

	r.Tick()

	assert.True(t, r.cookies[0].Collected)
	assert.Equal(t, cookieScore+levelClearBase, r.Score(), "吃屑 100 + 过关奖励 500")
	assert.Equal(t, StateLevelClear, r.State())
	assert.Equal(t, levelClearTicks, r.StateTimer())

	types := eventTypes(r.events)
	assert.Contains(t, types, eventCollect)
	assert.Contains(t, types, eventLevelClear)
	for _, ev := range r.events {
		if ev.Type == eventCollect {
			assert.Equal(t, 0, ev.PlayerIdx)
		}
	}
}

func TestCookieNeverUncollects(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	r.enemies = nil
	r.cookies = []*Cookie{
		{Col: tileOf(p.X), Row: tileOf(p.Y)},
		{Col: 18, Row: 1}, // 远处再放一个，避免立即过关
	}

	for i := 0; i < 10; i++ {
		r.Tick()
		assert.True(t, r.cookies[0].Collected)
	}
	assert.Equal(t, StatePlaying, r.State())
}

func TestBabyCrabGrantsLifeAndScore(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	r.enemies = nil
	r.cookies = nil
	r.babyCrab = &BabyCrab{Col: tileOf(p.X), Row: tileOf(p.Y)}

	r.Tick()

	assert.True(t, r.babyCrab.Collected)
	assert.Equal(t, startingLives+1, p.Lives)
	assert.Equal(t, babyCrabScore, r.Score())
	assert.Contains(t, eventTypes(r.events), eventBabyCrab)
}

func TestBabyCrabSpawnsOnEveryFourthLevel(t *testing.T) {
	r := NewRoom("TEST")
	for idx := 0; idx < 8; idx++ {
		r.loadLevelLocked(idx)
		if (idx+1)%4 == 0 {
			require.NotNil(t, r.babyCrab, "第 %d 关应有小螃蟹", idx+1)
			assert.True(t, r.babyCrab.Row >= 1 && r.babyCrab.Row < Rows-2)
			assert.Equal(t, tileEmpty, r.grid[r.babyCrab.Row][r.babyCrab.Col])
			for _, ck := range r.cookies {
				assert.False(t, ck.Col == r.babyCrab.Col && ck.Row == r.babyCrab.Row,
					"小螃蟹不应与收集物同格")
			}
		} else {
			assert.Nil(t, r.babyCrab, "第 %d 关不应有小螃蟹", idx+1)
		}
	}
}

func TestCookiesUnderUrchinsPruned(t *testing.T) {
	// 在第 1 关的一个饼干屑格上临时压一只海胆
	saved := levelTemplates[0].Enemies
	levelTemplates[0].Enemies = append(append([]EnemySpawn(nil), saved...),
		EnemySpawn{Type: EnemyUrchin, Col: 3, Row: 2})
	defer func() { levelTemplates[0].Enemies = saved }()

	r := NewRoom("TEST")
	r.loadLevelLocked(0)
	for _, ck := range r.cookies {
		assert.False(t, ck.Col == 3 && ck.Row == 2, "海胆脚下的饼干屑应被剔除")
	}
}

func TestDifficultyMultiplierPerCatalogPass(t *testing.T) {
	r := NewRoom("TEST")
	n := TemplateCount()

	r.loadLevelLocked(0)
	assert.InDelta(t, 2.24, r.enemies[0].Speed, 1e-9, "第一轮为基础速度")

	r.loadLevelLocked(n)
	assert.InDelta(t, 2.24*1.3, r.enemies[0].Speed, 1e-9, "第二轮 x1.3")

	r.loadLevelLocked(20 * n)
	assert.Equal(t, maxEnemySpeed, r.enemies[0].Speed, "速度封顶 7")
}

func TestTickWhilePausedChangesNothing(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.SetInput("c1", InputVector{Right: true})
	r.TogglePause("c1")
	require.True(t, r.paused)
	assert.Equal(t, 0, r.pausedBy)

	before := r.Snapshot()
	for i := 0; i < 5; i++ {
		r.Tick()
	}
	after := r.Snapshot()

	assert.Equal(t, before.Frame, after.Frame)
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.Players, after.Players)
	assert.Equal(t, before.Enemies, after.Enemies)
	assert.Empty(t, after.Events, "暂停期间只清空事件表")
}

func TestTogglePauseOnlyWhilePlaying(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.TogglePause("c1")
	assert.False(t, r.paused, "大厅状态不能暂停")

	r.StartGame()
	r.TogglePause("c1")
	assert.True(t, r.paused)
	assert.Contains(t, eventTypes(r.events), eventPause)

	r.TogglePause("c1")
	assert.False(t, r.paused)
	assert.Equal(t, -1, r.pausedBy)
	assert.Contains(t, eventTypes(r.events), eventUnpause)
}

func TestToggleBubble(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]

	r.ToggleBubble("c1")
	assert.True(t, p.Bubbled)

	// 入泡后不可移动、不受敌人伤害
	r.grid = emptyGrid()
	r.cookies = nil
	r.enemies = []*Enemy{{Type: EnemyUrchin, X: p.X, Y: p.Y}}
	r.SetInput("c1", InputVector{Right: true})
	x, lives := p.X, p.Lives
	r.Tick()
	assert.Equal(t, x, p.X)
	assert.Equal(t, lives, p.Lives)

	r.ToggleBubble("c1")
	assert.False(t, p.Bubbled)

	// 淘汰后的玩家切泡无效
	p.Active = false
	r.ToggleBubble("c1")
	assert.False(t, p.Bubbled)
}

func TestUrchinContactCausesGameOver(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	p.Lives = 1
	r.cookies = nil
	r.enemies = []*Enemy{{Type: EnemyUrchin, X: p.X, Y: p.Y}}

	r.Tick()

	assert.False(t, p.Active)
	assert.Zero(t, p.Lives)
	assert.Equal(t, StateGameOver, r.State())
	assert.Equal(t, gameOverTicks, r.StateTimer())
	types := eventTypes(r.events)
	assert.Contains(t, types, eventHit)
	assert.Contains(t, types, eventGameOver)
}

func TestPlayerHitGrantsInvulnWindow(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	r.cookies = nil
	r.enemies = []*Enemy{{Type: EnemyUrchin, X: p.X, Y: p.Y}}

	r.Tick()
	assert.Equal(t, startingLives-1, p.Lives)
	assert.Equal(t, invulnTicks, p.Invuln)
	assert.True(t, p.Active)

	// 无敌期内持续接触不再掉命
	r.Tick()
	assert.Equal(t, startingLives-1, p.Lives)
}

func TestGameOverOnlyWhenAllInactive(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.StartGame()
	p0, p1 := r.players[0], r.players[1]
	r.cookies = nil
	p0.Lives = 1
	p1.X, p1.Y = 300, 100 // 拉开距离避免一起被打
	r.enemies = []*Enemy{{Type: EnemyUrchin, X: p0.X, Y: p0.Y}}

	r.Tick()
	assert.False(t, p0.Active)
	assert.True(t, p1.Active)
	assert.Equal(t, StatePlaying, r.State(), "还有存活玩家时不进终局")

	p1.Lives = 1
	r.enemies = []*Enemy{{Type: EnemyUrchin, X: p1.X, Y: p1.Y}}
	r.Tick()
	assert.Equal(t, StateGameOver, r.State())
}

func TestLevelClearCountdownAdvancesLevel(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.state = StateLevelClear
	r.stateTimer = 2

	r.Tick()
	assert.Equal(t, StateLevelClear, r.State())
	r.Tick()
	assert.Equal(t, StatePlaying, r.State())
	assert.Equal(t, 1, r.Level())
}

func TestLevelClearOnLastLevelWins(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.level = TemplateCount() - 1
	r.state = StateLevelClear
	r.stateTimer = 1

	r.Tick()
	assert.Equal(t, StateWin, r.State())
	assert.Equal(t, winTicks, r.StateTimer())
}

func TestDyingCountdownReloadsLevel(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	p.X, p.Y = 300, 300
	r.state = StateDying
	r.stateTimer = 1

	r.Tick()
	assert.Equal(t, StatePlaying, r.State())
	start := TemplateAt(0).PlayerStart
	assert.Equal(t, float64(start.Col*TileSize), p.X, "重载后玩家回到出生点")
}

func TestGameOverTimerStopsAtZero(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.state = StateGameOver
	r.stateTimer = 2

	for i := 0; i < 5; i++ {
		r.Tick()
	}
	assert.Zero(t, r.StateTimer())
	assert.Equal(t, StateGameOver, r.State())
}

func TestStopGameReturnsToLobby(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	r.StopGame()
	assert.Equal(t, StateLobby, r.State())
	assert.Empty(t, r.players)

	r.StopGame() // 幂等
	assert.Equal(t, StateLobby, r.State())
}

func TestFindNearestPlayerTieBreakBySlotOrder(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.StartGame()
	p0, p1 := r.players[0], r.players[1]
	p0.X, p0.Y = 100, 0
	p1.X, p1.Y = 0, 100

	assert.Same(t, p0, r.findNearestPlayer(0, 0), "等距时槽位靠前者优先")

	p0.Bubbled = true
	assert.Same(t, p1, r.findNearestPlayer(0, 0), "入泡玩家不作为索敌目标")

	p1.Active = false
	assert.Nil(t, r.findNearestPlayer(0, 0))
}

func TestSnapshotRoundsAndCopies(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.StartGame()
	p := r.players[0]
	p.X = 123.456

	s := r.Snapshot()
	require.Len(t, s.Players, 1)
	assert.Equal(t, 123.5, s.Players[0].X, "坐标保留一位小数")

	// 快照持有副本：改快照不影响内部状态
	s.Grid[0][0] = 9
	assert.NotEqual(t, 9, r.grid[0][0])
	s.Cookies[0].Collected = true
	assert.False(t, r.cookies[0].Collected)
}

func TestJoinGrabsHostWhenSlotZeroFreed(t *testing.T) {
	r := NewRoom("TEST")
	r.AddPlayer("c1", "A")
	r.AddPlayer("c2", "B")
	r.RemovePlayer("c1")
	require.Equal(t, "c2", r.HostID())

	// 槽位 0 再次被占用时房主随之易主（与线上行为保持一致）
	idx, err := r.Join("c3", "C")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "c3", r.HostID())
}
