package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnInfo 一条连接的会话状态：客户端标识、所在房间与槽位
type ConnInfo struct {
	ID        string
	RoomCode  string
	PlayerIdx int
}

// Hub 连接协调层：维护连接 ↔ 房间映射，分发控制消息，
// 驱动每个已开局房间的 Tick 循环并广播快照
type Hub struct {
	registry *Registry
	metrics  *ServerMetrics

	mu      sync.Mutex
	clients map[*ClientConn]*ConnInfo
	drivers map[string]*roomDriver
}

// NewHub 创建协调层；注册表由调用方构造并交由 Hub 持有
func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		metrics:  &ServerMetrics{},
		clients:  make(map[*ClientConn]*ConnInfo),
		drivers:  make(map[string]*roomDriver),
	}
}

// Start 启动后台任务（空闲房间清理）
func (h *Hub) Start() {
	h.registry.StartSweeper(func(room *Room) {
		h.stopDriver(room.Code)
	})
}

// Shutdown 停掉清理任务与全部房间驱动
func (h *Hub) Shutdown() {
	h.registry.Stop()
	h.mu.Lock()
	drivers := make([]*roomDriver, 0, len(h.drivers))
	for _, d := range h.drivers {
		drivers = append(drivers, d)
	}
	h.drivers = make(map[string]*roomDriver)
	h.mu.Unlock()
	for _, d := range drivers {
		d.halt()
	}
}

// Metrics 运行指标
func (h *Hub) Metrics() *ServerMetrics { return h.metrics }

// ClientConn 单条 WebSocket 连接的收发包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
}

func newClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 非阻塞入队；队列满则丢弃，保证 Tick 不被慢客户端拖住
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

// enqueueJSON 序列化后入队；编码失败直接丢弃
func (c *ClientConn) enqueueJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Enqueue(b)
}

// 心跳参数：读超时必须大于 ping 周期，静默但在线的客户端靠 pong 续期
var (
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
)

// writePump 独立协程：从发送队列写出到 WS，并定期发 ping 保活
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取并分发入站消息；连接断开时走统一的离场清理
func (c *ClientConn) readPump(h *Hub) {
	defer h.dropClient(c)
	c.ws.SetReadLimit(1 << 20) // 1MB
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(c, payload)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 客户端与服务端分开部署，放开来源校验
		return true
	},
}

// HandleWS WebSocket 接入点：每条连接分配一个不透明的客户端标识
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	c := newClientConn(ws)
	h.mu.Lock()
	h.clients[c] = &ConnInfo{ID: uuid.NewString(), PlayerIdx: -1}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(h)
}

// handleMessage 边界解码：先取 type，再按类型显式解码载荷
// 格式错误或类型未知的消息静默丢弃
func (h *Hub) handleMessage(c *ClientConn, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.metrics.IncDropped()
		return
	}

	switch env.Type {
	case msgCreateRoom:
		var m createRoomMsg
		if err := json.Unmarshal(payload, &m); err != nil {
			h.metrics.IncDropped()
			return
		}
		h.handleCreateRoom(c, m)
	case msgJoinRoom:
		var m joinRoomMsg
		if err := json.Unmarshal(payload, &m); err != nil {
			h.metrics.IncDropped()
			return
		}
		h.handleJoinRoom(c, m)
	case msgStartGame:
		h.handleStartGame(c)
	case msgInput:
		var m inputMsg
		if err := json.Unmarshal(payload, &m); err != nil {
			h.metrics.IncDropped()
			return
		}
		h.handleInput(c, m)
	case msgBubble:
		h.handleBubble(c)
	case msgPause:
		h.handlePause(c)
	case msgLeave:
		h.leaveRoom(c)
	case msgRestart:
		h.handleRestart(c)
	default:
		h.metrics.IncDropped()
	}
}

func (h *Hub) info(c *ClientConn) *ConnInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[c]
}

// currentRoom 解析连接当前所在的房间，未入房返回 nil
func (h *Hub) currentRoom(c *ClientConn) (*Room, *ConnInfo) {
	info := h.info(c)
	if info == nil || info.RoomCode == "" {
		return nil, info
	}
	return h.registry.FindRoom(info.RoomCode), info
}

func (h *Hub) handleCreateRoom(c *ClientConn, m createRoomMsg) {
	info := h.info(c)
	if info == nil {
		return
	}
	if info.RoomCode != "" {
		h.leaveRoom(c)
	}

	name := m.Name
	if name == "" {
		name = "HOST"
	}
	room := h.registry.CreateRoom()
	idx := room.AddPlayer(info.ID, name)

	h.mu.Lock()
	info.RoomCode = room.Code
	info.PlayerIdx = idx
	h.mu.Unlock()

	h.metrics.IncRoomCreated()
	c.enqueueJSON(roomCreatedMsg{
		Type:      "room_created",
		Code:      room.Code,
		PlayerIdx: idx,
		Players:   room.Roster(),
	})
	Log.Infof("room %s created by %s", room.Code, name)
}

func (h *Hub) handleJoinRoom(c *ClientConn, m joinRoomMsg) {
	info := h.info(c)
	if info == nil {
		return
	}
	if info.RoomCode != "" {
		h.leaveRoom(c)
	}

	code := strings.ToUpper(strings.TrimSpace(m.Code))
	room := h.registry.FindRoom(code)
	if room == nil {
		c.enqueueJSON(errMsg("Room not found"))
		return
	}

	name := m.Name
	if name == "" {
		name = "GUEST"
	}
	idx, err := room.Join(info.ID, name)
	if err != nil {
		c.enqueueJSON(errMsg(err.Error()))
		return
	}

	h.mu.Lock()
	info.RoomCode = code
	info.PlayerIdx = idx
	h.mu.Unlock()

	c.enqueueJSON(roomJoinedMsg{
		Type:      "room_joined",
		Code:      code,
		PlayerIdx: idx,
		Players:   room.Roster(),
	})
	h.broadcastToRoom(code, playerJoinedMsg{
		Type:      "player_joined",
		PlayerIdx: idx,
		Name:      name,
		Players:   room.Roster(),
	}, c)
	Log.Infof("%s joined room %s as P%d", name, code, idx+1)
}

func (h *Hub) handleStartGame(c *ClientConn) {
	room, info := h.currentRoom(c)
	if room == nil {
		return
	}
	if room.HostID() != info.ID {
		c.enqueueJSON(errMsg("Only the host can start"))
		return
	}
	if room.State() != StateLobby {
		return
	}

	room.StartGame()
	h.broadcastToRoom(room.Code, gameStartedMsg{
		Type:  "game_started",
		State: room.Snapshot(),
	}, nil)
	h.startDriver(room)
	Log.Infof("room %s game started", room.Code)
}

func (h *Hub) handleInput(c *ClientConn, m inputMsg) {
	room, info := h.currentRoom(c)
	if room == nil || room.State() != StatePlaying {
		return
	}
	room.SetInput(info.ID, InputVector{Up: m.Up, Down: m.Down, Left: m.Left, Right: m.Right})
	h.metrics.IncInputApplied()
}

func (h *Hub) handleBubble(c *ClientConn) {
	room, info := h.currentRoom(c)
	if room == nil || room.State() != StatePlaying {
		return
	}
	room.ToggleBubble(info.ID)
}

func (h *Hub) handlePause(c *ClientConn) {
	room, info := h.currentRoom(c)
	if room == nil {
		return
	}
	room.TogglePause(info.ID)
}

func (h *Hub) handleRestart(c *ClientConn) {
	room, info := h.currentRoom(c)
	if room == nil {
		return
	}
	if room.HostID() != info.ID {
		c.enqueueJSON(errMsg("Only the host can restart"))
		return
	}
	if room.State() == StateLobby {
		return
	}

	finalScore := room.Score()
	h.stopDriver(room.Code)
	room.StopGame()
	h.broadcastToRoom(room.Code, gameEndedMsg{
		Type:       "game_ended",
		FinalScore: finalScore,
		Players:    room.Roster(),
	}, nil)
}

// leaveRoom 连接离场的统一收口：释放槽位、必要时移交房主、
// 空房即删、场上无人存活则终止对局
func (h *Hub) leaveRoom(c *ClientConn) {
	h.mu.Lock()
	info := h.clients[c]
	if info == nil || info.RoomCode == "" {
		h.mu.Unlock()
		return
	}
	code := info.RoomCode
	prevIdx := info.PlayerIdx
	info.RoomCode = ""
	info.PlayerIdx = -1
	h.mu.Unlock()

	room := h.registry.FindRoom(code)
	if room == nil {
		return
	}

	wasHost := room.HostID() == info.ID
	room.RemovePlayer(info.ID)

	if room.IsEmpty() {
		h.stopDriver(code)
		room.StopGame()
		h.registry.RemoveRoom(code)
		Log.Infof("room %s deleted (last player left)", code)
		return
	}

	h.broadcastToRoom(code, playerLeftMsg{
		Type:      "player_left",
		PlayerIdx: prevIdx,
		Players:   room.Roster(),
		HostLeft:  wasHost,
	}, nil)

	if wasHost {
		h.notifyNewHost(room.HostID())
	}

	if room.State() != StateLobby && room.AllPlayersInactive() {
		finalScore := room.Score()
		h.stopDriver(code)
		room.StopGame()
		h.broadcastToRoom(code, gameEndedMsg{
			Type:       "game_ended",
			FinalScore: finalScore,
			Players:    room.Roster(),
		}, nil)
	}
}

// notifyNewHost 给接任房主的那条连接单发 you_are_host
func (h *Hub) notifyNewHost(newHostID string) {
	if newHostID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c, info := range h.clients {
		if info.ID == newHostID {
			c.enqueueJSON(youAreHostMsg{Type: "you_are_host"})
			return
		}
	}
}

// dropClient 连接断开：先按正常离场处理，再移除映射并关闭连接
func (h *Hub) dropClient(c *ClientConn) {
	h.leaveRoom(c)
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (c *ClientConn) close() {
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
	_ = c.ws.Close()
}

// broadcastToRoom 向房间内全部连接（可排除一条）发送同一消息
func (h *Hub) broadcastToRoom(code string, msg any, exclude *ClientConn) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c, info := range h.clients {
		if info.RoomCode == code && c != exclude {
			c.Enqueue(b)
		}
	}
}
