package server

// 入站控制消息类型（封闭集合，未知类型一律丢弃）
const (
	msgCreateRoom = "create_room"
	msgJoinRoom   = "join_room"
	msgStartGame  = "start_game"
	msgInput      = "input"
	msgBubble     = "bubble"
	msgPause      = "pause"
	msgLeave      = "leave"
	msgRestart    = "restart"
)

// envelope 只取 type 字段，随后按类型显式解码具体载荷
type envelope struct {
	Type string `json:"type"`
}

// 各类型的入站载荷（字段与 type 平铺在同一 JSON 对象里）
type createRoomMsg struct {
	Name string `json:"name"`
}

type joinRoomMsg struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type inputMsg struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// ---- 出站消息 ----

type roomCreatedMsg struct {
	Type      string        `json:"type"`
	Code      string        `json:"code"`
	PlayerIdx int           `json:"playerIdx"`
	Players   []RosterEntry `json:"players"`
}

type roomJoinedMsg struct {
	Type      string        `json:"type"`
	Code      string        `json:"code"`
	PlayerIdx int           `json:"playerIdx"`
	Players   []RosterEntry `json:"players"`
}

type playerJoinedMsg struct {
	Type      string        `json:"type"`
	PlayerIdx int           `json:"playerIdx"`
	Name      string        `json:"name"`
	Players   []RosterEntry `json:"players"`
}

type playerLeftMsg struct {
	Type      string        `json:"type"`
	PlayerIdx int           `json:"playerIdx"`
	Players   []RosterEntry `json:"players"`
	HostLeft  bool          `json:"hostLeft"`
}

type youAreHostMsg struct {
	Type string `json:"type"`
}

type gameStartedMsg struct {
	Type  string   `json:"type"`
	State Snapshot `json:"state"`
}

// stateMsg 周期性状态广播：type 字段与快照字段平铺
type stateMsg struct {
	Type string `json:"type"`
	Snapshot
}

type gameEndedMsg struct {
	Type       string        `json:"type"`
	FinalScore int           `json:"finalScore"`
	Players    []RosterEntry `json:"players"`
}

type errorMsg struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func errMsg(text string) errorMsg {
	return errorMsg{Type: "error", Msg: text}
}
