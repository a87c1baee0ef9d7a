package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HandleMetrics 输出进程运行指标
// GET /metrics
func (h *Hub) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"rooms":   h.registry.Count(),
		"metrics": h.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleAdminRooms 房间巡检接口（只读）
// GET /admin/rooms            全部房间概要
// GET /admin/rooms?room=CODE  指定房间的完整状态快照
func (h *Hub) HandleAdminRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	if code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("room"))); code != "" {
		room := h.registry.FindRoom(code)
		if room == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(room.Snapshot())
		return
	}

	type roomSummary struct {
		Code    string    `json:"code"`
		State   RoomState `json:"state"`
		Players int       `json:"players"`
		Level   int       `json:"level"`
		Score   int       `json:"score"`
		Frame   int64     `json:"frame"`
	}
	rooms := h.registry.Rooms()
	list := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		list = append(list, roomSummary{
			Code:    room.Code,
			State:   room.State(),
			Players: room.PlayerCount(),
			Level:   room.Level(),
			Score:   room.Score(),
			Frame:   room.Frame(),
		})
	}
	_ = json.NewEncoder(w).Encode(list)
}
