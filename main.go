package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"crabbreak/server"
)

// Crab Breakthrough 权威服务器入口：HTTP + WebSocket，多房间协同闯关
func main() {
	var addr, logPath string
	flag.StringVar(&addr, "addr", ":3000", "server listen address, e.g. :3000")
	flag.StringVar(&logPath, "log", "app.log", "log file path")
	flag.Parse()

	if err := server.InitLogger(logPath); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	registry := server.NewRegistry()
	hub := server.NewHub(registry)
	hub.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/metrics", hub.HandleMetrics)
	mux.HandleFunc("/admin/rooms", hub.HandleAdminRooms)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("crab breakthrough server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	hub.Shutdown()
}
