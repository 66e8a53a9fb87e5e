package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stratboard/server"
)

// StratBoard 入口：启动 HTTP + WebSocket 服务，并初始化房间注册表
func main() {
	var (
		addr    string
		logFile string
		webDir  string
	)
	flag.StringVar(&addr, "addr", ":3001", "server listen address, e.g. :3001")
	flag.StringVar(&logFile, "log", "app.log", "log file path")
	flag.StringVar(&webDir, "web", "web", "static assets directory")
	flag.Parse()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(logFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	reg := server.NewRoomRegistry(server.DefaultSettings())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.NewWSHandler(reg))
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir(webDir)))
	// 管理与监控接口
	mux.HandleFunc("/admin/settings", server.HandleAdminSettings(reg))
	mux.HandleFunc("/admin/rooms", server.HandleAdminRooms(reg))
	mux.HandleFunc("/metrics", server.HandleMetrics(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("StratBoard listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
}
