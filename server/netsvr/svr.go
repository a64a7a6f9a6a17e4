package netsvr

import (
	"net/http"

	"github.com/zintix-labs/pairlab/server/app"
)

// NetSvr 可註冊路由、也可交給 app.App 啟停的 HTTP server。只有 server.Run 持有它。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只有路由能力；api 套件與 Group 回呼拿到的都是它，碰不到 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	// Handle 不限 method（/metrics 這類現成的 http.Handler）
	Handle(path string, h http.Handler)

	Group(path string, fn func(NetRouter))
}
