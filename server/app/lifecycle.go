package app

import "context"

// Component 由 App 管理啟停的長生命週期元件（HTTP server、matcher pool runtime）。
//
// Run 阻塞到元件停止；Shutdown 要求停止並應在 ctx 到期前返回。
// App 依註冊的反序呼叫 Shutdown，先停對外服務，再停它依賴的 runtime。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}
