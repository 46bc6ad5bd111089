package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams  = orz.NewError(10400, "参数无效")
	ErrTaskRunning    = orz.NewError(10001, "统计任务执行中，请稍后再试")
	ErrLoopRunning    = orz.NewError(10002, "定时同步已在运行")
	ErrLoopNotRunning = orz.NewError(10003, "定时同步未在运行")
	ErrNoAccounts     = orz.NewError(10004, "未配置任何账户")
)
