package server

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局 SugaredLogger；未初始化前是 no-op，测试里可以直接用
var Log = zap.NewNop().Sugar()

// InitLogger 初始化 zap 日志到本地文件（带滚动）
// filePath: 日志文件路径，如 "app.log"
func InitLogger(filePath string) error {
	// 滚动策略：10MB 每文件，保留 3 个备份，最长 7 天
	lj := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   false,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	// 控制台风格便于人读；需要机读可换 zapcore.NewJSONEncoder(encCfg)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(lj), zapcore.InfoLevel)

	Log = zap.New(core, zap.AddCaller()).Sugar()
	return nil
}

// SyncLogger 退出前刷新缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
