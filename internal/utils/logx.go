package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogxManager struct {
	basePath string
	logger   *zap.Logger
	mu       sync.Mutex
}

var defaultManager = NewManager("")

// Setup points the package-level log functions at basePath. An empty
// basePath keeps everything on stdout.
func Setup(basePath string) {
	defaultManager = NewManager(basePath)
}

func NewManager(base string) *LogxManager {
	m := &LogxManager{basePath: base}
	if m.basePath != "" {
		if err := os.MkdirAll(m.basePath, 0744); err != nil {
			log.Printf("failed to create base log dir %s: %v", m.basePath, err)
			m.basePath = ""
		}
	}
	return m
}

func (m *LogxManager) getLogger() *zap.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logger != nil {
		return m.logger
	}

	encCfg := zapcore.EncoderConfig{MessageKey: "msg", LineEnding: zapcore.DefaultLineEnding}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	if m.basePath == "" {
		out := zapcore.AddSync(os.Stdout)
		m.logger = zap.New(zapcore.NewCore(encoder, out, zapcore.DebugLevel))
		return m.logger
	}

	infoOut := zapcore.AddSync(m.openLogFile(filepath.Join(m.basePath, "scan.log")))
	errorOut := zapcore.AddSync(m.openLogFile(filepath.Join(m.basePath, "error.log")))
	dbgOut := zapcore.AddSync(m.openLogFile(filepath.Join(m.basePath, "debug.log")))

	infoLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == zapcore.InfoLevel })
	errLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	dbgLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == zapcore.DebugLevel })

	tee := zapcore.NewTee(
		zapcore.NewCore(encoder, infoOut, infoLv),
		zapcore.NewCore(encoder, errorOut, errLv),
		zapcore.NewCore(encoder, dbgOut, dbgLv),
	)
	m.logger = zap.New(tee)
	return m.logger
}

func (m *LogxManager) openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", path, err)
		return os.Stdout
	}
	return f
}

func (m *LogxManager) format(stage, msg string) string {
	return fmt.Sprintf("[%s] %s %s", time.Now().Format("02/Jan/2006:15:04:05 -0700"), stage, msg)
}

func (m *LogxManager) LogInfo(stage, msg string) {
	m.getLogger().Info(m.format(stage, msg))
}

func (m *LogxManager) LogError(stage, msg string) {
	m.getLogger().Error(m.format(stage, msg))
}

func (m *LogxManager) LogDebug(stage, msg string) {
	m.getLogger().Debug(m.format(stage, msg))
}

func LogInfo(stage, msg string)  { defaultManager.LogInfo(stage, msg) }
func LogError(stage, msg string) { defaultManager.LogError(stage, msg) }
func LogDebug(stage, msg string) { defaultManager.LogDebug(stage, msg) }
