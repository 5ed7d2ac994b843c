package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBufferSize = 1000

var (
	instance *Logger
	once     sync.Once
	initMu   sync.Mutex
)

type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// Config selects where the file sink writes and how verbose it is.
type Config struct {
	Path  string
	Level string
}

type Logger struct {
	file    *os.File
	zl      *zap.Logger
	mu      sync.Mutex
	buffer  []LogEntry
	enabled bool
}

func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		if cfg.Path == "" {
			return
		}

		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = fmt.Errorf("failed to open log file: %w", err)
			return
		}

		initMu.Lock()
		defer initMu.Unlock()
		instance = &Logger{
			file:    file,
			zl:      newZap(file, cfg.Level),
			buffer:  make([]LogEntry, 0, maxBufferSize),
			enabled: true,
		}
	})

	EnsureInit()
	return initErr
}

func newZap(file *os.File, level string) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(file),
		zap.NewAtomicLevelAt(parseLevel(level)),
	)
	return zap.New(core)
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func EnsureInit() {
	initMu.Lock()
	defer initMu.Unlock()
	if instance == nil {
		instance = &Logger{
			buffer:  make([]LogEntry, 0, maxBufferSize),
			enabled: false,
		}
	}
}

func Close() error {
	if instance == nil {
		return nil
	}
	if instance.zl != nil {
		_ = instance.zl.Sync()
	}
	if instance.file != nil {
		return instance.file.Close()
	}
	return nil
}

func addToBuffer(message string) {
	EnsureInit()
	instance.mu.Lock()
	defer instance.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Message:   message,
	}

	if len(instance.buffer) >= maxBufferSize {
		instance.buffer = instance.buffer[1:]
	}
	instance.buffer = append(instance.buffer, entry)
}

func GetLogs() []LogEntry {
	EnsureInit()
	instance.mu.Lock()
	defer instance.mu.Unlock()

	logs := make([]LogEntry, len(instance.buffer))
	copy(logs, instance.buffer)
	return logs
}

func write(level zapcore.Level, message string, fields ...zap.Field) {
	if instance == nil || !instance.enabled || instance.zl == nil {
		return
	}
	if ce := instance.zl.Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}

func LogFileOpen(path string) {
	message := fmt.Sprintf("[FILE_OPEN] %s", path)
	addToBuffer(message)
	write(zapcore.DebugLevel, "file open", zap.String("path", path))
}

func LogFileWrite(path string) {
	message := fmt.Sprintf("[FILE_WRITE] %s", path)
	addToBuffer(message)
	write(zapcore.DebugLevel, "file write", zap.String("path", path))
}

func LogError(operation, target string, err error) {
	message := fmt.Sprintf("[ERROR] %s: %s - %v", operation, target, err)
	addToBuffer(message)
	write(zapcore.ErrorLevel, operation, zap.String("target", target), zap.Error(err))
}

func Log(message string, args ...interface{}) {
	formatted := fmt.Sprintf(message, args...)
	addToBuffer("[INFO] " + formatted)
	write(zapcore.InfoLevel, formatted)
}

func Debug(message string, args ...interface{}) {
	formatted := fmt.Sprintf(message, args...)
	addToBuffer("[DEBUG] " + formatted)
	write(zapcore.DebugLevel, formatted)
}
