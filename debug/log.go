package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.Mutex
	file     *os.File
	base     = zap.NewNop()
	sugar    = base.Sugar()
	enabled  bool
	counters = make(map[string]int)
)

// DefaultPath is ~/.config/go-pianoroll/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-pianoroll", "debug.log")
}

// Enable starts debug logging to path (DefaultPath when empty). The file is
// truncated on every start.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("debug log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("debug log: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zap.DebugLevel)

	file = f
	setLocked(zap.New(core))
	sugar.Named("debug").Debug("=== Debug logging started ===")
	return nil
}

// Disable stops debug logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if file != nil {
		file.Close()
		file = nil
	}
	base = zap.NewNop()
	sugar = base.Sugar()
	enabled = false
}

// SetLogger routes debug output to l. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		base = zap.NewNop()
		sugar = base.Sugar()
		enabled = false
		return
	}
	setLocked(l)
}

func setLocked(l *zap.Logger) {
	base = l
	sugar = l.Sugar()
	enabled = true
}

// Enabled reports whether logging is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Logger returns the underlying logger for structured fields. It is a no-op
// logger while disabled.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// Log writes a message to the debug log under category
func Log(category, format string, args ...any) {
	mu.Lock()
	s, on := sugar, enabled
	mu.Unlock()

	if !on {
		return
	}
	s.Named(category).Debugf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
