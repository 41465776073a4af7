package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) color() string {
	switch l {
	case DEBUG:
		return colorGray
	case INFO:
		return colorBlue
	case WARN:
		return colorYellow
	case ERROR:
		return colorRed
	case FATAL:
		return colorPurple
	default:
		return colorWhite
	}
}

type leveledLogger struct {
	mu      sync.RWMutex
	verbose bool
	color   bool
	out     io.Writer
	mirror  io.Writer // optional secondary sink, e.g. a logfile
	exit    func(int)
}

var global = &leveledLogger{
	color: true,
	out:   os.Stdout,
	exit:  os.Exit,
}

// SetVerbose enables DEBUG output. Off by default.
func SetVerbose(verbose bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.verbose = verbose
}

func IsVerbose() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.verbose
}

// SetOutput redirects all log output. Used by tests to capture the transcript.
func SetOutput(w io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.out = w
}

// SetColor toggles ANSI color codes in the primary output.
func SetColor(enabled bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.color = enabled
}

// Mirror duplicates every line (uncolored) into w in addition to the
// primary output. Passing nil removes the mirror.
func Mirror(w io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.mirror = w
}

func (ll *leveledLogger) format(level LogLevel, message string, colored bool) string {
	timestamp := time.Now().Format("06-01-02 15:04:05")
	if !colored {
		return fmt.Sprintf("[%s] %-5s %s\n", timestamp, level.String(), message)
	}
	return fmt.Sprintf(
		"%s[%s]%s %s%-5s%s %s\n",
		colorGray, timestamp, colorReset,
		level.color(), level.String(), colorReset,
		message,
	)
}

func (ll *leveledLogger) log(level LogLevel, format string, args ...interface{}) {
	ll.mu.RLock()
	if level == DEBUG && !ll.verbose {
		ll.mu.RUnlock()
		return
	}
	out, mirror, colored := ll.out, ll.mirror, ll.color
	ll.mu.RUnlock()

	message := fmt.Sprintf(format, args...)
	fmt.Fprint(out, ll.format(level, message, colored))
	if mirror != nil {
		fmt.Fprint(mirror, ll.format(level, message, false))
	}

	if level == FATAL {
		ll.exit(1)
	}
}

func Debug(format string, args ...interface{}) {
	global.log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	global.log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	global.log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	global.log(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	global.log(FATAL, format, args...)
}
