package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ANSI colour codes for terminal output.
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	gray   = "\033[90m"
	cyan   = "\033[36m"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	colour            = true
	verbose           = false
)

// SetOutput redirects log lines. Colour is turned off for anything that is
// not the terminal so files and test buffers stay readable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	colour = w == os.Stdout || w == os.Stderr
}

func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

func ts() string {
	return time.Now().Format("15:04:05")
}

func write(code, tag, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, a...)
	if colour {
		fmt.Fprintf(out, "%s[%s] %-7s %s%s\n", code, ts(), tag, msg, reset)
		return
	}
	fmt.Fprintf(out, "[%s] %-7s %s\n", ts(), tag, msg)
}

func Debug(format string, a ...interface{}) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if !v {
		return
	}
	write(gray, "[DEBUG]", format, a...)
}

func Info(format string, a ...interface{}) {
	write(blue, "[INFO]", format, a...)
}

func Success(format string, a ...interface{}) {
	write(green, "[OK]", format, a...)
}

func Warn(format string, a ...interface{}) {
	write(yellow, "[WARN]", format, a...)
}

func Error(format string, a ...interface{}) {
	write(red, "[ERROR]", format, a...)
}

func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	if colour {
		fmt.Fprintf(out, "\n%s[%s] ══════════ %s ══════════%s\n\n", cyan, ts(), title, reset)
		return
	}
	fmt.Fprintf(out, "\n[%s] ══════════ %s ══════════\n\n", ts(), title)
}
