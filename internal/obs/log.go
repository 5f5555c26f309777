// Package obs provides the structured logging this client logs through in
// place of CClient.cpp's CLOG_* macros: one JSON object per line to
// stdout, carrying whatever fields the caller attaches. Grounded on
// matst80-showoff/internal/obs/log.go.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	once         sync.Once
	base         = log.New(os.Stdout, "", 0)
	debugEnabled bool
)

// EnableDebug globally enables Debug-level output.
func EnableDebug(v bool) { debugEnabled = v }

// Fields carries the structured context attached to one log line.
type Fields map[string]any

func logWith(level, msg string, f Fields) {
	once.Do(func() { base.SetFlags(0) })
	if f == nil {
		f = Fields{}
	}
	f["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	f["level"] = level
	f["msg"] = msg
	b, err := json.Marshal(f)
	if err != nil {
		base.Printf("{\"level\":\"error\",\"msg\":\"log marshal failure\",\"err\":%q}", err.Error())
		return
	}
	base.Println(string(b))
}

// Info logs a line the operator should see by default: state transitions,
// lifecycle events.
func Info(msg string, f Fields) { logWith("info", msg, f) }

// Warn logs a recoverable problem: an output error mid-session, a failed
// reconnect attempt.
func Warn(msg string, f Fields) { logWith("warn", msg, f) }

// Error logs a failure the operator should investigate.
func Error(msg string, f Fields) { logWith("error", msg, f) }

// Debug logs protocol-chatter-level detail, gated behind EnableDebug the
// same way CClient.cpp gates CLOG_DEBUG1 behind a log level.
func Debug(msg string, f Fields) {
	if debugEnabled {
		logWith("debug", msg, f)
	}
}
