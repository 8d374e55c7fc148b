// Package utils provides the session-wide leveled logger.
package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	l  *log.Logger
	lv int
}

const (
	DEBUG = iota
	INFO
	WARN
	ERROR
	FATAL
)

var tagColors = map[int]*color.Color{
	DEBUG: color.New(color.FgMagenta),
	INFO:  color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgRed, color.Bold),
}

var tagNames = map[int]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var Log *Logger

func init() {
	// Callers may re-init with a different level; tests rely on Log being
	// usable without setup.
	InitLogger(INFO)
}

func InitLogger(level int) {
	Log = &Logger{
		l:  log.New(os.Stdout, "", 0),
		lv: level,
	}
}

func (lg *Logger) log(level int, msg string, args ...any) {
	if level < lg.lv {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	tag := tagColors[level].Sprintf("[%s]", tagNames[level])
	lg.l.Printf("%s %s %s\n", ts, tag, fmt.Sprintf(msg, args...))
	if level == FATAL {
		os.Exit(1)
	}
}

func (lg *Logger) Debug(m string, a ...any) { lg.log(DEBUG, m, a...) }
func (lg *Logger) Info(m string, a ...any)  { lg.log(INFO, m, a...) }
func (lg *Logger) Warn(m string, a ...any)  { lg.log(WARN, m, a...) }
func (lg *Logger) Error(m string, a ...any) { lg.log(ERROR, m, a...) }
func (lg *Logger) Fatal(m string, a ...any) { lg.log(FATAL, m, a...) }
