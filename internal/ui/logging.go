package ui

import (
	"github.com/pterm/pterm"
)

func SetDebugEnabled(enabled bool) {
	pterm.PrintDebugMessages = enabled
}

func Printf(format string, a ...interface{}) {
	pterm.Printf(format, a...)
}

func Printfln(format string, a ...interface{}) {
	pterm.Printfln(format, a...)
}

func Debug(format string, a ...interface{}) {
	pterm.Debug.Printfln(format, a...)
}

func Info(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

func Success(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

func Warning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

func Error(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

func Fatal(format string, a ...interface{}) {
	pterm.Fatal.Printfln(format, a...)
}

// FanLogger prefixes every message with the id of its fan
type FanLogger struct {
	FanId string
}

func NewFanLogger(fanId string) FanLogger {
	return FanLogger{FanId: fanId}
}

func (l FanLogger) Debug(format string, a ...interface{}) {
	Debug("[Fan %s] "+format, l.prepend(a)...)
}

func (l FanLogger) Info(format string, a ...interface{}) {
	Info("[Fan %s] "+format, l.prepend(a)...)
}

func (l FanLogger) Warning(format string, a ...interface{}) {
	Warning("[Fan %s] "+format, l.prepend(a)...)
}

func (l FanLogger) Error(format string, a ...interface{}) {
	Error("[Fan %s] "+format, l.prepend(a)...)
}

func (l FanLogger) prepend(a []interface{}) []interface{} {
	return append([]interface{}{l.FanId}, a...)
}
