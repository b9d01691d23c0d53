// Package log wraps beego/logs with the handful of level functions the
// rest of the tree calls directly, so callers never import logs themselves.
package log

import (
	"github.com/astaxie/beego/logs"
)

var logger = logs.NewLogger()

func init() {
	logger.EnableFuncCallDepth(true)
	logger.SetLogFuncCallDepth(3)
}

// Init configures the logger from a beego/logs adapter JSON config, the
// same shape logs.SetLogger accepts (filename, level, rotate, daily, ...).
func Init(jsonConfig string) error {
	return logger.SetLogger(logs.AdapterFile, jsonConfig)
}

func Emergency(format string, v ...interface{}) { logger.Emergency(format, v...) }
func Alert(format string, v ...interface{})     { logger.Alert(format, v...) }
func Critical(format string, v ...interface{})  { logger.Critical(format, v...) }
func Error(format string, v ...interface{})     { logger.Error(format, v...) }
func Warn(format string, v ...interface{})      { logger.Warn(format, v...) }
func Warning(format string, v ...interface{})   { logger.Warning(format, v...) }
func Notice(format string, v ...interface{})    { logger.Notice(format, v...) }
func Info(format string, v ...interface{})      { logger.Info(format, v...) }
func Informational(format string, v ...interface{}) {
	logger.Informational(format, v...)
}
func Debug(format string, v ...interface{}) { logger.Debug(format, v...) }
func Trace(format string, v ...interface{}) { logger.Trace(format, v...) }
