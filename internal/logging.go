package internal

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger is the structured logger every provisioning step writes to.
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

var _ Logger = (*log.Logger)(nil)

// NewLogger returns the CLI logger writing to w at the named level.
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          AppName,
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      LogTimeFormat,
	}), nil
}
