package discocache

import "github.com/go-kit/log"

type logger = log.Logger

// newLogger falls back to a nop logger so the pipeline can always log
// unconditionally.
func newLogger(l log.Logger) log.Logger {
	if l == nil {
		return log.NewNopLogger()
	}
	return l
}
