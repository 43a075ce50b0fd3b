package ldapx

import (
	"time"

	"go.uber.org/zap"
)

// logOperation runs fn and logs its start, outcome and timing under the
// given operation name. All operational logging is debug-level; the
// library stays silent unless the caller wires a logger in.
func logOperation(log *zap.Logger, op string, fields []zap.Field, fn func() error) error {
	start := time.Now()
	log.Debug("starting "+op, fields...)

	err := fn()

	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		log.Debug(op+" failed", append(fields, zap.Error(err))...)
		return err
	}
	log.Debug(op+" completed", fields...)
	return nil
}
