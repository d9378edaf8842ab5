package orchestration

import (
	"fmt"

	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// logAdapter routes Temporal SDK logs through zap.
type logAdapter struct {
	z *zap.Logger
}

var _ log.Logger = (*logAdapter)(nil)

func newLogAdapter(z *zap.Logger) *logAdapter {
	return &logAdapter{z: z.Named("temporal")}
}

func (l *logAdapter) fields(keyvals []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			fields = append(fields, zap.Any(key, nil))
			break
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}

func (l *logAdapter) Debug(msg string, keyvals ...interface{}) { l.z.Debug(msg, l.fields(keyvals)...) }
func (l *logAdapter) Info(msg string, keyvals ...interface{})  { l.z.Info(msg, l.fields(keyvals)...) }
func (l *logAdapter) Warn(msg string, keyvals ...interface{})  { l.z.Warn(msg, l.fields(keyvals)...) }
func (l *logAdapter) Error(msg string, keyvals ...interface{}) { l.z.Error(msg, l.fields(keyvals)...) }
