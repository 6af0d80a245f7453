package badger

import (
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// journalLogger routes badger's printf-style output into the journal's zap logger.
// Badger reports compactions and value log rotation at info level; for a client-side
// journal that is noise, so it is demoted to debug.
type journalLogger struct {
	sugar *zap.SugaredLogger
}

var _ badgerdb.Logger = (*journalLogger)(nil)

func newJournalLogger(logger *zap.Logger, path string) *journalLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &journalLogger{
		sugar: logger.Sugar().With("component", "badger-journal", "path", path),
	}
}

func line(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (l *journalLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Error(line(format, args))
}

func (l *journalLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warn(line(format, args))
}

func (l *journalLogger) Infof(format string, args ...interface{}) {
	l.sugar.Debug(line(format, args))
}

func (l *journalLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debug(line(format, args))
}
