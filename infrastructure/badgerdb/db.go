// Package badgerdb implements the ExternalSystem and RelationResolver ports
// on an embedded Badger key-value store. One DB is shared by every
// kind-scoped System; catalog keys are stored verbatim, so kind prefixes
// partition the keyspace.
package badgerdb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// DB owns one Badger instance and its value-log GC loop.
type DB struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

// Open opens Badger at path, or fully in memory when inMemory is set.
// GC only applies to on-disk value logs, so in-memory databases skip it.
func Open(path string, inMemory bool, logger *zap.Logger) (*DB, error) {
	if inMemory {
		path = ""
	}
	db, err := badger.Open(badger.DefaultOptions(path).
		WithLogger(newBadgerLogger(logger)).
		WithInMemory(inMemory))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}

	d := &DB{
		db:     db,
		stopGC: make(chan struct{}),
		doneGC: make(chan struct{}),
	}
	if inMemory {
		close(d.doneGC)
	} else {
		go d.runGC(logger)
	}
	return d, nil
}

// Close stops the GC loop and closes the underlying database.
func (d *DB) Close() error {
	close(d.stopGC)
	<-d.doneGC
	return d.db.Close()
}

// Size reports the LSM tree and value log sizes in bytes.
func (d *DB) Size() (lsm, vlog int64) {
	return d.db.Size()
}

func (d *DB) runGC(logger *zap.Logger) {
	defer close(d.doneGC)
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopGC:
			return
		case <-ticker.C:
			err := d.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				logger.Warn("badger value log gc failed", zap.Error(err))
			}
		}
	}
}

// badgerLogger adapts a zap logger to badger's printf-style interface.
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func newBadgerLogger(logger *zap.Logger) *badgerLogger {
	return &badgerLogger{sugar: logger.Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(strings.TrimRight(format, "\n"), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(strings.TrimRight(format, "\n"), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(strings.TrimRight(format, "\n"), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(strings.TrimRight(format, "\n"), args...)
}
