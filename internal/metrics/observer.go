package metrics

import (
	"time"

	"github.com/mirieri/mdb/internal/jsondb"
)

// Observer feeds table mutations into the collectors.
type Observer struct{}

var _ jsondb.Observer = Observer{}

// OnInsert implements jsondb.Observer.
func (Observer) OnInsert(table string, _ jsondb.Row) {
	RowsInserted.WithLabelValues(table).Inc()
}

// OnDelete implements jsondb.Observer.
func (Observer) OnDelete(table string, _ jsondb.Row) {
	RowsDeleted.WithLabelValues(table).Inc()
}

// OnPersist implements jsondb.Observer.
func (Observer) OnPersist(table string, rows int, d time.Duration, err error) {
	PersistDuration.WithLabelValues(table).Observe(d.Seconds())
	if err != nil {
		PersistErrors.WithLabelValues(table).Inc()
		return
	}
	TableRows.WithLabelValues(table).Set(float64(rows))
}

// CommandStatus returns the status label for a command outcome.
func CommandStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
