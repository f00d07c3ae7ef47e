package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
}

// RegisterMetricsCallbacks times every query, create, update and delete.
// A record not found is not counted as an error.
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) error {
	before := func(db *gorm.DB) {
		db.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			start, ok := db.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			err := db.Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = nil
			}
			recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), err)
		}
	}

	cb := db.Callback()
	registrations := []error{
		cb.Query().Before("gorm:query").Register("metrics:query_before", before),
		cb.Query().After("gorm:query").Register("metrics:query_after", after("select")),
		cb.Create().Before("gorm:create").Register("metrics:create_before", before),
		cb.Create().After("gorm:create").Register("metrics:create_after", after("insert")),
		cb.Update().Before("gorm:update").Register("metrics:update_before", before),
		cb.Update().After("gorm:update").Register("metrics:update_after", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:delete_before", before),
		cb.Delete().After("gorm:delete").Register("metrics:delete_after", after("delete")),
	}
	return errors.Join(registrations...)
}
