package repositories

import (
	"errors"
	"fmt"

	"gerai/internal/models"

	"gorm.io/gorm"
)

// GORMCounterRepository is a GORM implementation of CounterRepository backed
// by a single-row-per-sequence counters table.
type GORMCounterRepository struct {
	db *gorm.DB
}

// NewGORMCounterRepository creates a new instance of GORMCounterRepository.
func NewGORMCounterRepository(db *gorm.DB) *GORMCounterRepository {
	return &GORMCounterRepository{
		db: db,
	}
}

// Next atomically increments the named counter and returns the new value.
// The first caller for a name races on the insert; a duplicate-key loss is
// retried as an increment of the now-existing row.
func (r *GORMCounterRepository) Next(name string) (int64, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var value int64
		err := r.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Counter{}).
				Where("name = ?", name).
				UpdateColumn("value", gorm.Expr("value + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if err := tx.Create(&models.Counter{Name: name, Value: 1}).Error; err != nil {
					return err
				}
				value = 1
				return nil
			}
			var counter models.Counter
			if err := tx.First(&counter, "name = ?", name).Error; err != nil {
				return err
			}
			value = counter.Value
			return nil
		})
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
		}
		// Lost the insert race; the row exists now, increment it.
	}
	return 0, fmt.Errorf("failed to advance counter %s after retries", name)
}
