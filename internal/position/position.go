// Package position maintains the user-defined ordering of items within a
// room. Positions are scoped to a (room, watched) partition; higher values
// sort first and items without a position sort last, newest first.
package position

import (
	"errors"
	"fmt"

	"github.com/zulandar/shovo/internal/models"
	"gorm.io/gorm"
)

// OrderClause is the canonical ordering of a partition.
const OrderClause = "(position IS NULL) ASC, position DESC, added_at DESC"

// ErrInvalidOrder is returned by Reorder for an empty ordering.
var ErrInvalidOrder = errors.New("position: invalid order")

// AssignNext returns the next free position within (room, watched): one past
// the current maximum, or 1 for an empty partition. Callers writing
// concurrently to the same partition may receive the same value.
func AssignNext(tx *gorm.DB, room string, watched bool) (int, error) {
	var next int
	err := tx.Model(&models.ListItem{}).
		Select("COALESCE(MAX(position), 0) + 1").
		Where("room = ? AND watched = ?", room, watched).
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("position: next for %s: %w", room, err)
	}
	return next, nil
}

// Set writes a single item's position.
func Set(tx *gorm.DB, room, titleID string, pos int) error {
	err := tx.Model(&models.ListItem{}).
		Where("room = ? AND title_id = ?", room, titleID).
		Update("position", pos).Error
	if err != nil {
		return fmt.Errorf("position: set %s/%s: %w", room, titleID, err)
	}
	return nil
}

// Reorder assigns positions so that titleIDs[0] sorts first: the item at
// index i gets len(titleIDs)-i. Items of the room not named keep their
// position, and unknown ids are ignored.
func Reorder(db *gorm.DB, room string, titleIDs []string) error {
	if len(titleIDs) == 0 {
		return ErrInvalidOrder
	}
	total := len(titleIDs)
	return db.Transaction(func(tx *gorm.DB) error {
		for i, id := range titleIDs {
			if err := Set(tx, room, id, total-i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Backfill assigns positions within a room. With force, every item is
// renumbered 1..N by ascending added_at. Otherwise only items without a
// position are appended after the room's current maximum, oldest first,
// which makes repeated calls a no-op. It returns the number of rows written.
func Backfill(db *gorm.DB, room string, force bool) (int, error) {
	changed := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.ListItem{}).Where("room = ?", room)
		base := 0
		if !force {
			if err := tx.Model(&models.ListItem{}).
				Select("COALESCE(MAX(position), 0)").
				Where("room = ? AND position IS NOT NULL", room).
				Scan(&base).Error; err != nil {
				return fmt.Errorf("position: backfill %s: max: %w", room, err)
			}
			q = q.Where("position IS NULL")
		}

		var ids []string
		if err := q.Order("added_at ASC").Pluck("title_id", &ids).Error; err != nil {
			return fmt.Errorf("position: backfill %s: list: %w", room, err)
		}
		for i, id := range ids {
			if err := Set(tx, room, id, base+i+1); err != nil {
				return err
			}
		}
		changed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// BackfillAll runs Backfill for every room and returns the total rows written.
func BackfillAll(db *gorm.DB, force bool) (int, error) {
	var rooms []string
	if err := db.Model(&models.ListItem{}).Distinct().Pluck("room", &rooms).Error; err != nil {
		return 0, fmt.Errorf("position: list rooms: %w", err)
	}
	total := 0
	for _, room := range rooms {
		n, err := Backfill(db, room, force)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
