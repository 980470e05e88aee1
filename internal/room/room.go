// Package room stores the items of shared watchlists. A room is identified
// by its sanitized name and holds two partitions, watched and unwatched,
// each with its own ordering.
package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/models"
	"github.com/zulandar/shovo/internal/position"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMissingField is returned when a required identifier is empty.
	ErrMissingField = errors.New("room: missing field")
	// ErrRoomExists is returned by Rename when the target already has items.
	ErrRoomExists = errors.New("room: room exists")
)

// AppendOpts holds parameters for adding an item to a room.
type AppendOpts struct {
	TitleID          string
	Title            string
	Year             *string
	TypeLabel        *string
	Image            *string
	Rating           *string
	RottenTomatoes   *string
	RuntimeMinutes   *int
	TotalSeasons     *int
	TotalEpisodes    *int
	AvgEpisodeLength *int
	Watched          bool
}

// Page is one page of a room partition.
type Page struct {
	Items      []models.ListItem `json:"items"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
	TotalCount int64             `json:"total_count"`
}

// SnapshotItem identifies one item to refresh.
type SnapshotItem struct {
	TitleID   string
	TypeLabel *string
}

// Append adds or replaces an item and places it at the top of its partition.
// A replaced item is rewritten entirely, including a fresh added_at.
func Append(db *gorm.DB, room string, opts AppendOpts) error {
	if room == "" || opts.TitleID == "" || opts.Title == "" {
		return fmt.Errorf("%w: room, title_id and title are required", ErrMissingField)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		next, err := position.AssignNext(tx, room, opts.Watched)
		if err != nil {
			return err
		}
		item := models.ListItem{
			Room:             room,
			TitleID:          opts.TitleID,
			Title:            opts.Title,
			Year:             opts.Year,
			TypeLabel:        opts.TypeLabel,
			Image:            opts.Image,
			Rating:           opts.Rating,
			RottenTomatoes:   opts.RottenTomatoes,
			RuntimeMinutes:   opts.RuntimeMinutes,
			TotalSeasons:     opts.TotalSeasons,
			TotalEpisodes:    opts.TotalEpisodes,
			AvgEpisodeLength: opts.AvgEpisodeLength,
			Watched:          opts.Watched,
			AddedAt:          time.Now().UTC(),
			Position:         &next,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room"}, {Name: "title_id"}},
			UpdateAll: true,
		}).Create(&item)
		if result.Error != nil {
			return fmt.Errorf("room: append %s/%s: %w", room, opts.TitleID, result.Error)
		}
		return nil
	})
}

// List returns one page of the watched or unwatched partition of a room.
// page and perPage are clamped to at least 1.
func List(db *gorm.DB, room string, watched bool, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	var total int64
	if err := db.Model(&models.ListItem{}).
		Where("room = ? AND watched = ?", room, watched).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("room: count %s: %w", room, err)
	}

	var items []models.ListItem
	if err := db.Where("room = ? AND watched = ?", room, watched).
		Order(position.OrderClause).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("room: list %s: %w", room, err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	return &Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalCount: total,
	}, nil
}

// SetWatched moves an item between partitions. Its position is kept as is.
func SetWatched(db *gorm.DB, room, titleID string, watched bool) error {
	if room == "" || titleID == "" {
		return fmt.Errorf("%w: room and title_id are required", ErrMissingField)
	}
	err := db.Model(&models.ListItem{}).
		Where("room = ? AND title_id = ?", room, titleID).
		Update("watched", watched).Error
	if err != nil {
		return fmt.Errorf("room: set watched %s/%s: %w", room, titleID, err)
	}
	return nil
}

// Remove deletes an item. Removing an absent item is not an error.
func Remove(db *gorm.DB, room, titleID string) error {
	if room == "" || titleID == "" {
		return fmt.Errorf("%w: room and title_id are required", ErrMissingField)
	}
	err := db.Where("room = ? AND title_id = ?", room, titleID).
		Delete(&models.ListItem{}).Error
	if err != nil {
		return fmt.Errorf("room: remove %s/%s: %w", room, titleID, err)
	}
	return nil
}

// Reorder sets the order of a room's items; titleIDs[0] sorts first.
func Reorder(db *gorm.DB, room string, titleIDs []string) error {
	if room == "" {
		return fmt.Errorf("%w: room is required", ErrMissingField)
	}
	return position.Reorder(db, room, titleIDs)
}

// Rename moves every item of oldRoom to the sanitized next name and returns
// the room name in effect afterwards.
func Rename(db *gorm.DB, oldRoom, next string) (string, error) {
	next = SanitizeRoom(next)
	if oldRoom == "" || next == "" {
		return "", fmt.Errorf("%w: room and next_room are required", ErrMissingField)
	}
	if next == oldRoom {
		return oldRoom, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ListItem{}).
			Where("room = ?", next).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("room: rename check %s: %w", next, err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrRoomExists, next)
		}
		if err := tx.Model(&models.ListItem{}).
			Where("room = ?", oldRoom).
			Update("room", next).Error; err != nil {
			return fmt.Errorf("room: rename %s to %s: %w", oldRoom, next, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Snapshot returns the identity of every item in a room, oldest first.
func Snapshot(db *gorm.DB, room string) ([]SnapshotItem, error) {
	var items []models.ListItem
	if err := db.Select("title_id", "type_label").
		Where("room = ?", room).
		Order("added_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("room: snapshot %s: %w", room, err)
	}
	out := make([]SnapshotItem, len(items))
	for i, it := range items {
		out[i] = SnapshotItem{TitleID: it.TitleID, TypeLabel: it.TypeLabel}
	}
	return out, nil
}

// ApplyEnrichment writes fetched enrichment fields onto one item. Null
// fields overwrite stored values.
func ApplyEnrichment(db *gorm.DB, room, titleID string, rec enrich.Record) error {
	err := db.Model(&models.ListItem{}).
		Where("room = ? AND title_id = ?", room, titleID).
		Updates(map[string]interface{}{
			"rating":             rec.Rating,
			"rotten_tomatoes":    rec.RottenTomatoes,
			"runtime_minutes":    rec.RuntimeMinutes,
			"total_seasons":      rec.TotalSeasons,
			"total_episodes":     rec.TotalEpisodes,
			"avg_episode_length": rec.AvgEpisodeLength,
		}).Error
	if err != nil {
		return fmt.Errorf("room: apply enrichment %s/%s: %w", room, titleID, err)
	}
	return nil
}

// Rooms returns the distinct names of rooms that hold at least one item.
func Rooms(db *gorm.DB) ([]string, error) {
	var rooms []string
	if err := db.Model(&models.ListItem{}).
		Distinct().
		Order("room").
		Pluck("room", &rooms).Error; err != nil {
		return nil, fmt.Errorf("room: list rooms: %w", err)
	}
	return rooms, nil
}
