package models

import "time"

// ListItem is one title in a room's watchlist. Position is nil for rows
// that predate manual ordering; those sort after every positioned row.
type ListItem struct {
	Room             string    `gorm:"primaryKey;size:64;index:idx_room_watched,priority:1" json:"room"`
	TitleID          string    `gorm:"primaryKey;size:32" json:"title_id"`
	Title            string    `gorm:"not null" json:"title"`
	Year             *string   `gorm:"size:16" json:"year"`
	TypeLabel        *string   `gorm:"size:32" json:"type_label"`
	Image            *string   `gorm:"type:text" json:"image"`
	Rating           *string   `gorm:"size:16" json:"rating"`
	RottenTomatoes   *string   `gorm:"size:16" json:"rotten_tomatoes"`
	RuntimeMinutes   *int      `json:"runtime_minutes"`
	TotalSeasons     *int      `json:"total_seasons"`
	TotalEpisodes    *int      `json:"total_episodes"`
	AvgEpisodeLength *int      `json:"avg_episode_length"`
	Watched          bool      `gorm:"not null;default:false;index:idx_room_watched,priority:2" json:"watched"`
	AddedAt          time.Time `gorm:"not null" json:"added_at"`
	Position         *int      `json:"position"`
}

// TableName keeps the legacy table name.
func (ListItem) TableName() string { return "lists" }
