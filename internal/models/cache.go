package models

import "time"

// RatingCache holds the IMDb and Rotten Tomatoes ratings last fetched for a title.
type RatingCache struct {
	TitleID        string    `gorm:"primaryKey;size:32"`
	Rating         *string   `gorm:"size:16"`
	RottenTomatoes *string   `gorm:"size:16"`
	CachedAt       time.Time `gorm:"not null;precision:6"`
}

// TableName keeps the legacy table name.
func (RatingCache) TableName() string { return "rating_cache" }

// MetadataCache holds runtime and episode data last fetched for a title.
type MetadataCache struct {
	TitleID          string `gorm:"primaryKey;size:32"`
	RuntimeMinutes   *int
	TotalSeasons     *int
	TotalEpisodes    *int
	AvgEpisodeLength *int
	CachedAt         time.Time `gorm:"not null;precision:6"`
}

// TableName keeps the legacy table name.
func (MetadataCache) TableName() string { return "metadata_cache" }
