package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game is a catalog item keyed by its store AppID.
type Game struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	AppID        int             `gorm:"not null;uniqueIndex:idx_games_app_id" json:"app_id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	ReleaseDate  time.Time       `gorm:"type:date;not null;index:idx_games_release_date" json:"release_date"`
	RequiredAge  int             `gorm:"type:smallint;not null;default:0" json:"required_age"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DLCCount     int             `gorm:"not null;default:0" json:"dlc_count"`
	Positive     int             `gorm:"not null;default:0" json:"positive"`
	Negative     int             `gorm:"not null;default:0" json:"negative"`
	ScoreRank    *int            `json:"score_rank"`
	AboutTheGame string          `gorm:"type:text" json:"about_the_game"`
	Windows      bool            `gorm:"not null" json:"windows"`
	Mac          bool            `gorm:"not null" json:"mac"`
	Linux        bool            `gorm:"not null" json:"linux"`

	Developers []Developer `gorm:"many2many:game_developers;constraint:OnDelete:CASCADE" json:"developers,omitempty"`
	Publishers []Publisher `gorm:"many2many:game_publishers;constraint:OnDelete:CASCADE" json:"publishers,omitempty"`
	Categories []Category  `gorm:"many2many:game_categories;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Genres     []Genre     `gorm:"many2many:game_genres;constraint:OnDelete:CASCADE" json:"genres,omitempty"`
	Tags       []Tag       `gorm:"many2many:game_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Languages  []Language  `gorm:"many2many:game_languages;constraint:OnDelete:CASCADE" json:"languages,omitempty"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string {
	return "games"
}

// Platforms returns the platform flags keyed by lower-case platform name.
func (g *Game) Platforms() map[string]bool {
	return map[string]bool{
		PlatformWindows: g.Windows,
		PlatformMac:     g.Mac,
		PlatformLinux:   g.Linux,
	}
}

const (
	PlatformWindows = "windows"
	PlatformMac     = "mac"
	PlatformLinux   = "linux"
)

// ValidPlatforms lists the accepted platform filter values.
var ValidPlatforms = []string{PlatformWindows, PlatformMac, PlatformLinux}
