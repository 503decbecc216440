package model

import "time"

// Link maps a short code to its target URL together with click accounting.
type Link struct {
	ID          int64      `db:"id" gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string     `db:"code" gorm:"size:8;not null;uniqueIndex:uk_links_code" json:"code"`
	TargetURL   string     `db:"target_url" gorm:"type:text;not null" json:"target_url"`
	TotalClicks int64      `db:"total_clicks" gorm:"not null;default:0" json:"total_clicks"`
	LastClicked *time.Time `db:"last_clicked" json:"last_clicked"`
	CreatedAt   time.Time  `db:"created_at" gorm:"not null;index:idx_links_created_at" json:"created_at"`
}

// TableName pins the table name used by GORM.
func (Link) TableName() string { return "links" }
