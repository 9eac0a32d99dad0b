package models

import "time"

// CartSnapshot stores one serialized cart per cart key. The payload is
// replaced wholesale on every cart mutation.
type CartSnapshot struct {
	CartKey   string    `gorm:"column:cart_key;primaryKey;size:191"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name independent of GORM's pluralizer.
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
