package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is the single persisted viewer context of this client.
type Session struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID string                      `gorm:"uniqueIndex"`
	Aliases   datatypes.JSONSlice[string] `gorm:"type:json"`
	Name      string
	Avatar    string
	Bio       string
	Token     string
}

func (v Session) ToViewer() Viewer {
	return Viewer{
		ID:      v.AccountID,
		Aliases: []string(v.Aliases),
		Name:    v.Name,
		Avatar:  v.Avatar,
		Bio:     v.Bio,
	}
}
