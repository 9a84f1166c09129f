package models

import "time"

// Room represents a teaching room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      string    `db:"type" json:"type"`
	Equipment *string   `db:"equipment" json:"equipment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Type        string
	MinCapacity int
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
