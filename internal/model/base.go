package model

import "time"

// BaseModel carries the identity, timestamp pair and optimistic-concurrency
// version shared by all catalog rows. Version increments on every successful
// mutation; an UPDATE guarded by the loaded version detects lost-update races.
type BaseModel struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int64     `db:"version" json:"-"`
}
