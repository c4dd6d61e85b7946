package models

import "time"

// Department and Category are read-only mirrors of lookup tables owned by the
// external asset-management system, upserted by external id during sync.
type Department struct {
	ID         int       `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
}

type Category struct {
	ID         int       `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
}

type Profile struct {
	ID         int       `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Role       *string   `json:"role,omitempty" db:"role"`
	Department *string   `json:"department,omitempty" db:"department"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
}

// NamedSyncItem is one department or category row in a sync batch.
type NamedSyncItem struct {
	ID        string     `json:"id" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	CreatedAt *time.Time `json:"created_at"`
}

// ProfileSyncItem is one profile row in a sync batch.
type ProfileSyncItem struct {
	ID         string  `json:"id" binding:"required"`
	FullName   string  `json:"full_name" binding:"required"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
}

// SyncResult reports how a batch upsert went.
type SyncResult struct {
	Success bool `json:"success"`
	Created int  `json:"created"`
	Updated int  `json:"updated"`
}
