package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey;size:64;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	Premium      bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Post struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:512"`
	Content     string `gorm:"not null"`
	ImageURL    string `gorm:"size:512"`
	IsPremium   bool   `gorm:"index;not null;default:false"`
	AuthorID    string `gorm:"size:64;index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PremiumGrant records why a user's premium flag was flipped. The checkout
// session id is the primary key, so re-applying the same session is a no-op.
type PremiumGrant struct {
	SessionID string `gorm:"primaryKey;size:128;not null"` // stripe checkout session id
	UserID    string `gorm:"size:64;index;not null"`
	GrantedAt time.Time
	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
