package users

import "time"

// AnonymousIdentity is one anonymous account known to the mirror service.
// The subject doubles as the canonical user id; there is no provider mapping
// because anonymous sign-in is the only authentication path.
type AnonymousIdentity struct {
	Subject    string    `gorm:"column:subject;primaryKey;size:190;not null"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;autoUpdateTime"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing anonymous identities.
func (AnonymousIdentity) TableName() string {
	return "anonymous_identities"
}
