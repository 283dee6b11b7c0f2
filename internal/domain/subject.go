package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Subject is one entry in the roast-target roster. Persona is a freeform
// jsonb blob (bio, style tags, running gags) fed into the response
// generator's prompt.
type Subject struct {
	Name      string         `json:"name" gorm:"primary_key"`
	AvatarURL string         `json:"avatarUrl"`
	Persona   datatypes.JSON `json:"persona" gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time      `json:"createdAt"`
}
