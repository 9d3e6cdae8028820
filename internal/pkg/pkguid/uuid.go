package pkguid

import "github.com/google/uuid"

// UUID generates time-ordered version 7 UUID strings.
type UUID struct {
	newV7 func() (uuid.UUID, error)
}

func NewUUID() *UUID {
	return &UUID{newV7: uuid.NewV7}
}

// Generate falls back to a random version 4 UUID when the clock-based
// source fails.
func (u *UUID) Generate() string {
	id, err := u.newV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
