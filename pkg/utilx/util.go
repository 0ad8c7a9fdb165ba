package utilx

import (
	"github.com/google/uuid"
)

// GenerateUUID - generate a random UUID, retrying until the random source succeeds.
func GenerateUUID() uuid.UUID {
	for {
		u, err := uuid.NewRandom()
		if err == nil {
			return u
		}
	}
}
