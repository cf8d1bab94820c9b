package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator mints connection identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate connection id: %w", err)
	}
	return id.String(), nil
}
