package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateID returns a short url-safe id, used for request ids and object keys.
func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 10)
	if err != nil {
		return uuid.NewString()[:10]
	}
	return id
}

// NewRecordID returns the opaque identifier given to events, archived rows and templates.
func NewRecordID() string {
	return uuid.NewString()
}
