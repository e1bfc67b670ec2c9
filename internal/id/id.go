// Package id generates document identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for generated ids.
const (
	PrefixJoke = "joke"
)

// seedNamespace scopes name-based ids so they never collide with other
// UUIDv5 producers.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://punchline.app/seed"))

// Generate creates a prefixed random id, e.g. "joke-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// FromName derives a stable prefixed id from name. The same name always
// yields the same id, which makes imports idempotent.
func FromName(prefix, name string) string {
	return prefix + "-" + uuid.NewSHA1(seedNamespace, []byte(name)).String()
}
