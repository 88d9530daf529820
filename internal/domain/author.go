package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Author is a catalog entry with its vector embedding stored alongside the
// descriptive fields it was derived from.
type Author struct {
	ID            string    `json:"id"         db:"id"`
	Name          string    `json:"name"       db:"name"`
	Email         string    `json:"email"      db:"email"`
	Bio           string    `json:"bio"        db:"bio"`
	Expertise     string    `json:"expertise"  db:"expertise"`
	Embedding     []float32 `json:"-"          db:"embedding"`
	EmbeddingText string    `json:"-"          db:"embedding_text"`
	EmbeddingHash string    `json:"-"          db:"embedding_hash"`
	Version       int       `json:"version"    db:"version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AuthorFields holds the mutable descriptive fields of an author.
type AuthorFields struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	Expertise string `json:"expertise"`
}

// EmbeddingSourceText builds the canonical text an author embedding is derived
// from. Name and email are deliberately excluded: changing them must not
// invalidate the stored vector.
func EmbeddingSourceText(bio, expertise string) string {
	return fmt.Sprintf("%s Expertise: %s", bio, expertise)
}

// EmbeddingTextHash returns the hex sha256 of an embedding source text.
func EmbeddingTextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Stale reports whether the stored embedding no longer matches the author's
// current descriptive fields.
func (a *Author) Stale() bool {
	return a.EmbeddingHash != EmbeddingTextHash(EmbeddingSourceText(a.Bio, a.Expertise))
}

// AuthorMatch is returned by semantic search, including normalized similarity.
type AuthorMatch struct {
	Author
	Similarity float64 `json:"similarity"`
}

// Neighbor is a raw nearest-neighbor hit: an author plus its store distance.
type Neighbor struct {
	Author   Author
	Distance float64
}

// Answer pairs a generated response with the retrieved authors used as context,
// in the exact rank order they were fed to generation.
type Answer struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Context  []AuthorMatch `json:"context"`
}
