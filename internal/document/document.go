// Package document holds the persistent data types shared between
// the store, the API, and the annotation engine.
package document

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Document is one annotatable legal document. Text is the flattened
// plain text every annotation offset refers to; it is immutable for
// the lifetime of a span set. Replacing Text invalidates every
// annotation on the document.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	Text        string    `json:"text"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Content is a parsed document before it gets an identity: title plus
// flattened text.
type Content struct {
	Title string
	Text  string
}

// Annotation is the persisted form of a span: a tagged [Start, End)
// rune range over one document's text, plus the substring captured at
// creation time.
type Annotation struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityType is a user-defined annotation category with a display
// colour.
type EntityType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// ContentHash computes SHA-256 of text and returns a hex string. Used
// to detect duplicate uploads and text changes.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h[:])
}
