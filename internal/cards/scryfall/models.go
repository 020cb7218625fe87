package scryfall

import (
	"errors"
	"fmt"
)

// Card is the subset of a Scryfall card object used for cost resolution.
type Card struct {
	ID       string     `json:"id"`
	OracleID string     `json:"oracle_id"`
	Name     string     `json:"name"`
	Layout   string     `json:"layout"`
	ManaCost string     `json:"mana_cost,omitempty"`
	CMC      float64    `json:"cmc"`
	TypeLine string     `json:"type_line"`
	Colors   []string   `json:"colors,omitempty"`
	Faces    []CardFace `json:"card_faces,omitempty"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name     string `json:"name"`
	ManaCost string `json:"mana_cost,omitempty"`
	TypeLine string `json:"type_line"`
}

// CastCost returns the mana cost printed on the face that is cast from hand.
// Split and modal cards carry it on their first face.
func (c *Card) CastCost() string {
	if c.ManaCost != "" || len(c.Faces) == 0 {
		return c.ManaCost
	}
	return c.Faces[0].ManaCost
}

type cardIdentifier struct {
	Name string `json:"name,omitempty"`
}

type collectionRequest struct {
	Identifiers []cardIdentifier `json:"identifiers"`
}

type collectionResponse struct {
	NotFound []cardIdentifier `json:"not_found"`
	Data     []Card           `json:"data"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Type     string   `json:"type,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
