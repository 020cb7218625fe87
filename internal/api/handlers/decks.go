package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ramonehamilton/doomsday-companion/internal/api/response"
	"github.com/ramonehamilton/doomsday-companion/internal/deckimport"
	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
)

// DeckParser parses decklist text. doomsday.Service implements it.
type DeckParser interface {
	Parse(text string) *doomsday.ParseResult
}

// DeckHandler handles decklist requests.
type DeckHandler struct {
	parser DeckParser
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(parser DeckParser) *DeckHandler {
	return &DeckHandler{parser: parser}
}

// ParseDeckRequest is the body of POST /decks/parse.
type ParseDeckRequest struct {
	Deck string `json:"deck"`
}

// ParseDeckList parses decklist text into card names.
func (h *DeckHandler) ParseDeckList(w http.ResponseWriter, r *http.Request) {
	var req ParseDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	response.Success(w, h.parser.Parse(req.Deck))
}

// FormatDeckRequest is the body of POST /decks/format.
type FormatDeckRequest struct {
	Cards []string `json:"cards"`
}

// FormatDeckList serializes card names back to decklist text.
func (h *DeckHandler) FormatDeckList(w http.ResponseWriter, r *http.Request) {
	var req FormatDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	response.Success(w, map[string]string{"deck": deckimport.Format(req.Cards)})
}
