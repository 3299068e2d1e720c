// apps/go-server/internal/tiles/types.go
//
// Core type definitions for a tile session.
// Defines:
//   - Tile: one letter with a locked/unlocked state.
//   - Request: a lookup the session wants issued, tagged with its generation.
//   - View: the render description handed to the presentation layer.

package tiles

import (
	"errors"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
)

// PageSize is the number of words shown per results page.
const PageSize = 50

var (
	ErrNoLetters       = errors.New("enter at least one letter")
	ErrIndexOutOfRange = errors.New("tile index out of range")
	ErrPageOutOfRange  = errors.New("page out of range")
)

// Tile is a single letter unit. Letter is always one uppercase A–Z character.
type Tile struct {
	Letter string `json:"letter"`
	Locked bool   `json:"locked"`
}

// Request describes a lookup to issue for the unlocked letters.
// Only the response to the session's current Generation is ever applied.
type Request struct {
	Generation uint64
	Letters    string
	Dictionary dict.ID
}

// WordEntry is one row of the results pane.
type WordEntry struct {
	Word         string `json:"word"`
	ReferenceURL string `json:"referenceUrl"`
}

// Page is one page of the filtered word list.
type Page struct {
	Items      []WordEntry `json:"items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	Total      int         `json:"total"`
	HasPrev    bool        `json:"hasPrev"`
	HasNext    bool        `json:"hasNext"`
}

// View is everything a presentation layer needs to draw the session.
type View struct {
	Generation      uint64     `json:"generation"`
	Tiles           []Tile     `json:"tiles"`
	UnlockedLetters string     `json:"unlockedLetters"`
	Dictionary      dict.ID    `json:"dictionary"`
	Dictionaries    []dict.ID  `json:"dictionaries"`
	Pending         bool       `json:"pending"`
	Loaded          bool       `json:"loaded"`
	Words           Page       `json:"words"`
	Combinations    [][]string `json:"combinations"`
	Excluded        []string   `json:"excluded"`
	Error           string     `json:"error,omitempty"`
}
