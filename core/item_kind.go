package core

import (
	"errors"
	"strings"
)

// ErrUnknownItemKind is returned by ParseItemKind for codes that are not Book or Video.
var ErrUnknownItemKind = errors.New("unknown item kind")

// ItemKind is the variant of a catalog item as far as lending is concerned.
// The only property that matters here is how long a copy may be rented.
type ItemKind struct {
	code       string
	rentalDays int
}

// The supported item kinds.
var (
	Book  = ItemKind{code: "BOOK", rentalDays: 14}
	Video = ItemKind{code: "VIDEO", rentalDays: 7}
)

// ParseItemKind resolves a catalog type code. MOVIE_DISC is accepted as an alias for Video.
func ParseItemKind(code string) (ItemKind, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case Book.code:
		return Book, nil
	case Video.code, "MOVIE_DISC", "MOVIE":
		return Video, nil
	default:
		return ItemKind{}, errors.Join(ErrUnknownItemKind, errors.New(code))
	}
}

// String returns the type code.
func (k ItemKind) String() string {
	return k.code
}

// RentalDays is the loan period for a fresh rental of this kind.
func (k ItemKind) RentalDays() int {
	return k.rentalDays
}

// IsZero reports whether k is the zero value.
func (k ItemKind) IsZero() bool {
	return k.code == ""
}
