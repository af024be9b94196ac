package models

import "fmt"

// Symbol identifies one tradable instrument. ID is the canonical identity
// used for storage and equality, Ticker the display form, Market the key
// selecting the instrument's trading calendar.
type Symbol struct {
	ID     string
	Ticker string
	Market string
}

// NewSymbol builds a Symbol with the canonical "<market>:<ticker>" id.
func NewSymbol(ticker, market string) Symbol {
	return Symbol{
		ID:     fmt.Sprintf("%s:%s", market, ticker),
		Ticker: ticker,
		Market: market,
	}
}

func (s Symbol) IsZero() bool { return s.ID == "" }

func (s Symbol) String() string { return s.Ticker }
