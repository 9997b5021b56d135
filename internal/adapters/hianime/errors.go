package hianime

import (
	"fmt"
)

// Codes stables, repris par la couche HTTP.
const (
	CodeNetwork    = "network_error"
	CodeDecode     = "decode_error"
	CodeHTTPStatus = "http_status"
)

// Error signale qu'une requête n'a produit aucune enveloppe exploitable.
type Error struct {
	Op     string
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "hianime " + e.Op + ": " + e.Code
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
