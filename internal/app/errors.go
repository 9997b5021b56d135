package app

import (
	"errors"

	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

var ErrNotFound = ports.ErrNotFound

// ErrDetailsNotLoaded: une action qui dépend des détails a été demandée avant leur chargement.
var ErrDetailsNotLoaded = errors.New("details not loaded")

// Codes stables exposés par l'API HTTP.
const (
	CodeInvalidParams = "invalid_params"
	CodeUpstream      = "upstream_error"
)

// CodedError permet aux services de renvoyer un code d'erreur stable,
// que la couche HTTP traduit en statut.
//
// Exemples de codes: invalid_params, upstream_error.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

func invalidParams(message string, err error) error {
	return &CodedError{Code: CodeInvalidParams, Message: message, Err: err}
}

// ErrorCode renvoie le code d'une CodedError de la chaîne, ou "".
func ErrorCode(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
