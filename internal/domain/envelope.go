package domain

// Envelope est le wrapper {success, status, data} renvoyé par tous les endpoints du catalogue.
type Envelope[T any] struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    *T   `json:"data,omitempty"`
}

// OK reports whether the envelope carries a successful payload.
func (e Envelope[T]) OK() bool {
	return e.Success && e.Data != nil
}

// Failed builds a failure envelope for the given status (0 when unknown).
func Failed[T any](status int) Envelope[T] {
	return Envelope[T]{Success: false, Status: status}
}

// Succeeded wraps data in a success envelope with status 200.
func Succeeded[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Status: 200, Data: &data}
}
