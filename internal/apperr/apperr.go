package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind: hata sınıfı. Dış arayüze `error` alanı olarak aynen yansıtılır,
// çağıran taraf bu etikete göre davranır.
type Kind string

const (
	KindInvalidRequest      Kind = "InvalidRequest"
	KindMenuItemUnavailable Kind = "MenuItemUnavailable"
	KindInsufficientStock   Kind = "InsufficientStock"
	KindReservationConflict Kind = "ReservationConflict"
	KindInvalidTransition   Kind = "InvalidTransition"
	KindNotFound            Kind = "NotFound"
	KindServiceUnavailable  Kind = "ServiceUnavailable"
)

// Error: çekirdeğin tek hata tipi. Message kullanıcıya gösterilen özet,
// Details ise makine tarafından okunan alanlar (ör: menu_item_id, requested).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WithDetails(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// IsKind: err zincirinde verilen sınıftan bir *Error var mı?
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus: hata sınıfını HTTP durum koduna çevirir.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMenuItemUnavailable:
		return http.StatusUnprocessableEntity
	case KindInsufficientStock, KindReservationConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
