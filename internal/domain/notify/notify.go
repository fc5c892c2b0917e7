package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayFor es lo que dura una notificación en pantalla.
const DisplayFor = 5 * time.Second

// ErrNetwork: el backend no respondió (transporte).
var ErrNetwork = errors.New("network error")

// ErrUnauthorizedAction: acción privilegiada sin identidad admin.
var ErrUnauthorizedAction = errors.New("unauthorized action")

// ServerError es una respuesta no-2xx del backend con su mensaje.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// ValidationError es un rechazo local, antes de cualquier llamada.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Kind del mensaje transitorio.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification es un mensaje transitorio; se muestra uno a la vez.
type Notification struct {
	Kind Kind
	Text string
}

func (n Notification) Empty() bool { return n.Text == "" }

// DismissAfterMillis se expone a los templates (data-dismiss-after).
func (n Notification) DismissAfterMillis() int64 { return DisplayFor.Milliseconds() }

func Success(text string) Notification { return Notification{Kind: KindSuccess, Text: text} }
func Error(text string) Notification   { return Notification{Kind: KindError, Text: text} }
func Info(text string) Notification    { return Notification{Kind: KindInfo, Text: text} }

// Mensajes por defecto.
const (
	MsgNetwork      = "Network error. Please try again."
	MsgServer       = "Something went wrong. Please try again."
	MsgUnauthorized = "You are not allowed to do that."
)

// FromError traduce cualquier error a una notificación de error.
// Nil => notificación vacía.
func FromError(err error) Notification {
	if err == nil {
		return Notification{}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return Error(verr.Message)
	}

	var serr *ServerError
	if errors.As(err, &serr) {
		if msg := strings.TrimSpace(serr.Message); msg != "" {
			return Error(msg)
		}
		return Error(MsgServer)
	}

	switch {
	case errors.Is(err, ErrUnauthorizedAction):
		return Error(MsgUnauthorized)
	case errors.Is(err, ErrNetwork):
		return Error(MsgNetwork)
	}
	return Error(MsgServer)
}
