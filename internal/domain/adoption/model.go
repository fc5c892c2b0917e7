package adoption

import (
	"context"
	"strings"

	"pet-adoption-web/internal/domain/notify"
)

const MsgFieldsRequired = "Please fill in all fields"

// Application es la solicitud de adopción que se envía al backend.
type Application struct {
	PetID           int64
	Experience      string
	LivingSituation string
	Reason          string
}

func (a Application) Trimmed() Application {
	a.Experience = strings.TrimSpace(a.Experience)
	a.LivingSituation = strings.TrimSpace(a.LivingSituation)
	a.Reason = strings.TrimSpace(a.Reason)
	return a
}

// Validate rechaza campos vacíos o solo-espacios. Un solo error para todo el form.
func (a Application) Validate() error {
	t := a.Trimmed()
	if t.PetID <= 0 || t.Experience == "" || t.LivingSituation == "" || t.Reason == "" {
		return &notify.ValidationError{Message: MsgFieldsRequired}
	}
	return nil
}

// Submitter envía solicitudes; devuelve el mensaje del backend.
type Submitter interface {
	Apply(ctx context.Context, token string, a Application) (string, error)
}

// Deleter borra mascotas (solo admin en el backend).
type Deleter interface {
	DeletePet(ctx context.Context, token string, petID int64) (string, error)
}

// Recorder recibe métricas de acciones.
type Recorder interface {
	ActionCompleted(action, outcome string)
}
