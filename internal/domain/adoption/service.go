package adoption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/domain/session"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrNotSupported  = errors.New("action not supported by catalog")
)

const (
	MsgApplied = "Application submitted successfully!"
	MsgDeleted = "Pet deleted successfully"
)

const (
	ActionApply  = "apply"
	ActionDelete = "delete"
)

type Service struct {
	submitter  Submitter
	deleter    Deleter
	adminEmail string
	metrics    Recorder
}

// NewService: submitter/deleter nil => la acción no está disponible.
func NewService(submitter Submitter, deleter Deleter, adminEmail string, metrics Recorder) *Service {
	if strings.TrimSpace(adminEmail) == "" {
		adminEmail = session.DefaultAdminEmail
	}
	return &Service{
		submitter:  submitter,
		deleter:    deleter,
		adminEmail: adminEmail,
		metrics:    metrics,
	}
}

func (s *Service) AdminEmail() string { return s.adminEmail }

// CanDelete indica si se ofrece el botón de borrar. Solo es una pista.
func (s *Service) CanDelete(st session.State) bool {
	return s.deleter != nil && st.IsAdmin(s.adminEmail)
}

// Apply valida localmente y, si todo está completo, envía la solicitud.
// Con un form inválido no hay llamada al backend.
func (s *Service) Apply(ctx context.Context, st session.State, token string, a Application) (notify.Notification, error) {
	if !st.IsAuthenticated() {
		return notify.Notification{}, ErrLoginRequired
	}
	if err := a.Validate(); err != nil {
		s.record(ActionApply, "invalid")
		return notify.Notification{}, err
	}
	if s.submitter == nil {
		return notify.Notification{}, ErrNotSupported
	}

	msg, err := s.submitter.Apply(ctx, token, a.Trimmed())
	if err != nil {
		s.record(ActionApply, "failed")
		return notify.Notification{}, fmt.Errorf("apply for pet %d: %w", a.PetID, err)
	}

	s.record(ActionApply, "ok")
	if strings.TrimSpace(msg) == "" {
		msg = MsgApplied
	}
	return notify.Success(msg), nil
}

// Delete borra la mascota si la identidad es admin. La confirmación ya la hizo la UI.
func (s *Service) Delete(ctx context.Context, st session.State, token string, petID int64) (notify.Notification, error) {
	if !st.IsAdmin(s.adminEmail) {
		s.record(ActionDelete, "unauthorized")
		return notify.Notification{}, notify.ErrUnauthorizedAction
	}
	if s.deleter == nil {
		return notify.Notification{}, ErrNotSupported
	}

	msg, err := s.deleter.DeletePet(ctx, token, petID)
	if err != nil {
		s.record(ActionDelete, "failed")
		return notify.Notification{}, fmt.Errorf("delete pet %d: %w", petID, err)
	}

	s.record(ActionDelete, "ok")
	if strings.TrimSpace(msg) == "" {
		msg = MsgDeleted
	}
	return notify.Success(msg), nil
}

func (s *Service) record(action, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ActionCompleted(action, outcome)
}
