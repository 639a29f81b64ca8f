package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

type transitionEdge struct {
	from, to models.SurveyStatus
}

// transitionRoles is the sole source of truth for the lifecycle: any
// (from, to) pair not listed here is rejected, and each listed edge names
// the only role that may take it. Archival is special-cased below because
// it is reachable from every state.
var transitionRoles = map[transitionEdge]models.Role{
	{models.StatusDraft, models.StatusScheduled}:  models.RoleMeditecAdmin, // release to assigned tenants
	{models.StatusScheduled, models.StatusActive}: models.RoleCompanyAdmin, // tenant opts in
	{models.StatusScheduled, models.StatusDraft}:  models.RoleMeditecAdmin, // recall
	{models.StatusActive, models.StatusDraft}:     models.RoleMeditecAdmin, // recall
	{models.StatusActive, models.StatusCompleted}: models.RoleCompanyAdmin, // tenant closes participation
}

// Lifecycle validates and applies survey status transitions.
type Lifecycle struct {
	surveys repository.SurveyRepository
	access  *Resolver
	logger  *zap.Logger
	now     func() time.Time
}

func NewLifecycle(surveys repository.SurveyRepository, access *Resolver, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{surveys: surveys, access: access, logger: logger, now: time.Now}
}

// Transition moves survey to target on behalf of principal.
//
// The current status is normalized first so rows persisted with the legacy
// pending/in_progress values take part in the canonical table; the legacy
// values themselves are never written back. Status changes never touch
// blocks or questions.
func (l *Lifecycle) Transition(ctx context.Context, principal models.Principal, survey *models.Survey, target models.SurveyStatus) (*models.Survey, error) {
	from := models.NormalizeStatus(survey.Status)
	to := models.NormalizeStatus(target)
	if !models.ValidStatus(to) {
		return nil, NewValidationError(fmt.Sprintf("unknown status %q", target))
	}

	var required models.Role
	if to == models.StatusArchived {
		required = models.RoleMeditecAdmin
	} else {
		role, ok := transitionRoles[transitionEdge{from, to}]
		if !ok {
			return nil, NewInvalidTransitionError(fmt.Sprintf("no transition from %q to %q", from, to))
		}
		required = role
	}

	if principal.Role != required {
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
	// Company-side edges additionally require the tenant to pass the
	// assignment predicate; an admin of an unassigned company must not be
	// able to activate or close the survey.
	if required == models.RoleCompanyAdmin {
		if _, err := l.access.Resolve(ctx, principal, survey); err != nil {
			return nil, err
		}
	}

	ok, err := l.surveys.UpdateStatus(ctx, survey.ID, survey.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update survey status: %w", err)
	}
	if !ok {
		return nil, NewConflictError(fmt.Sprintf("survey no longer in status %q", from))
	}

	l.logger.Info("survey status changed",
		zap.String("survey", survey.PublicID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", principal.UserID),
	)

	updated := *survey
	updated.Status = to
	updated.UpdatedAt = l.now()
	return &updated, nil
}
