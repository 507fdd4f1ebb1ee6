package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// ContextUpsert carries one write against a node's context document. The
// Context patch merges shallowly, Notes replaces when the pointer is set.
type ContextUpsert struct {
	SessionID     string
	FutureStateID string
	Context       map[string]any
	Notes         *string
}

// StepContextService manages the per-node Q&A context documents. There is no
// node existence check on writes: context survives node deletion and may be
// captured before the node lands, so the document key is trusted as given.
type StepContextService struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewStepContextService creates a new step context service.
func NewStepContextService(persistence persistence.Persistence, logger *slog.Logger) *StepContextService {
	return &StepContextService{
		persistence: persistence,
		logger:      logger,
	}
}

// Get loads a node's context document. Returns nil without error when the node
// has no document yet.
func (s *StepContextService) Get(ctx context.Context, nodeID string) (*models.StepContext, error) {
	stepContext, err := s.persistence.StepContextRepository().GetByNodeID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError("GetStepContext", err)
	}

	return stepContext, nil
}

// Upsert creates or updates a node's context document. Creation requires the
// session and future-state references; updates merge the patch into the stored
// document.
func (s *StepContextService) Upsert(ctx context.Context, nodeID string, upsert ContextUpsert) (*models.StepContext, error) {
	const op = "UpsertStepContext"

	if nodeID == "" {
		return nil, NewValidationError(op, "node_id is required")
	}

	stepContext, err := s.persistence.StepContextRepository().GetByNodeID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if stepContext == nil {
		if upsert.SessionID == "" || upsert.FutureStateID == "" {
			return nil, NewValidationError(op, "session_id and future_state_id are required to create a context document")
		}

		stepContext = &models.StepContext{
			NodeID:        nodeID,
			SessionID:     upsert.SessionID,
			FutureStateID: upsert.FutureStateID,
		}
	}

	stepContext.MergePatch(upsert.Context)

	if upsert.Notes != nil {
		stepContext.Notes = *upsert.Notes
	}

	if err := s.persistence.StepContextRepository().Save(ctx, stepContext); err != nil {
		return nil, NewInternalError(op, err)
	}

	return stepContext, nil
}

// AnswerQuestion records an answer on one question of a node's context
// document. Answering a question id the document does not contain leaves the
// document untouched.
func (s *StepContextService) AnswerQuestion(ctx context.Context, nodeID, questionID, answer, userID string) (*models.StepContext, error) {
	const op = "AnswerQuestion"

	if questionID == "" {
		return nil, NewValidationError(op, "question_id is required")
	}

	stepContext, err := s.persistence.StepContextRepository().GetByNodeID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if stepContext == nil {
		return nil, NewNotFoundError(op, "step context", nodeID)
	}

	if !stepContext.AnswerQuestion(questionID, answer, userID, time.Now().UTC()) {
		s.logger.WarnContext(ctx, "Answer targeted an unknown question",
			"node_id", nodeID, "question_id", questionID)

		return stepContext, nil
	}

	if err := s.persistence.StepContextRepository().Save(ctx, stepContext); err != nil {
		return nil, NewInternalError(op, err)
	}

	return stepContext, nil
}
