package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leanworks/futurestate/pkg/designagent"
	"github.com/leanworks/futurestate/pkg/eventbus"
	"github.com/leanworks/futurestate/pkg/events"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/otelhelper"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// GenerateInput names the node to design and who asked. Session and future
// state ids are derived from the node when left empty.
type GenerateInput struct {
	NodeID        string
	SessionID     string
	FutureStateID string
	UserID        string
	ResearchMode  bool
}

// GenerationResult is one committed generation cycle: the new design version,
// its options, and how many clarifying questions landed in the node's context
// document.
type GenerationResult struct {
	Version        *models.StepDesignVersion  `json:"version"`
	Options        []*models.StepDesignOption `json:"options"`
	QuestionsAdded int                        `json:"questions_added"`
	Cached         bool                       `json:"cached"`
}

// DesignService runs the step-design loop for a node: assemble everything
// known about the node, call the design agent, persist the proposed options as
// a new design version, and record decisions when an option is selected.
type DesignService struct {
	persistence persistence.Persistence
	agent       designagent.Agent
	status      *StatusService
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewDesignService creates a new design service.
func NewDesignService(persistence persistence.Persistence, agent designagent.Agent, status *StatusService, eventBus eventbus.EventBus, logger *slog.Logger) *DesignService {
	return &DesignService{
		persistence: persistence,
		agent:       agent,
		status:      status,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// GetBundle assembles the full design picture of one node: the node, its
// source step and linked solution when present, its context document, and
// every design version with options and assumptions expanded.
func (s *DesignService) GetBundle(ctx context.Context, nodeID string) (*models.StepDesignBundle, error) {
	const op = "GetDesignBundle"

	node, err := s.persistence.NodeRepository().GetByID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if node == nil {
		return nil, NewNotFoundError(op, "node", nodeID)
	}

	bundle := &models.StepDesignBundle{Node: node}

	if node.SourceStepID != nil && *node.SourceStepID != "" {
		step, err := s.persistence.ProcessStepRepository().GetByID(ctx, *node.SourceStepID)
		if err != nil {
			return nil, NewInternalError(op, err)
		}

		bundle.SourceStep = step
	}

	if node.HasLinkedSolution() {
		solution, err := s.persistence.SolutionRepository().GetByID(ctx, *node.LinkedSolutionID)
		if err != nil {
			return nil, NewInternalError(op, err)
		}

		bundle.Solution = solution
	}

	stepContext, err := s.persistence.StepContextRepository().GetByNodeID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	bundle.Context = stepContext

	versions, err := s.persistence.DesignRepository().ListVersionsByNode(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	bundle.Versions = make([]*models.StepDesignVersionView, 0, len(versions))

	for _, version := range versions {
		options, err := s.persistence.DesignRepository().ListOptionsByVersion(ctx, version.ID)
		if err != nil {
			return nil, NewInternalError(op, err)
		}

		view := &models.StepDesignVersionView{
			Version: version,
			Options: make([]*models.StepDesignOptionView, 0, len(options)),
		}

		for _, option := range options {
			assumptions, err := s.persistence.DesignRepository().ListAssumptionsByOption(ctx, option.ID)
			if err != nil {
				return nil, NewInternalError(op, err)
			}

			view.Options = append(view.Options, &models.StepDesignOptionView{
				Option:      option,
				Assumptions: assumptions,
			})
		}

		bundle.Versions = append(bundle.Versions, view)
	}

	return bundle, nil
}

// Generate runs one design iteration for a node. The agent sees the node, its
// solution and source step, the context document, unanswered questions, and
// prior decisions; its options are committed as the node's next design version.
// Nothing is persisted when the agent fails or proposes nothing. Clarifying
// questions merge into the context document best effort: a failure there is
// logged but never rolls back the committed designs.
func (s *DesignService) Generate(ctx context.Context, input GenerateInput) (*GenerationResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "design.service generate",
		attribute.String(otelhelper.NodeIDKey, input.NodeID),
		attribute.Bool("futurestate.design.research_mode", input.ResearchMode),
	)
	defer span.End()

	result, err := s.generate(ctx, input)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.DesignVersionIDKey, result.Version.ID))

	return result, nil
}

func (s *DesignService) generate(ctx context.Context, input GenerateInput) (*GenerationResult, error) {
	const op = "GenerateDesigns"

	bundle, err := s.GetBundle(ctx, input.NodeID)
	if err != nil {
		return nil, err
	}

	sessionID, futureStateID := input.SessionID, input.FutureStateID

	if sessionID == "" || futureStateID == "" {
		version, err := s.persistence.VersionRepository().GetByID(ctx, bundle.Node.VersionID)
		if err != nil {
			return nil, NewInternalError(op, err)
		}

		if version != nil && sessionID == "" {
			sessionID = version.SessionID
		}

		if futureStateID == "" {
			futureStateID = bundle.Node.VersionID
		}
	}

	result, err := s.agent.ProposeDesigns(ctx, buildAgentInput(bundle, sessionID, futureStateID, input.ResearchMode))
	if err != nil {
		return nil, NewAgentError(op, "design agent call failed", err)
	}

	if len(result.Options) == 0 {
		return nil, NewAgentError(op, "design agent returned no options", nil)
	}

	maxVersion, err := s.persistence.DesignRepository().MaxVersionNumber(ctx, input.NodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	version := &models.StepDesignVersion{
		ID:            uuid.New().String(),
		NodeID:        input.NodeID,
		SessionID:     sessionID,
		FutureStateID: futureStateID,
		Version:       maxVersion + 1,
		Status:        models.DesignVersionStatusDraft,
		CreatedBy:     input.UserID,
	}

	options := make([]*models.StepDesignOption, 0, len(result.Options))

	var assumptions []*models.DesignAssumption

	for _, proposal := range result.Options {
		option := &models.StepDesignOption{
			ID:               uuid.New().String(),
			DesignVersionID:  version.ID,
			Title:            proposal.Title,
			Summary:          proposal.Summary,
			Changes:          proposal.Changes,
			WastesAddressed:  proposal.WastesAddressed,
			Risks:            proposal.Risks,
			Dependencies:     proposal.Dependencies,
			Confidence:       proposal.Confidence,
			Patterns:         proposal.Patterns,
			Design:           proposal.Design,
			ResearchModeUsed: input.ResearchMode,
		}

		for _, a := range proposal.Assumptions {
			assumptions = append(assumptions, &models.DesignAssumption{
				ID:               uuid.New().String(),
				OptionID:         option.ID,
				Assumption:       a.Assumption,
				RiskIfWrong:      a.RiskIfWrong,
				ValidationMethod: a.ValidationMethod,
			})
		}

		options = append(options, option)
	}

	if err := s.persistence.DesignRepository().CreateVersionBatch(ctx, version, options, assumptions); err != nil {
		if persistence.IsDuplicateVersionNumber(err) {
			return nil, NewConflictError(op, "another design generation for this node finished first", err)
		}

		return nil, NewInternalError(op, err)
	}

	questionsAdded := s.mergeAgentQuestions(ctx, input.NodeID, sessionID, futureStateID, result.Questions)

	if _, err := s.status.RecomputeNodeStatus(ctx, input.NodeID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Generated design version",
		"node_id", input.NodeID,
		"design_version_id", version.ID,
		"version", version.Version,
		"options", len(options),
		"questions_added", questionsAdded,
		"research_mode", input.ResearchMode,
		"cached", result.Cached)

	event := events.DesignGenerated{
		BaseEvent:        events.NewBaseEvent(events.DesignGeneratedEvent, sessionID),
		NodeID:           input.NodeID,
		DesignVersionID:  version.ID,
		Version:          version.Version,
		OptionCount:      len(options),
		QuestionsAdded:   questionsAdded,
		ResearchModeUsed: input.ResearchMode,
	}
	event.UserID = input.UserID

	if err := s.eventBus.Publish(ctx, input.NodeID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish design generated event", "error", err, "node_id", input.NodeID)
	}

	return &GenerationResult{
		Version:        version,
		Options:        options,
		QuestionsAdded: questionsAdded,
		Cached:         result.Cached,
	}, nil
}

// SelectOption marks one option of a design version as the node's decision.
// The version becomes accepted, a previously accepted version is archived with
// its own selection kept as history, and the node's active design pointer moves
// to the version. Node status is rederived rather than assumed: accepting an
// old version while newer iterations exist does not complete the node.
func (s *DesignService) SelectOption(ctx context.Context, versionID, optionID, userID string) (*models.StepDesignVersion, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "design.service select_option",
		attribute.String(otelhelper.DesignVersionIDKey, versionID),
		attribute.String(otelhelper.OptionIDKey, optionID),
	)
	defer span.End()

	version, err := s.selectOption(ctx, versionID, optionID, userID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return version, nil
}

func (s *DesignService) selectOption(ctx context.Context, versionID, optionID, userID string) (*models.StepDesignVersion, error) {
	const op = "SelectDesignOption"

	version, err := s.persistence.DesignRepository().GetVersion(ctx, versionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if version == nil {
		return nil, NewNotFoundError(op, "design version", versionID)
	}

	option, err := s.persistence.DesignRepository().GetOption(ctx, optionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if option == nil || option.DesignVersionID != versionID {
		return nil, NewNotFoundError(op, "design option", optionID)
	}

	accepted, err := s.persistence.DesignRepository().GetAcceptedVersion(ctx, version.NodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if accepted != nil && accepted.ID != version.ID {
		accepted.Status = models.DesignVersionStatusArchived

		if err := s.persistence.DesignRepository().UpdateVersion(ctx, accepted); err != nil {
			return nil, NewInternalError(op, err)
		}
	}

	version.Status = models.DesignVersionStatusAccepted
	version.SelectedOptionID = &option.ID

	if err := s.persistence.DesignRepository().UpdateVersion(ctx, version); err != nil {
		return nil, NewInternalError(op, err)
	}

	node, err := s.persistence.NodeRepository().GetByID(ctx, version.NodeID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if node == nil {
		// Designs outlive their node; the decision still stands on its own.
		s.logger.WarnContext(ctx, "Selected option on a design version whose node no longer exists",
			"design_version_id", versionID, "node_id", version.NodeID)
	} else {
		node.ActiveStepDesignVersionID = &version.ID

		if err := s.persistence.NodeRepository().Update(ctx, node); err != nil {
			return nil, NewInternalError(op, err)
		}

		if _, err := s.status.RecomputeNodeStatus(ctx, node.ID); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "Selected design option",
		"node_id", version.NodeID, "design_version_id", versionID, "option_id", optionID)

	event := events.DesignOptionSelected{
		BaseEvent:       events.NewBaseEvent(events.DesignOptionSelectedEvent, version.SessionID),
		NodeID:          version.NodeID,
		DesignVersionID: versionID,
		OptionID:        optionID,
	}
	event.UserID = userID

	if err := s.eventBus.Publish(ctx, version.NodeID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish design option selected event", "error", err, "design_version_id", versionID)
	}

	return version, nil
}

// mergeAgentQuestions folds the agent's clarifying questions into the node's
// context document, deduplicated by question id. Returns how many were added.
// Failures are logged and swallowed: the generated designs are already
// committed and question loss must not fail the request.
func (s *DesignService) mergeAgentQuestions(ctx context.Context, nodeID, sessionID, futureStateID string, proposals []designagent.QuestionProposal) int {
	if len(proposals) == 0 {
		return 0
	}

	stepContext, err := s.persistence.StepContextRepository().GetByNodeID(ctx, nodeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load context document for question merge", "error", err, "node_id", nodeID)

		return 0
	}

	if stepContext == nil {
		stepContext = &models.StepContext{
			NodeID:        nodeID,
			SessionID:     sessionID,
			FutureStateID: futureStateID,
		}
	}

	questions := make([]models.ContextQuestion, 0, len(proposals))

	for _, proposal := range proposals {
		id := proposal.ID
		if id == "" {
			id = uuid.New().String()
		}

		questions = append(questions, models.ContextQuestion{
			ID:       id,
			Question: proposal.Question,
			Source:   "agent",
		})
	}

	added := stepContext.MergeQuestions(questions)
	if added == 0 {
		return 0
	}

	if err := s.persistence.StepContextRepository().Save(ctx, stepContext); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save agent questions to context document", "error", err, "node_id", nodeID)

		return 0
	}

	return added
}

// buildAgentInput flattens a design bundle into the agent's input: unanswered
// questions become open questions, decided versions become history entries.
func buildAgentInput(bundle *models.StepDesignBundle, sessionID, futureStateID string, researchMode bool) designagent.Input {
	input := designagent.Input{
		NodeID:          bundle.Node.ID,
		SessionID:       sessionID,
		FutureStateID:   futureStateID,
		NodeName:        bundle.Node.Name,
		NodeDescription: bundle.Node.Description,
		Lane:            bundle.Node.Lane,
		Action:          bundle.Node.Action,
		ResearchMode:    researchMode,
	}

	if bundle.Solution != nil {
		input.SolutionTitle = bundle.Solution.Title
		input.SolutionSummary = bundle.Solution.Summary
	}

	if bundle.SourceStep != nil {
		input.SourceStepName = bundle.SourceStep.Name
		input.SourceStepDescription = bundle.SourceStep.Description
	}

	if bundle.Context != nil {
		input.Context = bundle.Context.Context

		for _, question := range bundle.Context.Questions() {
			if question.Answer == "" {
				input.OpenQuestions = append(input.OpenQuestions, question.Question)
			}
		}
	}

	for _, decided := range bundle.DecidedVersions() {
		prior := designagent.PriorDesign{Version: decided.Version.Version}

		if selected := decided.SelectedOption(); selected != nil {
			prior.Title = selected.Option.Title
			prior.Summary = selected.Option.Summary
		}

		input.History = append(input.History, prior)
	}

	return input
}
