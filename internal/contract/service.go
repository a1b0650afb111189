package contract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/teacher-contracts/internal"
	contractDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/contract"
	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	"github.com/frahmantamala/teacher-contracts/internal/user"
)

// Query is a listing request after visibility has been resolved.
type Query struct {
	Scope     Scope
	Statuses  []Status
	Type      Type
	TeacherID string
	Search    string
	Limit     int
	Offset    int
}

type RepositoryAPI interface {
	Create(ctx context.Context, c *contractDatamodel.Contract) error
	GetByID(ctx context.Context, id string) (*contractDatamodel.Contract, error)
	Update(ctx context.Context, c *contractDatamodel.Contract) error
	List(ctx context.Context, q Query) ([]*contractDatamodel.Contract, int64, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type TemplateProvider interface {
	Get(ctx context.Context, id string) (*template.ContractTemplate, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	users     UserDirectory
	templates TemplateProvider
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, users UserDirectory, templates TemplateProvider, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		templates: templates,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateContract stores a new draft. Teachers may only create contracts for
// themselves.
func (s *Service) CreateContract(ctx context.Context, actor coreUser.Actor, dto CreateContractDTO) (*Contract, error) {
	start, end, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	if actor.IsTeacher() && dto.TeacherID != actor.ID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if actor.IsDeptAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}

	teacher, err := s.users.GetByID(ctx, dto.TeacherID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up teacher", err)
	}
	if teacher == nil || teacher.Role != coreUser.RoleTeacher {
		return nil, internal.NewValidationFieldError("teacher_id", "teacher_id must name a teacher", internal.ErrCodeUserNotFound)
	}

	if dto.TemplateID != nil && *dto.TemplateID != "" {
		if _, err := s.templates.Get(ctx, *dto.TemplateID); err != nil {
			return nil, err
		}
	} else {
		dto.TemplateID = nil
	}

	c := NewContract(uuid.NewString(), dto, start, end, s.now())

	row, err := ToDataModel(c)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode contract", err)
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create contract", "teacher_id", c.TeacherID, "error", err)
		return nil, internal.NewInternalError("failed to create contract", err)
	}

	s.logger.Info("contract created",
		"contract_id", c.ID,
		"teacher_id", c.TeacherID,
		"type", c.Type,
		"actor_id", actor.ID)

	s.publish(ctx, events.NewContractCreatedEvent(c.ID, c.TeacherID, teacher.Department(), string(c.Type), c.Title, actor.ID))
	return c, nil
}

// UpdateContractStatus moves a contract to newStatus on behalf of actorID.
// An unknown contract id is not an error: it returns nil, nil and changes
// nothing.
func (s *Service) UpdateContractStatus(ctx context.Context, contractID string, newStatus Status, actorID, reason string) (*Contract, error) {
	if !newStatus.Valid() {
		return nil, internal.NewValidationFieldError("status", "unknown contract status "+string(newStatus), internal.ErrCodeInvalidStatus)
	}

	c, err := s.load(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.logger.Warn("status update for unknown contract ignored", "contract_id", contractID, "status", newStatus, "actor_id", actorID)
		return nil, nil
	}

	actorUser, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up actor", err)
	}
	if actorUser == nil {
		return nil, internal.ErrUserNotFound
	}
	actor := actorUser.Actor()

	action, ok := ActionFor(c.Status, newStatus)
	if !ok {
		return nil, illegalTransition(c.Status, "", actor.Role, newStatus)
	}

	return s.apply(ctx, c, action, actor, reason)
}

// Transition performs action on a contract on behalf of actor.
func (s *Service) Transition(ctx context.Context, contractID string, action Action, actor coreUser.Actor, reason string) (*Contract, error) {
	if !action.Valid() {
		return nil, internal.NewValidationFieldError("action", "unknown action "+string(action), internal.ErrCodeInvalidFieldValue)
	}

	c, err := s.load(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, internal.ErrContractNotFound
	}

	return s.apply(ctx, c, action, actor, reason)
}

func (s *Service) apply(ctx context.Context, c *Contract, action Action, actor coreUser.Actor, reason string) (*Contract, error) {
	from := c.Status
	to, ok := Next(from, action, actor.Role)
	if !ok {
		s.logger.Warn("illegal contract transition",
			"contract_id", c.ID,
			"from", from,
			"action", action,
			"role", actor.Role,
			"actor_id", actor.ID)
		return nil, illegalTransition(from, action, actor.Role, "")
	}

	teacherDept, err := s.teacherDepartment(ctx, c.TeacherID)
	if err != nil {
		return nil, err
	}
	if !s.mayAct(c, actor, teacherDept) {
		s.logger.Warn("contract action outside actor scope",
			"contract_id", c.ID,
			"action", action,
			"actor_id", actor.ID,
			"actor_department", actor.DepartmentID,
			"teacher_department", teacherDept)
		return nil, internal.ErrUnauthorizedAccess
	}

	if action == ActionSubmit && c.TemplateID != nil {
		tpl, err := s.templates.Get(ctx, *c.TemplateID)
		if err != nil {
			return nil, err
		}
		if err := tpl.ValidateData(c.Data); err != nil {
			return nil, err
		}
	}

	c.moveTo(to, actor.ID, strings.TrimSpace(reason), s.now())

	row, err := ToDataModel(c)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode contract", err)
	}
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update contract status", "contract_id", c.ID, "error", err)
		return nil, internal.NewInternalError("failed to update contract", err)
	}

	s.logger.Info("contract status changed",
		"contract_id", c.ID,
		"from", from,
		"to", to,
		"action", action,
		"actor_id", actor.ID)

	s.publish(ctx, events.NewContractStatusChangedEvent(events.StatusChange{
		ContractID:   c.ID,
		TeacherID:    c.TeacherID,
		DepartmentID: teacherDept,
		Title:        c.Title,
		FromStatus:   string(from),
		ToStatus:     string(to),
		Action:       string(action),
		ActorID:      actor.ID,
		Reason:       strings.TrimSpace(reason),
	}))
	return c, nil
}

// mayAct applies ownership and department checks on top of the role table.
func (s *Service) mayAct(c *Contract, actor coreUser.Actor, teacherDept string) bool {
	switch actor.Role {
	case coreUser.RoleHRAdmin:
		return true
	case coreUser.RoleTeacher:
		return c.TeacherID == actor.ID
	case coreUser.RoleDeptAdmin:
		return teacherDept != "" && teacherDept == actor.DepartmentID
	}
	return false
}

// GetContract returns nil, nil for an unknown id and ErrUnauthorizedAccess
// when the viewer may not see the contract.
func (s *Service) GetContract(ctx context.Context, id string, viewer coreUser.Actor) (*Contract, error) {
	c, err := s.load(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}

	teacherDept := ""
	if viewer.IsDeptAdmin() {
		if teacherDept, err = s.teacherDepartment(ctx, c.TeacherID); err != nil {
			return nil, err
		}
	}
	if !CanView(c, viewer, teacherDept) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return c, nil
}

// AvailableActions lists what viewer can do to c right now.
func (s *Service) AvailableActions(ctx context.Context, c *Contract, viewer coreUser.Actor) []Action {
	if c.Status.IsFinal() {
		return []Action{}
	}
	candidates := ActionsFor(c.Status, viewer.Role)
	if len(candidates) == 0 {
		return []Action{}
	}
	teacherDept, err := s.teacherDepartment(ctx, c.TeacherID)
	if err != nil {
		s.logger.Warn("could not resolve teacher department", "contract_id", c.ID, "error", err)
		return []Action{}
	}
	if !s.mayAct(c, viewer, teacherDept) {
		return []Action{}
	}
	return candidates
}

// GetUserContracts returns every contract of one teacher, newest first.
func (s *Service) GetUserContracts(ctx context.Context, teacherID string) ([]*Contract, error) {
	rows, _, err := s.repo.List(ctx, Query{Scope: Scope{TeacherID: teacherID}})
	if err != nil {
		s.logger.Error("failed to list teacher contracts", "teacher_id", teacherID, "error", err)
		return nil, internal.NewInternalError("failed to list contracts", err)
	}
	return fromDataModels(rows)
}

func (s *Service) ListContracts(ctx context.Context, viewer coreUser.Actor, filter ListFilter) ([]*Contract, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	scope := ScopeFor(viewer)
	if scope.Empty() {
		return []*Contract{}, 0, nil
	}

	q := Query{
		Scope:     scope,
		Type:      filter.Type,
		TeacherID: filter.TeacherID,
		Search:    strings.TrimSpace(filter.Search),
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if filter.Status != "" {
		q.Statuses = []Status{filter.Status}
	}

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("failed to list contracts", "viewer_id", viewer.ID, "error", err)
		return nil, 0, internal.NewInternalError("failed to list contracts", err)
	}
	contracts, err := fromDataModels(rows)
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

// ListPendingApprovals returns the queue the viewer is expected to work:
// pending_dept of their department for department admins, pending_hr for HR.
func (s *Service) ListPendingApprovals(ctx context.Context, viewer coreUser.Actor) ([]*Contract, error) {
	status, ok := PendingStatusFor(viewer.Role)
	if !ok {
		return []*Contract{}, nil
	}
	scope := ScopeFor(viewer)
	if scope.Empty() {
		return []*Contract{}, nil
	}

	rows, _, err := s.repo.List(ctx, Query{Scope: scope, Statuses: []Status{status}})
	if err != nil {
		s.logger.Error("failed to list pending approvals", "viewer_id", viewer.ID, "error", err)
		return nil, internal.NewInternalError("failed to list pending approvals", err)
	}
	return fromDataModels(rows)
}

// UpdateDraft lets the owner (or HR) edit a contract that has not been
// submitted yet.
func (s *Service) UpdateDraft(ctx context.Context, id string, actor coreUser.Actor, dto UpdateDraftDTO) (*Contract, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, internal.ErrContractNotFound
	}
	if !(actor.IsHRAdmin() || (actor.IsTeacher() && c.TeacherID == actor.ID)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !c.IsDraft() {
		return nil, internal.ErrCannotModifyContract
	}

	start, end := c.StartDate.Format(dateLayout), c.EndDate.Format(dateLayout)
	if dto.StartDate != nil {
		start = *dto.StartDate
	}
	if dto.EndDate != nil {
		end = *dto.EndDate
	}
	if dto.StartDate != nil || dto.EndDate != nil {
		if c.StartDate, c.EndDate, err = parseRange(start, end); err != nil {
			return nil, err
		}
	}

	if dto.Title != nil {
		c.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.TemplateID != nil {
		if *dto.TemplateID == "" {
			c.TemplateID = nil
		} else {
			if _, err := s.templates.Get(ctx, *dto.TemplateID); err != nil {
				return nil, err
			}
			c.TemplateID = dto.TemplateID
		}
	}
	if dto.FileURL != nil {
		c.FileURL = dto.FileURL
	}
	if dto.Data != nil {
		c.Data = dto.Data
	}
	if dto.Attachments != nil {
		c.Attachments = dto.Attachments
	}
	c.UpdatedAt = s.now()

	row, err := ToDataModel(c)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode contract", err)
	}
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update draft", "contract_id", c.ID, "error", err)
		return nil, internal.NewInternalError("failed to update contract", err)
	}

	s.logger.Info("draft updated", "contract_id", c.ID, "actor_id", actor.ID)
	return c, nil
}

func (s *Service) load(ctx context.Context, id string) (*Contract, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load contract", "contract_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load contract", err)
	}
	if row == nil {
		return nil, nil
	}
	c, err := FromDataModel(row)
	if err != nil {
		return nil, internal.NewInternalError("corrupt contract row", err)
	}
	return c, nil
}

func (s *Service) teacherDepartment(ctx context.Context, teacherID string) (string, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return "", internal.NewInternalError("failed to look up teacher", err)
	}
	if teacher == nil {
		return "", nil
	}
	return teacher.Department(), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func illegalTransition(from Status, action Action, role coreUser.Role, to Status) error {
	details := map[string]string{
		"from": string(from),
		"role": string(role),
	}
	msg := fmt.Sprintf("%s cannot %s a contract in status %s", role, action, from)
	if action == "" {
		details["to"] = string(to)
		msg = fmt.Sprintf("%s cannot move a contract from %s to %s", role, from, to)
	} else {
		details["action"] = string(action)
	}
	return internal.NewConflictError(msg, internal.ErrCodeIllegalTransition).WithDetails(details)
}

func fromDataModels(rows []*contractDatamodel.Contract) ([]*Contract, error) {
	contracts := make([]*Contract, 0, len(rows))
	for _, row := range rows {
		c, err := FromDataModel(row)
		if err != nil {
			return nil, internal.NewInternalError("corrupt contract row", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}
