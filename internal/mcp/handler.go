package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/domain/report"
)

const defaultActivityLimit = 20

// TemplateService defines template operations needed by MCP.
type TemplateService interface {
	Create(ctx context.Context, userID string, req obligation.CreateRequest) (*obligation.Template, error)
	Get(ctx context.Context, id string) (*obligation.Template, error)
	ListByOwner(ctx context.Context, userID string) ([]obligation.Template, error)
	Update(ctx context.Context, userID, id string, req obligation.UpdateRequest) (*obligation.Template, error)
	Delete(ctx context.Context, userID, id string) error
}

// ContractService defines contract operations needed by MCP.
type ContractService interface {
	Create(ctx context.Context, userID string, req contract.CreateRequest) (*contract.Contract, error)
	Get(ctx context.Context, userID, id string) (*contract.Contract, error)
	ListForUser(ctx context.Context, userID string) ([]contract.Contract, error)
	SetActive(ctx context.Context, userID, id string, active bool) (*contract.Contract, error)
	Join(ctx context.Context, userID, id string) (*contract.Contract, error)
	Delete(ctx context.Context, userID, id string) error
}

// InstanceService defines ledger operations needed by MCP.
type InstanceService interface {
	CurrentWeek() time.Time
	GenerateWeek(ctx context.Context, contractID string, weekStart time.Time) (*instance.GenerateResult, error)
	ListWeek(ctx context.Context, userID, contractID string, weekStart time.Time) ([]instance.Instance, error)
	ObligationsToComplete(ctx context.Context, userID, contractID string) (*instance.DueSet, error)
	SetCompletion(ctx context.Context, userID, instanceID string, completed bool, at time.Time) (*instance.Instance, error)
	MarkViewed(ctx context.Context, viewerID string, instanceIDs []string, at time.Time) (int, error)
	UnviewedCompletions(ctx context.Context, userID, contractID string) ([]instance.Instance, error)
}

// ReportService defines report operations needed by MCP.
type ReportService interface {
	BuildReport(ctx context.Context, userID, contractID string, weeksAgo int) (*report.StatusReport, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Templates TemplateService
	Contracts ContractService
	Instances InstanceService
	Reports   ReportService
	Activity  ActivityService
}

// Handler dispatches MCP commands.
type Handler struct {
	templates TemplateService
	contracts ContractService
	instances InstanceService
	reports   ReportService
	activity  ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	return &Handler{
		templates: services.Templates,
		contracts: services.Contracts,
		instances: services.Instances,
		reports:   services.Reports,
		activity:  services.Activity,
	}
}

// Handle dispatches MCP requests to domain services. Domain errors are
// returned as *APIError.
func (h *Handler) Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, userID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	// Templates
	case "create_template":
		var req CreateTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, err := req.Recurrence.Recurrence()
		if err != nil {
			return nil, err
		}
		return h.templates.Create(ctx, userID, obligation.CreateRequest{
			Title:      req.Title,
			Icon:       req.Icon,
			Recurrence: rec,
		})
	case "update_template":
		var req UpdateTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		update := obligation.UpdateRequest{Title: req.Title, Icon: req.Icon}
		if req.Recurrence != nil {
			rec, err := req.Recurrence.Recurrence()
			if err != nil {
				return nil, err
			}
			update.Recurrence = rec
		}
		return h.templates.Update(ctx, userID, req.ID, update)
	case "delete_template":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.templates.Delete(ctx, userID, req.ID); err != nil {
			return nil, err
		}
		return DeletedResponse{ID: req.ID, Deleted: true}, nil
	case "get_template":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.templates.Get(ctx, req.ID)
	case "list_templates":
		return h.templates.ListByOwner(ctx, userID)

	// Contracts
	case "create_contract":
		var req CreateContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		create := contract.CreateRequest{
			Title:          req.Title,
			ParticipantIDs: req.ParticipantIDs,
			TemplateIDs:    req.TemplateIDs,
			Activate:       req.Activate,
		}
		if req.DueDate != "" {
			due, err := h.parseDate(req.DueDate)
			if err != nil {
				return nil, err
			}
			due = calendar.EndOfDay(due)
			create.DueDate = &due
		}
		return h.contracts.Create(ctx, userID, create)
	case "get_contract":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.contracts.Get(ctx, userID, req.ContractID)
	case "list_contracts":
		return h.contracts.ListForUser(ctx, userID)
	case "activate_contract", "deactivate_contract":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.contracts.SetActive(ctx, userID, req.ContractID, method == "activate_contract")
	case "join_contract":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.contracts.Join(ctx, userID, req.ContractID)
	case "delete_contract":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.contracts.Delete(ctx, userID, req.ContractID); err != nil {
			return nil, err
		}
		return DeletedResponse{ID: req.ContractID, Deleted: true}, nil

	// Ledger
	case "generate_week":
		var req WeekParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		weekStart, err := h.weekStart(req.Week)
		if err != nil {
			return nil, err
		}
		if _, err := h.contracts.Get(ctx, userID, req.ContractID); err != nil {
			return nil, err
		}
		return h.instances.GenerateWeek(ctx, req.ContractID, weekStart)
	case "list_week":
		var req WeekParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		weekStart, err := h.weekStart(req.Week)
		if err != nil {
			return nil, err
		}
		instances, err := h.instances.ListWeek(ctx, userID, req.ContractID, weekStart)
		if err != nil {
			return nil, err
		}
		if instances == nil {
			instances = []instance.Instance{}
		}
		return WeekResponse{ContractID: req.ContractID, Week: calendar.WeekKey(weekStart), Instances: instances}, nil
	case "obligations_to_complete":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.instances.ObligationsToComplete(ctx, userID, req.ContractID)
	case "set_completion":
		var req SetCompletionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		completed := req.Completed == nil || *req.Completed
		return h.instances.SetCompletion(ctx, userID, req.InstanceID, completed, time.Time{})
	case "mark_viewed":
		var req MarkViewedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		n, err := h.instances.MarkViewed(ctx, userID, req.InstanceIDs, time.Time{})
		if err != nil {
			return nil, err
		}
		return MarkViewedResponse{Marked: n}, nil
	case "unviewed_completions":
		var req ContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		instances, err := h.instances.UnviewedCompletions(ctx, userID, req.ContractID)
		if err != nil {
			return nil, err
		}
		if instances == nil {
			instances = []instance.Instance{}
		}
		return instances, nil

	// Reporting
	case "status_report":
		var req StatusReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		weeksAgo := 1
		if req.WeeksAgo != nil {
			weeksAgo = *req.WeeksAgo
		}
		return h.reports.BuildReport(ctx, userID, req.ContractID, weeksAgo)
	case "recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.contracts.Get(ctx, userID, req.ContractID); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			ContractID: req.ContractID,
			UserID:     req.UserID,
			InstanceID: req.InstanceID,
			Limit:      req.Limit,
			Offset:     req.Offset,
		}
		if opts.Limit <= 0 {
			opts.Limit = defaultActivityLimit
		}
		if req.ActivityType != nil {
			typ := activity.ActivityType(*req.ActivityType)
			opts.ActivityType = &typ
		}
		entries, err := h.activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidParams(err)
	}
	return nil
}

// weekStart resolves an optional date to the start of its week.
func (h *Handler) weekStart(date string) (time.Time, error) {
	current := h.instances.CurrentWeek()
	if strings.TrimSpace(date) == "" {
		return current, nil
	}
	t, err := h.parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return calendar.StartOfWeek(t), nil
}

func (h *Handler) parseDate(date string) (time.Time, error) {
	t, err := calendar.ParseWeekKey(strings.TrimSpace(date), h.instances.CurrentWeek().Location())
	if err != nil {
		return time.Time{}, invalidParams(err)
	}
	return t, nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
