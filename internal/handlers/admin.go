package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/auth"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/conversation"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/project"
)

// ProjectStore is the project CRUD surface the admin API needs.
type ProjectStore interface {
	Create(ctx context.Context, input project.CreateInput) (project.Project, error)
	Get(ctx context.Context, id int64) (project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
	Update(ctx context.Context, id int64, input project.UpdateInput) (project.Project, error)
	Delete(ctx context.Context, id int64) error
}

// ConversationStore is the read side of the message log for the admin views.
type ConversationStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]conversation.Message, error)
	ListAll(ctx context.Context) ([]conversation.Entry, error)
	CountByProject(ctx context.Context) ([]conversation.ProjectCount, error)
}

// AdminHandler serves the authenticated management API: project CRUD plus
// the conversation and analytics read views.
type AdminHandler struct {
	projects      ProjectStore
	conversations ConversationStore
	logger        *slog.Logger
}

type projectDetailsResponse struct {
	Project  project.Project        `json:"project"`
	Messages []conversation.Message `json:"messages"`
}

type analyticsResponse struct {
	TotalProjects int64                       `json:"total_projects"`
	TotalMessages int64                       `json:"total_messages"`
	Projects      []conversation.ProjectCount `json:"projects"`
}

func NewAdminHandler(log *slog.Logger, projects ProjectStore, conversations ConversationStore) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		projects:      projects,
		conversations: conversations,
		logger:        log.With(slog.String("handler", "admin")),
	}
}

func (h *AdminHandler) Register(e *echo.Echo) {
	admin := e.Group("/admin")
	admin.POST("/projects", h.CreateProject)
	admin.GET("/projects", h.ListProjects)
	admin.GET("/projects/:id", h.GetProject)
	admin.PUT("/projects/:id", h.UpdateProject)
	admin.DELETE("/projects/:id", h.DeleteProject)
	admin.GET("/projects/:id/details", h.ProjectDetails)
	admin.GET("/conversations", h.ListConversations)
	admin.GET("/analytics", h.Analytics)
}

func (h *AdminHandler) CreateProject(c echo.Context) error {
	var input project.CreateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	proj, err := h.projects.Create(c.Request().Context(), input)
	if err != nil {
		return projectError(err)
	}
	return c.JSON(http.StatusCreated, proj)
}

func (h *AdminHandler) ListProjects(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *AdminHandler) GetProject(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	proj, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return projectError(err)
	}
	return c.JSON(http.StatusOK, proj)
}

func (h *AdminHandler) UpdateProject(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	var input project.UpdateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	proj, err := h.projects.Update(c.Request().Context(), id, input)
	if err != nil {
		return projectError(err)
	}
	return c.JSON(http.StatusOK, proj)
}

func (h *AdminHandler) DeleteProject(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), id); err != nil {
		return projectError(err)
	}
	adminID, _ := auth.AdminIDFromContext(c)
	h.logger.Info("project deleted via admin api",
		slog.Int64("project_id", id),
		slog.String("admin_id", adminID),
	)
	return c.NoContent(http.StatusNoContent)
}

// ProjectDetails returns a project together with its full message log.
func (h *AdminHandler) ProjectDetails(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	proj, err := h.projects.Get(ctx, id)
	if err != nil {
		return projectError(err)
	}
	messages, err := h.conversations.ListByProject(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, projectDetailsResponse{Project: proj, Messages: messages})
}

func (h *AdminHandler) ListConversations(c echo.Context) error {
	entries, err := h.conversations.ListAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *AdminHandler) Analytics(c echo.Context) error {
	counts, err := h.conversations.CountByProject(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := analyticsResponse{Projects: counts}
	resp.TotalProjects = int64(len(counts))
	for _, count := range counts {
		resp.TotalMessages += count.MessageCount
	}
	return c.JSON(http.StatusOK, resp)
}

func projectID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}
	return id, nil
}

func projectError(err error) error {
	switch {
	case errors.Is(err, project.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	case errors.Is(err, project.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrPhoneNumberIDTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
