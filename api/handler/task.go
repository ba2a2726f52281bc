package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/repository"
	activityUC "github.com/fastygo/taskboard/usecase/activity"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc       *taskUC.UseCase
	activity *activityUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, activity *activityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		activity:    activity,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	args := ctx.QueryArgs()
	status, err := domain.ParseStatus(string(args.Peek("status")))
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}
	priority, err := domain.ParsePriority(string(args.Peek("priority")))
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	filter := repository.TaskFilter{
		OwnerID:    userID,
		Status:     status,
		Priority:   priority,
		CategoryID: string(args.Peek("category_id")),
		TagID:      string(args.Peek("tag_id")),
		Search:     string(args.Peek("search")),
		Limit:      parseInt(string(args.Peek("limit")), repository.DefaultListLimit),
		Offset:     parseInt(string(args.Peek("skip")), 0),
	}.Normalized()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	meta := transport.PageMeta{Skip: filter.Offset, Limit: filter.Limit, Count: len(tasks)}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(tasks, meta))
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	fields, ok := h.parseFields(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, userID, fields)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Replace task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	fields, ok := h.parseFields(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, pathParam(ctx, "id"), userID, fields)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, pathParam(ctx, "id"), userID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Assign a category by name
// @Tags tasks
// @Router /api/v1/tasks/{id}/category [post]
func (h *TaskHandler) AssignCategory(ctx *fasthttp.RequestCtx) {
	h.assign(ctx, h.uc.AssignCategoryByName)
}

// @Summary Add a tag by name
// @Tags tasks
// @Router /api/v1/tasks/{id}/tags [post]
func (h *TaskHandler) AssignTag(ctx *fasthttp.RequestCtx) {
	h.assign(ctx, h.uc.AssignTagByName)
}

type assignFunc func(stdCtx context.Context, id, actorID, name string) (*domain.Task, error)

func (h *TaskHandler) assign(ctx *fasthttp.RequestCtx, fn assignFunc) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.NameRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := fn(stdCtx, pathParam(ctx, "id"), userID, req.Name)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Schedule a reminder
// @Tags tasks
// @Router /api/v1/tasks/{id}/reminder [put]
func (h *TaskHandler) SetReminder(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ReminderRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.SetReminder(stdCtx, pathParam(ctx, "id"), userID, *req.RemindAt)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Task activity log
// @Tags tasks
// @Router /api/v1/tasks/{id}/activity [get]
func (h *TaskHandler) ListActivity(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.activity.ListForTask(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}

func (h *TaskHandler) parseFields(ctx *fasthttp.RequestCtx) (domain.TaskFields, bool) {
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return domain.TaskFields{}, false
	}
	fields, err := req.Fields()
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return domain.TaskFields{}, false
	}
	return fields, true
}
