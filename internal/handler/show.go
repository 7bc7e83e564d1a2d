package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/repository"
)

// ScheduleNotifier announces schedule changes to the notification
// collaborator. This service never waits on delivery.
type ScheduleNotifier interface {
	ShowRescheduled(ctx context.Context, show *model.Show, filmTitle string, oldStart time.Time) error
	ShowCancelled(ctx context.Context, show *model.Show, filmTitle string) error
}

// ShowHandler exposes show scheduling changes relevant to the cash
// subsystem: reschedule/cancel (which notify) and delete (which is refused
// while drawer history exists).
type ShowHandler struct {
	Shows    *repository.ShowRepo
	Films    *repository.FilmRepo
	Notifier ScheduleNotifier
}

func NewShowHandler(shows *repository.ShowRepo, films *repository.FilmRepo, notifier ScheduleNotifier) *ShowHandler {
	if shows == nil || films == nil {
		panic("nil repository passed to NewShowHandler")
	}
	return &ShowHandler{Shows: shows, Films: films, Notifier: notifier}
}

// ListShows handles GET /v1/shows?from= and lists upcoming shows.
func (h *ShowHandler) ListShows(c echo.Context) error {
	from := time.Now()
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		from = parsed
	}
	shows, err := h.Shows.ListUpcoming(c.Request().Context(), from)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]echo.Map, 0, len(shows))
	for i := range shows {
		items = append(items, showResponse(&shows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func showResponse(s *model.Show) echo.Map {
	return echo.Map{
		"id":          s.ID,
		"film_id":     s.FilmID,
		"starts_at":   s.StartsAt,
		"bol_id":      s.BolID,
		"operator_id": s.OperatorID,
		"status":      s.Status,
	}
}

// UpdateSchedule handles PATCH /v1/shows/:id/schedule. Moving or cancelling
// a show publishes a notification; a publish failure is logged and ignored,
// the schedule change is already committed.
func (h *ShowHandler) UpdateSchedule(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		StartsAt  time.Time `json:"starts_at"`
		Cancelled bool      `json:"cancelled"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	status := model.ShowScheduled
	if body.Cancelled {
		status = model.ShowCancelled
	}
	prev, err := h.Shows.UpdateSchedule(c.Request().Context(), showID, body.StartsAt, status)
	if err != nil {
		return writeError(c, err)
	}

	updated, err := h.Shows.GetByID(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}

	if h.Notifier != nil {
		title := h.filmTitle(c.Request().Context(), updated.FilmID)
		if body.Cancelled {
			if err := h.Notifier.ShowCancelled(c.Request().Context(), updated, title); err != nil {
				log.Printf("show %d: cancel notification failed: %v", showID, err)
			}
		} else if !prev.StartsAt.Equal(updated.StartsAt) {
			if err := h.Notifier.ShowRescheduled(c.Request().Context(), updated, title, prev.StartsAt); err != nil {
				log.Printf("show %d: reschedule notification failed: %v", showID, err)
			}
		}
	}
	return c.JSON(http.StatusOK, showResponse(updated))
}

// DeleteShow handles DELETE /v1/shows/:id. A show carrying a cash report is
// never deleted.
func (h *ShowHandler) DeleteShow(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	if err := h.Shows.Delete(c.Request().Context(), showID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ShowHandler) filmTitle(ctx context.Context, filmID uint64) string {
	f, err := h.Films.GetByID(ctx, filmID)
	if err != nil {
		return "Spettacolo"
	}
	return f.Title
}
