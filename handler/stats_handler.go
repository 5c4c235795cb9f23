package handler

import (
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	Notes    *repository.NotesRepo
	Sessions *repository.SessionsRepo
}

func NewStatsHandler(notes *repository.NotesRepo, sessions *repository.SessionsRepo) *StatsHandler {
	return &StatsHandler{Notes: notes, Sessions: sessions}
}

// GetStats reports the caller's note and session counts together with a
// snapshot of process resource usage.
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	noteCount, err := h.Notes.CountUserNotes(ctx, userID)
	if err != nil {
		utils.InternalError(c, "Failed to count notes")
		return
	}

	sessionCount, err := h.Sessions.CountActiveSessions(ctx, userID)
	if err != nil {
		utils.InternalError(c, "Failed to count sessions")
		return
	}

	utils.Success(c, gin.H{
		"notes":           noteCount,
		"active_sessions": sessionCount,
		"system":          utils.GetSystemStats(),
	})
}
