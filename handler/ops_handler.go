package handler

import (
	"main/scheduler"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OpsHandler exposes administrative operations used by tests and ops
// tooling. These endpoints are not part of the steady-state request path.
type OpsHandler struct {
	Limiter    *services.RateLimiter
	Expiration *scheduler.NoteExpirationScheduler
}

func NewOpsHandler(limiter *services.RateLimiter, expiration *scheduler.NoteExpirationScheduler) *OpsHandler {
	return &OpsHandler{Limiter: limiter, Expiration: expiration}
}

// ResetRateLimit clears every rate-limit counter for the caller.
func (h *OpsHandler) ResetRateLimit(c *gin.Context) {
	deleted, err := h.Limiter.Reset(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to reset rate limit")
		return
	}

	utils.Success(c, gin.H{"deleted": deleted})
}

// TriggerExpiration fires a pending expiration job without waiting for
// its scheduled time.
func (h *OpsHandler) TriggerExpiration(c *gin.Context) {
	noteID := c.Param("id")
	if _, err := uuid.Parse(noteID); err != nil {
		utils.BadRequest(c, "Invalid note id")
		return
	}

	if err := h.Expiration.TriggerNow(noteID); err != nil {
		utils.NotFound(c, "No pending expiration job for note")
		return
	}

	utils.Success(c, gin.H{"message": "Expiration job triggered"})
}
