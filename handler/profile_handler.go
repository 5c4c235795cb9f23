package handler

import (
	"errors"

	"main/dto"
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	Users    *repository.UsersRepo
	Sessions *repository.SessionsRepo
}

func NewProfileHandler(users *repository.UsersRepo, sessions *repository.SessionsRepo) *ProfileHandler {
	return &ProfileHandler{Users: users, Sessions: sessions}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.FindUserByID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.NotFound(c, "User not found")
			return
		}
		utils.InternalError(c, "Failed to fetch profile")
		return
	}

	utils.Success(c, dto.ToUserProfileResponse(user))
}

func (h *ProfileHandler) GetSessions(c *gin.Context) {
	sessions, err := h.Sessions.GetActiveSessions(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}

	utils.Success(c, gin.H{"sessions": sessions})
}
