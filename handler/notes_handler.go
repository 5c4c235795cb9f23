package handler

import (
	"errors"
	"strconv"

	"main/dto"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NoteHandler struct {
	Notes *usecase.NoteService
}

func NewNoteHandler(notes *usecase.NoteService) *NoteHandler {
	return &NoteHandler{Notes: notes}
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.Notes.CreateNote(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		utils.InternalError(c, "Failed to create note")
		return
	}

	utils.Created(c, resp)
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	resp, err := h.Notes.GetNote(c.Request.Context(), noteID, c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to fetch note")
		return
	}

	utils.Success(c, resp)
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.Notes.UpdateNote(c.Request.Context(), noteID, c.GetString("user_id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoteNotFound):
			utils.NotFound(c, "Note not found")
		case errors.Is(err, repository.ErrNoteConflict):
			utils.Conflict(c, "Note was modified concurrently")
		default:
			utils.InternalError(c, "Failed to update note")
		}
		return
	}

	utils.Success(c, resp)
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	err := h.Notes.DeleteNote(c.Request.Context(), noteID, c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to delete note")
		return
	}

	utils.Success(c, gin.H{"message": "Note deleted successfully"})
}

func (h *NoteHandler) GetNotes(c *gin.Context) {
	page, size := pageParams(c)

	resp, err := h.Notes.GetNotes(c.Request.Context(), c.GetString("user_id"), page, size)
	if err != nil {
		utils.InternalError(c, "Failed to fetch notes")
		return
	}

	utils.Success(c, resp)
}

func (h *NoteHandler) GetNoteHistory(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}
	page, size := pageParams(c)

	resp, err := h.Notes.GetNoteHistory(c.Request.Context(), noteID, c.GetString("user_id"), page, size)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to fetch note history")
		return
	}

	utils.Success(c, resp)
}

func noteIDParam(c *gin.Context) (string, bool) {
	noteID := c.Param("id")
	if _, err := uuid.Parse(noteID); err != nil {
		utils.BadRequest(c, "Invalid note id")
		return "", false
	}
	return noteID, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	return page, size
}
