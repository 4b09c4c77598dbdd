package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"locker-tab-backend/internal/export"
	"locker-tab-backend/internal/model"
	"locker-tab-backend/internal/session"
)

// stateView is the JSON form of a session state.
type stateView struct {
	State       int                   `json:"state"`
	StateName   string                `json:"stateName"`
	UserName    string                `json:"userName"`
	History     []model.HistoryRecord `json:"history"`
	SelectedBox *int                  `json:"selectedBox,omitempty"`
	Message     string                `json:"message,omitempty"`
	Actions     []string              `json:"actions"`
}

func newStateView(s session.State) stateView {
	history := s.History
	if history == nil {
		history = []model.HistoryRecord{}
	}
	return stateView{
		State:       int(s.UI),
		StateName:   s.UI.String(),
		UserName:    s.UserName,
		History:     history,
		SelectedBox: s.SelectedBox,
		Message:     s.Message,
		Actions:     s.Actions(),
	}
}

// scanConfig is passed to the host's barcode scanner by the page.
type scanConfig struct {
	TimeOutIntervalInSec int `json:"timeOutIntervalInSec"`
}

type createSessionRequest struct {
	UserPrincipalName string `json:"userPrincipalName"`
}

// CreateSession starts a tab session. Without a user principal name the
// session stays uninitialized.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, st, err := h.sessions.Create(c.Request.Context(), requestHost{user: req.UserPrincipalName})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         id,
		"state":      newStateView(st),
		"scanConfig": scanConfig{TimeOutIntervalInSec: int(h.scanTTL / time.Second)},
	})
}

// GetSession returns the current state of a session.
func (h *Handler) GetSession(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateView(ctrl.Snapshot()))
}

// DeleteSession ends a session and cancels its timers.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.End(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type scanRequest struct {
	DecodedText string `json:"decodedText"`
	ErrorCode   *int   `json:"errorCode"`
}

// Scan feeds a scan callback into the session.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	st, err := ctrl.Scan(c.Request.Context(), requestHost{decodedText: req.DecodedText, errorCode: req.ErrorCode})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateView(st))
}

type boxRequest struct {
	BoxNumber *int `json:"boxNumber" binding:"required"`
}

// Confirm takes the offered box.
func (h *Handler) Confirm(c *gin.Context) {
	h.withBox(c, (*session.Controller).Confirm)
}

// Return gives a borrowed box back.
func (h *Handler) Return(c *gin.Context) {
	h.withBox(c, (*session.Controller).Return)
}

func (h *Handler) withBox(c *gin.Context, op func(*session.Controller, context.Context, int) (session.State, error)) {
	var req boxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	st, err := op(ctrl, c.Request.Context(), *req.BoxNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateView(st))
}

// ExportHistory downloads the session user's history as a workbook.
func (h *Handler) ExportHistory(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	st := ctrl.Snapshot()
	data, err := export.History(st.UserName, st.History)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "locker-history.xlsx"))
	c.Data(http.StatusOK, export.ContentType, data)
}
