package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medilens/internal/prefs"
	"medilens/internal/transport/http/response"
)

type PreferenceHandler struct {
	store *prefs.Store
}

type SetPreferenceRequest struct {
	Value string `json:"value" binding:"required,max=256"`
}

func NewPreferenceHandler(store *prefs.Store) *PreferenceHandler {
	return &PreferenceHandler{store: store}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	key := c.Param("key")
	if !prefs.ValidKey(key) {
		response.Error(c, http.StatusNotFound, response.CodePreferenceUnknown, "unknown preference key")
		return
	}

	value, found, err := h.store.Get(c.Request.Context(), userID, key)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get preference failed")
		return
	}

	response.OK(c, gin.H{"key": key, "value": value, "set": found})
}

func (h *PreferenceHandler) Set(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	key := c.Param("key")
	if !prefs.ValidKey(key) {
		response.Error(c, http.StatusNotFound, response.CodePreferenceUnknown, "unknown preference key")
		return
	}

	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.store.Set(c.Request.Context(), userID, key, req.Value); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "set preference failed")
		return
	}

	response.OK(c, gin.H{"key": key, "value": req.Value})
}

func (h *PreferenceHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	key := c.Param("key")
	if !prefs.ValidKey(key) {
		response.Error(c, http.StatusNotFound, response.CodePreferenceUnknown, "unknown preference key")
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, key); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete preference failed")
		return
	}

	response.OK(c, gin.H{"key": key})
}
