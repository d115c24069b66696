package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hyperdemos/internal/services"

	"github.com/gin-gonic/gin"
)

type transcriptController struct{ svc services.TranscriptService }

func NewTranscriptController(svc services.TranscriptService) *transcriptController {
	return &transcriptController{svc}
}

type transcriptReq struct {
	URL        string `json:"url" binding:"required"`
	Timestamps bool   `json:"timestamps"`
}

func (h *transcriptController) Handle(c *gin.Context) {
	var req transcriptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	res, err := h.svc.Fetch(c.Request.Context(), req.URL, req.Timestamps)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type transcriptChatController struct{ svc services.TranscriptService }

func NewTranscriptChatController(svc services.TranscriptService) *transcriptChatController {
	return &transcriptChatController{svc}
}

func (h *transcriptChatController) Handle(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	reply, err := h.svc.Chat(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
