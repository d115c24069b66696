package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/hyperdemos/internal/services"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"github.com/gin-gonic/gin"
)

type extractArticleController struct{ svc services.ArticleService }

func NewExtractArticleController(svc services.ArticleService) *extractArticleController {
	return &extractArticleController{svc}
}

type extractArticleReq struct {
	URL string `json:"url" binding:"required"`
}

func (h *extractArticleController) Handle(c *gin.Context) {
	var req extractArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	a, err := h.svc.Extract(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type speechController struct{ svc services.ArticleService }

func NewSpeechController(svc services.ArticleService) *speechController {
	return &speechController{svc}
}

type speechReq struct {
	domain.Article
	Voice string `json:"voice" binding:"required"`
	Model string `json:"model"`
}

func (h *speechController) Handle(c *gin.Context) {
	var req speechReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	sp, err := h.svc.Speak(c.Request.Context(), services.SpeechRequest{Article: req.Article, Voice: req.Voice, Model: req.Model})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("X-Speech-Voice", sp.Voice)
	c.Header("X-Speech-Model", sp.Model)
	c.Header("X-Speech-Characters", strconv.Itoa(sp.Characters))
	if sp.URL != "" {
		c.Header("X-Speech-Location", sp.URL)
	}
	c.Data(http.StatusOK, "audio/mpeg", sp.Audio)
}

type creditsController struct{ svc services.ArticleService }

func NewCreditsController(svc services.ArticleService) *creditsController {
	return &creditsController{svc}
}

func (h *creditsController) Handle(c *gin.Context) {
	cr, err := h.svc.Credits(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"used": cr.Used, "limit": cr.Limit, "remaining": cr.Remaining()})
}
