package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/hyperdemos/internal/changelog"
	"github.com/osvaldoandrade/hyperdemos/internal/services"

	"github.com/gin-gonic/gin"
)

type changelogController struct{ svc services.ChangelogService }

func NewChangelogController(svc services.ChangelogService) *changelogController {
	return &changelogController{svc}
}

type changelogReq struct {
	RepoURL string `json:"repoUrl" binding:"required"`
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
	AI      bool   `json:"ai"`
}

// Handle returns the JSON result, or one rendering as a markdown download
// when ?download=standard|categorized|ai is given.
func (h *changelogController) Handle(c *gin.Context) {
	var req changelogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	download := c.Query("download")
	r := changelog.Range{RepoURL: req.RepoURL, Start: req.Start, End: req.End}
	res, err := h.svc.Generate(c.Request.Context(), r, req.AI || download == "ai")
	if err != nil {
		writeError(c, err)
		return
	}

	var text string
	switch download {
	case "":
		c.JSON(http.StatusOK, res)
		return
	case "standard":
		text = res.Standard
	case "categorized":
		text = res.Categorized
	case "ai":
		text = res.AI
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "download must be standard, categorized or ai"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+r.FileName(download)+`"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
}
