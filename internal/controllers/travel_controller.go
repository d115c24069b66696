package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/hyperdemos/internal/middleware"
	"github.com/osvaldoandrade/hyperdemos/internal/paginate"
	"github.com/osvaldoandrade/hyperdemos/internal/services"
	"github.com/osvaldoandrade/hyperdemos/internal/travel"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"github.com/gin-gonic/gin"
)

type validateCityController struct{ svc services.TravelService }

func NewValidateCityController(svc services.TravelService) *validateCityController {
	return &validateCityController{svc}
}

func (h *validateCityController) Handle(c *gin.Context) {
	place, err := h.svc.ValidateCity(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

type destinationsPage struct {
	paginate.Page[travel.Destination]
	Search   travel.Search      `json:"search"`
	Excluded []domain.Exclusion `json:"excluded,omitempty"`
}

type travelSearchController struct {
	svc    services.TravelService
	signer *middleware.StateSigner
}

func NewTravelSearchController(svc services.TravelService, signer *middleware.StateSigner) *travelSearchController {
	return &travelSearchController{svc: svc, signer: signer}
}

func (h *travelSearchController) Handle(c *gin.Context) {
	var req travel.Search
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	res, err := h.svc.Search(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	st := middleware.TravelState{
		Search:       req,
		Destinations: res.Destinations,
		Cursor:       paginate.Cursor{}.For(res.Destinations),
	}
	tok, err := h.signer.Issue(st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(middleware.StateHeader, tok)
	c.JSON(http.StatusOK, destinationsPage{
		Page:     paginate.Paginate(res.Destinations, pageSize(c), 1),
		Search:   req,
		Excluded: res.Excluded,
	})
}

type travelDestinationsController struct {
	signer *middleware.StateSigner
}

func NewTravelDestinationsController(signer *middleware.StateSigner) *travelDestinationsController {
	return &travelDestinationsController{signer: signer}
}

// Handle serves ?page=N of the search carried in the state token, clamped to
// the available pages, and returns the token with the moved cursor.
func (h *travelDestinationsController) Handle(c *gin.Context) {
	st, ok := middleware.State(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state"})
		return
	}
	cur := st.Cursor.For(st.Destinations)
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
			return
		}
		cur.Page = n
	}
	size := pageSize(c)
	cur.Page = paginate.Clamp(cur.Page, len(st.Destinations), size)
	st.Cursor = cur

	tok, err := h.signer.Issue(st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(middleware.StateHeader, tok)
	c.JSON(http.StatusOK, destinationsPage{
		Page:   paginate.Paginate(st.Destinations, size, cur.Page),
		Search: st.Search,
	})
}

func pageSize(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("size"))
	if err != nil || n <= 0 || n > 50 {
		return paginate.DefaultPageSize
	}
	return n
}

type plansPage struct {
	*services.PlansResult
	Destination travel.Destination `json:"destination"`
}

type travelPlansController struct {
	svc    services.TravelService
	signer *middleware.StateSigner
}

func NewTravelPlansController(svc services.TravelService, signer *middleware.StateSigner) *travelPlansController {
	return &travelPlansController{svc: svc, signer: signer}
}

// Handle plans days at one of the destinations of the search in the state
// token and marks it as the selected destination.
func (h *travelPlansController) Handle(c *gin.Context) {
	st, ok := middleware.State(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state"})
		return
	}
	dest, ok := st.Destination(c.Param("location"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "destination is not part of this search", "location": c.Param("location")})
		return
	}
	res, err := h.svc.Plans(c.Request.Context(), dest.Location)
	if err != nil {
		writeError(c, err)
		return
	}
	st.Selected = dest.Location
	tok, err := h.signer.Issue(st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(middleware.StateHeader, tok)
	c.JSON(http.StatusOK, plansPage{PlansResult: res, Destination: dest})
}
