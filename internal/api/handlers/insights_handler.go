package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demandlens/internal/analytics"
	"github.com/andresuchdata/demandlens/internal/domain"
	"github.com/andresuchdata/demandlens/internal/service"
)

type InsightsHandler struct {
	service *service.InsightsService
}

func NewInsightsHandler(service *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

// GetDashboard serves the dashboard overview: totals, the paged at-risk
// list and the top products by gross profit.
func (h *InsightsHandler) GetDashboard(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "page must be an integer")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		badRequest(c, "page_size must be an integer")
		return
	}

	var asOf *time.Time
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			badRequest(c, "as_of must be a YYYY-MM-DD date")
			return
		}
		parsed = parsed.UTC()
		asOf = &parsed
	}

	overview, err := h.service.DashboardOverview(c.Request.Context(), asOf, page, pageSize)
	if err != nil {
		kindResponse(c, err, "failed to compute dashboard overview")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetProduct serves one product's overview. The window defaults to the
// trailing 12 months; mode=calendar_year with a year pins it instead.
func (h *InsightsHandler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "product id must be an integer")
		return
	}

	mode := domain.WindowMode(c.DefaultQuery("mode", string(domain.WindowTrailing12)))

	var year int
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "year must be an integer")
			return
		}
	}

	overview, err := h.service.ProductOverview(c.Request.Context(), productID, mode, year)
	if err != nil {
		kindResponse(c, err, "failed to compute product overview")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetCustomer serves one customer's trailing-12 overview.
func (h *InsightsHandler) GetCustomer(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "customer id must be an integer")
		return
	}

	overview, err := h.service.CustomerOverview(c.Request.Context(), customerID)
	if err != nil {
		kindResponse(c, err, "failed to compute customer overview")
		return
	}

	c.JSON(http.StatusOK, overview)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// kindResponse maps a classified computation error to an HTTP status.
// Retrieval failures surface as 502 so callers can tell a flaky store
// apart from a bug in the engine.
func kindResponse(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch analytics.KindOf(err) {
	case analytics.KindInvalidInput:
		status = http.StatusBadRequest
	case analytics.KindNotFound:
		status = http.StatusNotFound
	case analytics.KindRetrieval:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
