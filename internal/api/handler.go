package api

import (
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/util"
	"inventory-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	inventory    *service.InventoryService
	reservations *service.ReservationService
	transfers    *service.TransferService
	forecasts    *service.ForecastService
	hub          *ws.Hub
}

// NewHandler creates a new HTTP handler
func NewHandler(
	inventory *service.InventoryService,
	reservations *service.ReservationService,
	transfers *service.TransferService,
	forecasts *service.ForecastService,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		inventory:    inventory,
		reservations: reservations,
		transfers:    transfers,
		forecasts:    forecasts,
		hub:          hub,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", h.hub.HandleWebSocket)

	v1 := router.Group("/api/v1")
	{
		inv := v1.Group("/inventory")
		{
			inv.POST("", h.createInventory)
			inv.GET("/low-stock", h.getLowStock)
			inv.GET("/barcode/:barcode", h.getInventoryByBarcode)
			inv.GET("/alerts", h.listAlerts)
			inv.PUT("/alerts/:id", h.updateAlert)
			inv.GET("/forecast", h.forecastAll)

			inv.GET("/:product_id", h.getInventory)
			inv.PUT("/:product_id", h.updateInventory)
			inv.GET("/:product_id/history", h.getHistory)
			inv.GET("/:product_id/forecast", h.getForecast)

			inv.POST("/reserve", h.createReservation)
			inv.GET("/reserve/:id", h.getReservation)
			inv.POST("/reserve/:id/confirm", h.confirmReservation)
			inv.POST("/reserve/:id/release", h.releaseReservation)
			inv.POST("/reserve/release-by-order/:order_id", h.releaseByOrder)
			inv.POST("/reserve/release-by-session/:session_id", h.releaseBySession)

			inv.POST("/transfer", h.createTransfer)
			inv.GET("/transfer/:id", h.getTransfer)
			inv.POST("/transfer/:id/start", h.startTransfer)
			inv.POST("/transfer/:id/complete", h.completeTransfer)
			inv.POST("/transfer/:id/cancel", h.cancelTransfer)
		}
	}
}

// respondError maps error kinds to stable HTTP status/code pairs
func respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindInsufficientStock:
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"message": err.Error(),
			"code":    string(kind),
		},
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func optionalQuery(c *gin.Context, key string) *string {
	if val := c.Query(key); val != "" {
		return &val
	}
	return nil
}

// createInventory handles first stock entry for a product/warehouse pair
func (h *Handler) createInventory(c *gin.Context) {
	var req service.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body: %v", err))
		return
	}

	rec, err := h.inventory.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

// getInventory returns records for a product, one when warehouse_id is given
func (h *Handler) getInventory(c *gin.Context) {
	productID := c.Param("product_id")
	warehouseID := optionalQuery(c, "warehouse_id")

	records, err := h.inventory.Get(c.Request.Context(), productID, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(records) == 0 {
		respondError(c, errs.NotFound("inventory not found for product %s", productID))
		return
	}

	if len(records) == 1 {
		c.JSON(http.StatusOK, gin.H{"data": records[0]})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *Handler) getInventoryByBarcode(c *gin.Context) {
	rec, err := h.inventory.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (h *Handler) updateInventory(c *gin.Context) {
	productID := c.Param("product_id")
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		respondError(c, errs.Validation("warehouse_id query parameter is required"))
		return
	}

	var patch models.InventoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, errs.Validation("invalid request body: %v", err))
		return
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		respondError(c, errs.Validation("quantity must not be negative"))
		return
	}

	rec, err := h.inventory.Update(c.Request.Context(), productID, warehouseID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (h *Handler) getLowStock(c *gin.Context) {
	var threshold *int
	if val := c.Query("threshold"); val != "" {
		t, err := strconv.Atoi(val)
		if err != nil || t < 0 {
			respondError(c, errs.Validation("threshold must be a non-negative integer"))
			return
		}
		threshold = &t
	}

	records, err := h.inventory.ListLowStock(c.Request.Context(), threshold, optionalQuery(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

func (h *Handler) getHistory(c *gin.Context) {
	productID := c.Param("product_id")
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		respondError(c, errs.Validation("warehouse_id query parameter is required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.inventory.History(c.Request.Context(), productID, warehouseID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
}

func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.inventory.ListActiveAlerts(c.Request.Context(), optionalQuery(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "count": len(alerts)})
}

func (h *Handler) updateAlert(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body: %v", err))
		return
	}

	alert, err := h.inventory.SetAlertStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alert})
}

func (h *Handler) getForecast(c *gin.Context) {
	productID := c.Param("product_id")
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		respondError(c, errs.Validation("warehouse_id query parameter is required"))
		return
	}

	forecast, err := h.forecasts.Forecast(c.Request.Context(), productID, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forecast})
}

func (h *Handler) forecastAll(c *gin.Context) {
	forecasts, err := h.forecasts.ForecastAll(c.Request.Context(), optionalQuery(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forecasts, "count": len(forecasts)})
}

func (h *Handler) createReservation(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body: %v", err))
		return
	}

	res, err := h.reservations.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *Handler) getReservation(c *gin.Context) {
	res, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *Handler) confirmReservation(c *gin.Context) {
	res, err := h.reservations.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *Handler) releaseReservation(c *gin.Context) {
	if err := h.reservations.Release(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation released successfully"})
}

func (h *Handler) releaseByOrder(c *gin.Context) {
	if err := h.reservations.ReleaseByOrderID(c.Request.Context(), c.Param("order_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservations released successfully"})
}

func (h *Handler) releaseBySession(c *gin.Context) {
	if err := h.reservations.ReleaseBySessionID(c.Request.Context(), c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservations released successfully"})
}

func (h *Handler) createTransfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body: %v", err))
		return
	}

	tr, err := h.transfers.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tr})
}

func (h *Handler) getTransfer(c *gin.Context) {
	tr, err := h.transfers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tr})
}

func (h *Handler) startTransfer(c *gin.Context) {
	tr, err := h.transfers.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tr})
}

func (h *Handler) completeTransfer(c *gin.Context) {
	tr, err := h.transfers.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tr})
}

func (h *Handler) cancelTransfer(c *gin.Context) {
	tr, err := h.transfers.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tr})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
