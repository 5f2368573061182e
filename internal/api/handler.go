package api

import (
	"net/http"
	"strconv"
	"time"

	"inventra-server/internal/auth"
	"inventra-server/internal/models"
	"inventra-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	resolver  auth.TokenResolver
	stock     *service.StockService
	transfers *service.TransferService
	catalog   *service.CatalogService
	orders    *service.OrderService
	limits    *service.LimitService
	users     *service.UserService
	reports   *service.ReportService
	audit     *service.Recorder
}

// NewHandler creates a new HTTP handler
func NewHandler(
	resolver auth.TokenResolver,
	stock *service.StockService,
	transfers *service.TransferService,
	catalog *service.CatalogService,
	orders *service.OrderService,
	limits *service.LimitService,
	users *service.UserService,
	reports *service.ReportService,
	audit *service.Recorder,
) *Handler {
	return &Handler{
		resolver:  resolver,
		stock:     stock,
		transfers: transfers,
		catalog:   catalog,
		orders:    orders,
		limits:    limits,
		users:     users,
		reports:   reports,
		audit:     audit,
	}
}

// SetupRoutes sets up HTTP routes. Reads need staff, mutations need manager,
// audit and billing need admin.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(h.resolver))

	manager := requireRole(auth.RoleManager)
	admin := requireRole(auth.RoleAdmin)
	{
		v1.GET("/stock-adjustments", h.listAdjustments)
		v1.GET("/stock-adjustments/:id", h.getAdjustment)
		v1.POST("/stock-adjustments", manager, h.createAdjustment)
		v1.PUT("/stock-adjustments/:id", manager, h.updateAdjustment)
		v1.DELETE("/stock-adjustments/:id", manager, h.deleteAdjustment)

		v1.GET("/stock-transfers", h.listTransfers)
		v1.POST("/stock-transfers", manager, h.createTransfer)
		v1.GET("/inventory", h.listBalances)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:sku", h.getProduct)
		v1.POST("/products", manager, h.createProduct)
		v1.PUT("/products/:sku", manager, h.updateProduct)
		v1.DELETE("/products/:sku", manager, h.deleteProduct)

		v1.GET("/categories", h.listCategories)
		v1.POST("/categories", manager, h.createCategory)
		v1.DELETE("/categories/:id", manager, h.deleteCategory)
		v1.GET("/suppliers", h.listSuppliers)
		v1.POST("/suppliers", manager, h.createSupplier)
		v1.DELETE("/suppliers/:id", manager, h.deleteSupplier)
		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", manager, h.createCustomer)
		v1.DELETE("/customers/:id", manager, h.deleteCustomer)
		v1.GET("/locations", h.listLocations)
		v1.POST("/locations", manager, h.createLocation)

		v1.GET("/purchase-orders", h.listOrders(models.OrderKindPurchase))
		v1.GET("/purchase-orders/:id", h.getOrder(models.OrderKindPurchase))
		v1.POST("/purchase-orders", manager, h.createOrder(models.OrderKindPurchase))
		v1.POST("/purchase-orders/:id/approve", manager, h.approveOrder(models.OrderKindPurchase))

		v1.GET("/sales-orders", h.listOrders(models.OrderKindSales))
		v1.GET("/sales-orders/:id", h.getOrder(models.OrderKindSales))
		v1.POST("/sales-orders", manager, h.createOrder(models.OrderKindSales))
		v1.POST("/sales-orders/:id/approve", manager, h.approveOrder(models.OrderKindSales))

		v1.GET("/reports", h.inventoryReport)

		v1.GET("/users", admin, h.listUsers)
		v1.POST("/users", admin, h.inviteUser)
		v1.PUT("/users/:id/role", admin, h.assignUserRole)

		v1.GET("/audit-logs", admin, h.listAuditLogs)
		v1.GET("/billing/status", admin, h.billingStatus)
		v1.GET("/billing/plans", admin, h.listPlans)
		v1.POST("/billing/refresh", admin, h.refreshBillingCache)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) createAdjustment(c *gin.Context) {
	var req service.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	adj, err := h.stock.CreateAdjustment(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, adj)
}

func (h *Handler) updateAdjustment(c *gin.Context) {
	var req service.UpdateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.ID = c.Param("id")

	adj, err := h.stock.UpdateAdjustment(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, adj)
}

func (h *Handler) deleteAdjustment(c *gin.Context) {
	if err := h.stock.DeleteAdjustment(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getAdjustment(c *gin.Context) {
	adj, err := h.stock.GetAdjustment(c.Request.Context(), tenantFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, adj)
}

func (h *Handler) listAdjustments(c *gin.Context) {
	adjustments, err := h.stock.GetAdjustments(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}

func (h *Handler) createTransfer(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	transfer, err := h.transfers.CreateTransfer(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

func (h *Handler) listTransfers(c *gin.Context) {
	transfers, err := h.transfers.GetTransfers(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

func (h *Handler) listBalances(c *gin.Context) {
	balances, err := h.transfers.GetBalances(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.SKU = c.Param("sku")

	product, err := h.catalog.UpdateProduct(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), tenantFrom(c), c.Param("sku")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), tenantFrom(c), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.GetProducts(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type createNamedRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), tenantFrom(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.GetCategories(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) createSupplier(c *gin.Context) {
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	supplier, err := h.catalog.CreateSupplier(c.Request.Context(), tenantFrom(c), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handler) deleteSupplier(c *gin.Context) {
	if err := h.catalog.DeleteSupplier(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.catalog.GetSuppliers(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	customer, err := h.catalog.CreateCustomer(c.Request.Context(), tenantFrom(c), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	if err := h.catalog.DeleteCustomer(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.catalog.GetCustomers(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handler) createLocation(c *gin.Context) {
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	location, err := h.catalog.CreateLocation(c.Request.Context(), tenantFrom(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *Handler) listLocations(c *gin.Context) {
	locations, err := h.catalog.GetLocations(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (h *Handler) createOrder(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		order, err := h.orders.CreateOrder(c.Request.Context(), tenantFrom(c), kind, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func (h *Handler) approveOrder(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Action string `json:"action"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		order, err := h.orders.Approve(c.Request.Context(), tenantFrom(c), kind, c.Param("id"), req.Action)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (h *Handler) getOrder(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, lines, err := h.orders.GetOrder(c.Request.Context(), tenantFrom(c), kind, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order, "lines": lines})
	}
}

func (h *Handler) listOrders(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.orders.GetOrders(c.Request.Context(), tenantFrom(c), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func (h *Handler) listAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.audit.GetAuditLogs(c.Request.Context(), tenantFrom(c).OrgID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) billingStatus(c *gin.Context) {
	plan, sub, usage, err := h.limits.Status(c.Request.Context(), tenantFrom(c).OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":         plan,
		"subscription": sub,
		"usage":        usage,
	})
}

func (h *Handler) listPlans(c *gin.Context) {
	plans, err := h.limits.Plans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *Handler) refreshBillingCache(c *gin.Context) {
	if err := h.limits.InvalidateCachedPlan(c.Request.Context(), tenantFrom(c).OrgID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) inventoryReport(c *gin.Context) {
	report, err := h.reports.InventorySummary(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) listUsers(c *gin.Context) {
	profiles, err := h.users.GetUsers(c.Request.Context(), tenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

func (h *Handler) inviteUser(c *gin.Context) {
	var req service.InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	profile, err := h.users.InviteUser(c.Request.Context(), tenantFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *Handler) assignUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	profile, err := h.users.AssignRole(c.Request.Context(), tenantFrom(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
