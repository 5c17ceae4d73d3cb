package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/repairdesk/internal/backend"
	"github.com/nurpe/repairdesk/internal/excel"
	"github.com/nurpe/repairdesk/internal/http/middleware"
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/service"
	"github.com/nurpe/repairdesk/internal/session"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 10 << 20
)

type Handler struct {
	sessions *session.Store
	orders   *service.OrderService
	imports  *service.ImportService
	docs     *service.DocumentService
	log      zerolog.Logger
}

func NewHandler(sessions *session.Store, orders *service.OrderService, imports *service.ImportService, docs *service.DocumentService, log zerolog.Logger) *Handler {
	return &Handler{sessions: sessions, orders: orders, imports: imports, docs: docs, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/sessions")
	protected.Use(authMiddleware)
	protected.POST("", h.createSession)
	protected.GET("/:id", h.getSession)
	protected.DELETE("/:id", h.deleteSession)
	protected.POST("/:id/reset", h.resetDraft)

	protected.GET("/:id/orders", h.listOrders)
	protected.POST("/:id/orders/refresh", h.refreshOrders)
	protected.POST("/:id/orders", h.createOrder)
	protected.PUT("/:id/orders", h.updateOrder)
	protected.GET("/:id/orders/export.xlsx", h.exportOrders)
	protected.POST("/:id/orders/:orderID/load", h.loadOrder)
	protected.POST("/:id/orders/:orderID/duplicate", h.duplicateOrder)
	protected.POST("/:id/orders/:orderID/reopen", h.reopenOrder)

	protected.PATCH("/:id/draft", h.patchDraft)
	protected.PUT("/:id/draft/spare-parts", h.setSpareParts)
	protected.POST("/:id/draft/spare-parts/append", h.appendSpareParts)
	protected.PUT("/:id/draft/amount", h.setAmount)
	protected.PUT("/:id/draft/equipment", h.selectEquipment)
	protected.GET("/:id/draft/sheet.pdf", h.orderSheet)

	protected.GET("/:id/clients", h.listClients)
	protected.POST("/:id/clients", h.createClient)
	protected.PUT("/:id/clients/:clientID", h.updateClient)
	protected.GET("/:id/equipment", h.listEquipment)
	protected.POST("/:id/equipment", h.createEquipment)
	protected.PUT("/:id/equipment/:equipmentID", h.updateEquipment)

	protected.POST("/:id/actions/:action", h.runAction)

	protected.GET("/:id/catalog/:kind", h.listCatalog)
	protected.POST("/:id/catalog/:kind", h.createCatalogItem)
	protected.DELETE("/:id/catalog/:kind/:itemID", h.deleteCatalogItem)
	protected.POST("/:id/catalog/spare-parts/import", h.importSpareParts)
}

// session resolves :id and checks it belongs to the caller.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return nil, false
	}
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		h.handleError(c, service.ErrNotFound)
		return nil, false
	}
	if !sess.OwnedBy(principal) {
		h.handleError(c, service.ErrPermissionDenied)
		return nil, false
	}
	return sess, true
}

func (h *Handler) createSession(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	sess := h.sessions.Create(principal)
	if err := h.orders.Bootstrap(c.Request.Context(), sess); err != nil {
		h.sessions.Delete(sess.ID)
		h.handleError(c, err)
		return
	}
	h.log.Info().Str("session", sess.ID).Str("operator", principal.Subject).Msg("session opened")
	c.JSON(http.StatusCreated, sess.View())
}

func (h *Handler) getSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) deleteSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.sessions.Delete(sess.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Reset()
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) listOrders(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": sess.SearchOrders(c.Query("q"))})
}

func (h *Handler) refreshOrders(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.orders.RefreshOrders(c.Request.Context(), sess); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": sess.Orders()})
}

func (h *Handler) createOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	id, err := h.orders.CreateOrder(c.Request.Context(), sess)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "session": sess.View()})
}

func (h *Handler) updateOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.orders.UpdateOrder(c.Request.Context(), sess); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) exportOrders(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	result, err := h.docs.ExportOrders(sess, c.Query("q"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) loadOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if err := h.orders.LoadOrder(c.Request.Context(), sess, orderID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) duplicateOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	newID, err := h.orders.Duplicate(c.Request.Context(), sess, orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": newID})
}

type reopenRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reopenOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	var req reopenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.orders.Reopen(c.Request.Context(), sess, orderID, req.Reason); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": orderID})
}

func (h *Handler) patchDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var patch session.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Patch(patch); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

type sparePartsRequest struct {
	Text string `json:"text"`
}

func (h *Handler) setSpareParts(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req sparePartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.SetSpareParts(req.Text)
	c.JSON(http.StatusAccepted, sess.View())
}

type appendRequest struct {
	Names []string `json:"names" binding:"required"`
}

func (h *Handler) appendSpareParts(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.AppendSpareParts(req.Names...)
	c.JSON(http.StatusOK, sess.View())
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) setAmount(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.SetAmount(strings.TrimSpace(req.Amount))
	c.JSON(http.StatusOK, sess.View())
}

type selectEquipmentRequest struct {
	EquipmentID int64 `json:"equipment_id" binding:"required"`
}

func (h *Handler) selectEquipment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req selectEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.SelectEquipment(req.EquipmentID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// listEquipment returns the whole snapshot, or one client's equipment when
// client_id is given.
func (h *Handler) listEquipment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	raw, filtered := c.GetQuery("client_id")
	if !filtered {
		c.JSON(http.StatusOK, gin.H{"equipment": sess.Equipment()})
		return
	}
	clientID, err := parseID(raw)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": sess.EquipmentForClient(clientID)})
}

type clientRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Mobile       string `json:"mobile"`
	Address      string `json:"address"`
	Locality     string `json:"locality"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Email        string `json:"email"`
	TaxID        string `json:"tax_id"`
	Contact      string `json:"contact"`
	Observations string `json:"observations"`
	Business     string `json:"business"`
	Warranty     bool   `json:"warranty"`
	Contract     bool   `json:"contract"`
}

func (r clientRequest) toModel() model.Client {
	return model.Client{
		Name:         r.Name,
		Phone:        r.Phone,
		Mobile:       r.Mobile,
		Address:      r.Address,
		Locality:     r.Locality,
		Province:     r.Province,
		PostalCode:   r.PostalCode,
		Email:        r.Email,
		TaxID:        r.TaxID,
		Contact:      r.Contact,
		Observations: r.Observations,
		Business:     r.Business,
		Warranty:     model.Flag(r.Warranty),
		Contract:     model.Flag(r.Contract),
	}
}

type equipmentRequest struct {
	Description string `json:"description"`
	Serial      string `json:"serial"`
	Type        string `json:"type"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	ClientID    *int64 `json:"client_id"`
}

func (r equipmentRequest) toModel() model.Equipment {
	return model.Equipment{
		Description: r.Description,
		Serial:      r.Serial,
		Type:        r.Type,
		Brand:       r.Brand,
		Model:       r.Model,
		ClientID:    r.ClientID,
	}
}

func (h *Handler) listClients(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": sess.Clients()})
}

func (h *Handler) createClient(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.orders.CreateClient(c.Request.Context(), sess, req.toModel())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) updateClient(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	clientID, err := parseID(c.Param("clientID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.UpdateClient(c.Request.Context(), sess, clientID, req.toModel()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": clientID})
}

func (h *Handler) createEquipment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.orders.CreateEquipment(c.Request.Context(), sess, req.toModel())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) updateEquipment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	equipmentID, err := parseID(c.Param("equipmentID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.UpdateEquipment(c.Request.Context(), sess, equipmentID, req.toModel()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": equipmentID})
}

func (h *Handler) orderSheet(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	result, err := h.docs.OrderSheet(sess)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) runAction(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var err error
	switch c.Param("action") {
	case "departure":
		err = h.orders.RegisterDeparture(ctx, sess)
	case "finish":
		err = h.orders.MarkFinished(ctx, sess)
	case "withdraw":
		err = h.orders.MarkWithdrawn(ctx, sess)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action"})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) listCatalog(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	kind, ok := model.ParseCatalogKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown catalog"})
		return
	}
	if kind == model.CatalogSpareParts {
		c.JSON(http.StatusOK, gin.H{"items": sess.SpareParts()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sess.Entries(kind)})
}

type catalogRequest struct {
	Description string     `json:"description"`
	Name        string     `json:"name"`
	Detail      string     `json:"detail"`
	Cost        model.Cost `json:"cost"`
}

func (h *Handler) createCatalogItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	kind, ok := model.ParseCatalogKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown catalog"})
		return
	}
	var req catalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		id  int64
		err error
	)
	if kind == model.CatalogSpareParts {
		id, err = h.orders.CreateSparePart(c.Request.Context(), sess, model.SparePartInput{
			Name:   req.Name,
			Detail: req.Detail,
			Cost:   req.Cost,
		})
	} else {
		id, err = h.orders.CreateEntry(c.Request.Context(), sess, kind, req.Description)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) deleteCatalogItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	kind, ok := model.ParseCatalogKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown catalog"})
		return
	}
	itemID, err := parseID(c.Param("itemID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if err := h.orders.DeleteCatalogItem(c.Request.Context(), sess, kind, itemID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) importSpareParts(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	parts, skipped, err := excel.ReadSpareParts(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.imports.ImportSpareParts(c.Request.Context(), parts)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if err := h.orders.ReloadCatalog(c.Request.Context(), sess, model.CatalogSpareParts); err != nil {
		h.handleError(c, fmt.Errorf("%d spare parts imported: %w: %w", result.Created, service.ErrListNotRefreshed, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": result.Created, "failed": result.Failed, "skipped": skipped})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrListNotRefreshed):
		// the change went through; only the reload after it failed
		h.log.Warn().Err(err).Str("path", c.FullPath()).Msg("reload after save failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "saved": true})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, session.ErrUnknownClient),
		errors.Is(err, session.ErrUnknownEquipment):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoOrderLoaded), errors.Is(err, service.ErrActionBlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	case errors.Is(err, backend.ErrUnreachable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": backend.ErrUnreachable.Error()})
	case errors.Is(err, backend.ErrMalformed):
		h.log.Warn().Err(err).Msg("malformed backend payload")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrValidation
	}
	return id, nil
}
