package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/younghoyk/mr-daebak-order/internal/agent"
	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/checkout"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
	"github.com/younghoyk/mr-daebak-order/internal/session"
	"github.com/younghoyk/mr-daebak-order/internal/steps"
)

// Server holds the open order-flow sessions behind the HTTP surface.
type Server struct {
	sessions *session.Manager
	client   *backend.Client
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/sessions", s.createSession)
	router.DELETE("/sessions/:id", s.closeSession)

	sr := router.Group("/sessions/:id")
	sr.GET("/order", s.getOrder)
	sr.POST("/steps/next", s.nextStep)
	sr.POST("/steps/prev", s.prevStep)
	sr.PUT("/steps", s.setStep)
	sr.PUT("/address", s.setAddress)
	sr.PUT("/memo", s.setMemo)

	sr.GET("/catalog/dinners", s.listDinners)
	sr.GET("/catalog/serving-styles", s.listServingStyles)
	sr.GET("/catalog/menu-items", s.listMenuItems)
	sr.GET("/catalog/dinners/:dinnerId/menu-items", s.listDinnerMenuItems)

	sr.POST("/dinners", s.addDinner)
	sr.PUT("/dinners/:selectionId", s.updateDinnerQuantity)
	sr.DELETE("/dinners/:selectionId", s.removeDinner)
	sr.PUT("/dinners/:selectionId/instances/:index/style", s.setInstanceStyle)
	sr.PUT("/dinners/:selectionId/instances/:index/menu-items/:menuItemId", s.customizeItem)

	sr.POST("/additional-items", s.addAdditionalItem)
	sr.PUT("/additional-items/:menuItemId", s.updateAdditionalItem)
	sr.DELETE("/additional-items/:menuItemId", s.removeAdditionalItem)

	sr.POST("/checkout", s.submitCheckout)

	sr.POST("/chat", s.chat)
	sr.POST("/voice/start", s.startVoice)
	sr.POST("/voice/chunks", s.pushVoice)
	sr.POST("/voice/finish", s.finishVoice)
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

func (s *Server) closeSession(c *gin.Context) {
	s.sessions.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) getOrder(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) nextStep(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if err := sess.Flow.Advance(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": sess.Store.Step().String()})
}

func (s *Server) prevStep(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.Flow.Back()
	c.JSON(http.StatusOK, gin.H{"step": sess.Store.Step().String()})
}

func (s *Server) setStep(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Step string `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	step, ok := orderflow.ParseStep(req.Step)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step: " + req.Step})
		return
	}
	sess.Store.SetStep(step)
	c.JSON(http.StatusOK, gin.H{"step": step.String()})
}

func (s *Server) setAddress(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess.Flow.SetAddress(req.Address)
	c.Status(http.StatusNoContent)
}

func (s *Server) setMemo(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Memo string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess.Flow.SetMemo(req.Memo)
	c.Status(http.StatusNoContent)
}

func (s *Server) listDinners(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	dinners, err := sess.Catalog.Dinners(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dinners)
}

func (s *Server) listServingStyles(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	styles, err := sess.Catalog.ServingStyles(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, styles)
}

func (s *Server) listMenuItems(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	items, err := sess.Catalog.MenuItems(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listDinnerMenuItems(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	dinnerID, err := strconv.ParseInt(c.Param("dinnerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dinner id"})
		return
	}
	items, err := sess.Catalog.DefaultMenuItems(c.Request.Context(), bearerToken(c), dinnerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) addDinner(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		DinnerID int64 `json:"dinner_id" binding:"required"`
		Quantity int   `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	selectionID, err := sess.Flow.SelectDinner(c.Request.Context(), bearerToken(c), req.DinnerID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection_id": selectionID})
}

func (s *Server) updateDinnerQuantity(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess.Flow.SetDinnerQuantity(c.Param("selectionId"), req.Quantity)
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) removeDinner(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.Flow.RemoveDinner(c.Param("selectionId"))
	c.Status(http.StatusNoContent)
}

func (s *Server) setInstanceStyle(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance index"})
		return
	}
	var req struct {
		ServingStyleID int64 `json:"serving_style_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	err = sess.Flow.SelectStyle(c.Request.Context(), bearerToken(c), c.Param("selectionId"), index, req.ServingStyleID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) customizeItem(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance index"})
		return
	}
	menuItemID, err := strconv.ParseInt(c.Param("menuItemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := sess.Flow.CustomizeItem(c.Param("selectionId"), index, menuItemID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) addAdditionalItem(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		MenuItemID int64 `json:"menu_item_id" binding:"required"`
		Quantity   int   `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := sess.Flow.AddAddOn(c.Request.Context(), bearerToken(c), req.MenuItemID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) updateAdditionalItem(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	menuItemID, err := strconv.ParseInt(c.Param("menuItemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess.Flow.SetAddOnQuantity(menuItemID, req.Quantity)
	c.JSON(http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) removeAdditionalItem(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	menuItemID, err := strconv.ParseInt(c.Param("menuItemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}
	sess.Flow.RemoveAddOn(menuItemID)
	c.Status(http.StatusNoContent)
}

func (s *Server) submitCheckout(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	order, err := sess.Checkout.Submit(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) chat(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	result, err := sess.Agent.SendText(c.Request.Context(), bearerToken(c), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnPayload(result))
}

func (s *Server) startVoice(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if err := sess.Agent.StartVoice(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) pushVoice(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		AudioBase64 string `json:"audio_base64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := sess.Agent.PushVoice(req.AudioBase64); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) finishVoice(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	result, err := sess.Agent.FinishVoice(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnPayload(result))
}

func (s *Server) session(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

func turnPayload(r *agent.TurnResult) gin.H {
	return gin.H{
		"assistant_message":   r.AssistantMessage,
		"flow_state":          string(r.State),
		"ui_action":           r.Action.String(),
		"total_price":         r.TotalPrice,
		"user_addresses":      r.Addresses,
		"order_id":            r.OrderID,
		"order_number":        r.OrderNumber,
		"navigate_to_history": r.NavigateToHistory,
	}
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// writeError maps the error taxonomy to HTTP responses: local validation
// blocks with 400, an expired session forces re-login with 401, a named
// add-on partial failure and other backend rejections surface as 502.
func writeError(c *gin.Context, err error) {
	var addOnErr *checkout.AddOnError
	var apiErr *backend.APIError
	switch {
	case backend.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired", "action": "relogin"})
	case steps.IsValidation(err), checkout.IsPrecondition(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &addOnErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": addOnErr.Error(), "failed_item": addOnErr.MenuItemName})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
