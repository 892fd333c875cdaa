package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler is the webhook ingress plus the diagnostic endpoints.
type Handler struct {
	router     updateRouter
	gateway    webhookGateway
	deliveries *DeliveryLog
	webhookURL string
	secret     string
	logger     *slog.Logger
}

func NewHandler(
	router updateRouter,
	gateway webhookGateway,
	deliveries *DeliveryLog,
	webhookURL string,
	secret string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		router:     router,
		gateway:    gateway,
		deliveries: deliveries,
		webhookURL: webhookURL,
		secret:     secret,
		logger:     logger,
	}
}

// DiagnosticPaths are served only by DiagnosticsEngine. The delivery log
// holds raw updates with user data, so they stay off the public listener.
var DiagnosticPaths = []string{"/set_webhook", "/webhook_info", "/bot_info", "/deliveries"}

// Engine wires the public endpoints Telegram talks to.
func (h *Handler) Engine() *gin.Engine {
	r := h.newEngine()

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Bot is running") })
	r.GET("/status", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	r.POST("/webhook", secretTokenRequired(h.secret), h.handleWebhook)

	return r
}

// DiagnosticsEngine wires the operator endpoints.
func (h *Handler) DiagnosticsEngine() *gin.Engine {
	r := h.newEngine()

	r.GET("/set_webhook", h.handleSetWebhook)
	r.GET("/webhook_info", h.handleWebhookInfo)
	r.GET("/bot_info", h.handleBotInfo)
	r.GET("/deliveries", h.handleDeliveries)

	return r
}

func (h *Handler) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	return r
}

// handleWebhook routes one update synchronously and always answers 200,
// so Telegram does not redeliver on application errors.
func (h *Handler) handleWebhook(c *gin.Context) {
	delivery := Delivery{ReceivedAt: time.Now().UTC()}

	body, err := c.GetRawData()
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		delivery.Status, delivery.Error = DeliveryUndecodable, err.Error()
		h.deliveries.Add(delivery)
		c.String(http.StatusOK, "OK")
		return
	}
	if json.Valid(body) {
		delivery.Payload = body
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		h.logger.Warn("Undecodable webhook payload", "error", err, "size", len(body))
		delivery.Status, delivery.Error = DeliveryUndecodable, err.Error()
		h.deliveries.Add(delivery)
		c.String(http.StatusOK, "OK")
		return
	}
	delivery.UpdateID = update.UpdateID

	// Telegram may drop the connection, the update is still processed to the end
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.router.Route(ctx, &update); err != nil {
		h.logger.Error("Failed to route update", "error", err, "update_id", update.UpdateID)
		delivery.Status, delivery.Error = DeliveryRouteFailed, err.Error()
	} else {
		delivery.Status = DeliveryRouted
	}
	h.deliveries.Add(delivery)

	c.String(http.StatusOK, "OK")
}

func (h *Handler) handleSetWebhook(c *gin.Context) {
	if h.webhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WEBHOOK_PUBLIC_URL is not set"})
		return
	}

	if err := h.gateway.SetWebhook(h.webhookURL, h.secret); err != nil {
		h.logger.Error("Failed to set webhook", "error", err, "url", h.webhookURL)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Webhook registered", "url", h.webhookURL)
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": h.webhookURL})
}

func (h *Handler) handleWebhookInfo(c *gin.Context) {
	info, err := h.gateway.GetWebhookInfo()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"url":                  info.URL,
		"pending_update_count": info.PendingUpdateCount,
		"last_error_message":   info.LastErrorMessage,
		"max_connections":      info.MaxConnections,
	}
	if info.LastErrorDate > 0 {
		resp["last_error_date"] = time.Unix(int64(info.LastErrorDate), 0).UTC()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) handleBotInfo(c *gin.Context) {
	me, err := h.gateway.GetMe()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         me.ID,
		"username":   me.UserName,
		"first_name": me.FirstName,
	})
}

func (h *Handler) handleDeliveries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deliveries": h.deliveries.List()})
}
