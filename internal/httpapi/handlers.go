package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triviaarena/internal/applog"
	"triviaarena/internal/dispatch"
	"triviaarena/internal/domain"
	"triviaarena/internal/registry"
	"triviaarena/internal/roomactor"
	"triviaarena/internal/store"
	"triviaarena/internal/transport"
)

// GameHandler exposes the create/join/connect HTTP+websocket routes
// (spec.md §6), grounded on rakaoran-GuessTheObject's game/handlers.go
// CreateRoomHandler (bind settings, upgrade, hand off to the room layer).
type GameHandler struct {
	registry  *registry.Registry
	hub       *roomactor.Hub
	userStore store.UserStore
}

func NewGameHandler(reg *registry.Registry, hub *roomactor.Hub, users store.UserStore) *GameHandler {
	return &GameHandler{registry: reg, hub: hub, userStore: users}
}

type createRoomRequest struct {
	Private            bool `json:"private"`
	QuestionsPerPlayer int  `json:"questionsPerPlayer"`
	TurnTimeoutSec     int  `json:"turnTimeoutSec"`
	StealTimeoutSec    int  `json:"stealTimeoutSec"`
	AllowSteal         bool `json:"allowSteal"`
	BonusForSteal      int  `json:"bonusForSteal"`
}

// CreateRoomHandler creates a room for the authenticated caller and returns
// its join code; the client then opens a websocket to /api/rooms/connect.
func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	verified, ok := VerifiedFromContext(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	var req createRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	settings := domain.DefaultGameSettings()
	if req.QuestionsPerPlayer != 0 {
		settings.QuestionsPerPlayer = req.QuestionsPerPlayer
	}
	if req.TurnTimeoutSec != 0 {
		settings.TurnTimeoutSec = req.TurnTimeoutSec
	}
	if req.StealTimeoutSec != 0 {
		settings.StealTimeoutSec = req.StealTimeoutSec
	}
	settings.AllowSteal = req.AllowSteal
	if req.BonusForSteal != 0 {
		settings.BonusForSteal = req.BonusForSteal
	}

	room, err := h.registry.CreateRoom(ctx.Request.Context(), verified.Uid, verified.DisplayName, settings, req.Private)
	if err != nil {
		applog.Error("create-room failed", err, map[string]any{"uid": verified.Uid})
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-settings"})
		return
	}

	if err := h.userStore.UpsertProfile(ctx.Request.Context(), domain.UserProfile{
		Uid: verified.Uid, DisplayName: verified.DisplayName, LastLogin: time.Now(),
	}); err != nil {
		applog.Warn("profile upsert failed", map[string]any{"uid": verified.Uid, "error": err.Error()})
	}

	ctx.JSON(http.StatusOK, gin.H{"roomId": room.Id, "code": room.Code})
}

// ConnectHandler upgrades to a websocket and joins the caller into the room
// named by the "code" query parameter (spec.md §6.1), wiring the resulting
// transport.Session into the room's actor.
func (h *GameHandler) ConnectHandler(ctx *gin.Context) {
	verified, ok := VerifiedFromContext(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if err := h.userStore.UpsertProfile(ctx.Request.Context(), domain.UserProfile{
		Uid: verified.Uid, DisplayName: verified.DisplayName, LastLogin: time.Now(),
	}); err != nil {
		applog.Warn("profile upsert failed", map[string]any{"uid": verified.Uid, "error": err.Error()})
	}

	code := ctx.Query("code")
	room, err := h.registry.LookupByCode(ctx.Request.Context(), code)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not-found"})
		return
	}

	conn, err := Upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		applog.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	wsConn := transport.NewWebsocketConnection(conn)
	session := transport.NewSession(verified.Uid, wsConn)

	actor := h.hub.GetOrStart(room.Id)
	if _, err := actor.Join(ctx.Request.Context(), verified.Uid, verified.DisplayName, "", session); err != nil {
		data, _ := dispatch.Marshal(dispatch.ServerEvent{Type: dispatch.ServerErrorEvent, Error: err.Error()})
		session.Send(data)
		wsConn.Close(err.Error())
		return
	}

	go session.WritePump()
	session.ReadPump(func(msg transport.InboundMessage) {
		var ev dispatch.ClientEvent
		if err := dispatch.Unmarshal(msg.Body, &ev); err != nil {
			return
		}
		actor.Submit(msg.Uid, ev)
	}, func() {
		actor.Disconnect(verified.Uid)
		session.Close()
	})
}
