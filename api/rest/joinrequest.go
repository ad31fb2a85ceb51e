package rest

import (
	"net/http"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/guild"
	mw "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/middleware"
	"github.com/gin-gonic/gin"
)

// JoinRequestHandler handles guild join-request REST endpoints.
type JoinRequestHandler struct {
	svc *guild.Service
}

// NewJoinRequestHandler creates a new JoinRequestHandler.
func NewJoinRequestHandler(svc *guild.Service) *JoinRequestHandler {
	return &JoinRequestHandler{svc: svc}
}

// Create handles POST /api/guilds/:id/join-requests.
func (h *JoinRequestHandler) Create(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.RequestJoin(c.Request.Context(), guildID, mw.GetUserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// Approve handles POST /api/guilds/:id/join-requests/:requestID/approve.
func (h *JoinRequestHandler) Approve(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	requestID, ok := pathID(c, "requestID")
	if !ok {
		return
	}
	if err := h.svc.ApproveJoinRequest(c.Request.Context(), guildID, requestID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "join request approved"})
}

// Decline handles POST /api/guilds/:id/join-requests/:requestID/decline.
func (h *JoinRequestHandler) Decline(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	requestID, ok := pathID(c, "requestID")
	if !ok {
		return
	}
	if err := h.svc.DeclineJoinRequest(c.Request.Context(), guildID, requestID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "join request declined"})
}

// List handles GET /api/guilds/:id/join-requests.
func (h *JoinRequestHandler) List(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reqs, err := h.svc.ListJoinRequests(c.Request.Context(), guildID, mw.GetUserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"join_requests": reqs})
}
