package rest

import (
	"net/http"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/guild"
	mw "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/middleware"
	"github.com/gin-gonic/gin"
)

// InvitationHandler handles guild invitation REST endpoints.
type InvitationHandler struct {
	svc *guild.Service
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(svc *guild.Service) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type inviteRequest struct {
	InviteeID int64  `json:"invitee_id" binding:"omitempty,min=1"`
	Email     string `json:"email"      binding:"omitempty,email,max=128"`
	Message   string `json:"message"    binding:"max=500"`
}

// Create handles POST /api/guilds/:id/invitations.
func (h *InvitationHandler) Create(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.InviteeID == 0 && req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invitee_id or email is required"})
		return
	}
	inv, err := h.svc.Invite(c.Request.Context(), guildID, mw.GetUserID(c), guild.InviteInput{
		InviteeID: req.InviteeID,
		Email:     req.Email,
		Message:   req.Message,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// Accept handles POST /api/guilds/:id/invitations/:inviteID/accept.
func (h *InvitationHandler) Accept(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	publicID := c.Param("inviteID")
	if err := h.svc.AcceptInvitation(c.Request.Context(), publicID, guildID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation accepted"})
}

// Decline handles POST /api/guilds/:id/invitations/:inviteID/decline.
func (h *InvitationHandler) Decline(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	publicID := c.Param("inviteID")
	if err := h.svc.DeclineInvitation(c.Request.Context(), publicID, guildID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation declined"})
}

// ListForGuild handles GET /api/guilds/:id/invitations.
func (h *InvitationHandler) ListForGuild(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	invs, err := h.svc.ListInvitations(c.Request.Context(), guildID, mw.GetUserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

// ListMine handles GET /api/invitations.
func (h *InvitationHandler) ListMine(c *gin.Context) {
	invs, err := h.svc.ListUserInvitations(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}
