package rest

import (
	"net/http"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/guild"
	mw "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/middleware"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/gin-gonic/gin"
)

// GuildHandler handles guild REST endpoints.
type GuildHandler struct {
	svc *guild.Service
}

// NewGuildHandler creates a new GuildHandler.
func NewGuildHandler(svc *guild.Service) *GuildHandler {
	return &GuildHandler{svc: svc}
}

type createGuildRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=64"`
	Description string `json:"description" binding:"max=500"`
	Visibility  string `json:"visibility"  binding:"omitempty,oneof=public invite_only"`
	MaxMembers  int    `json:"max_members" binding:"required,min=1"`
}

// Create handles POST /api/guilds.
func (h *GuildHandler) Create(c *gin.Context) {
	var req createGuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.svc.CreateGuild(c.Request.Context(), mw.GetUserID(c), guild.CreateGuildInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  model.GuildVisibility(req.Visibility),
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Detail handles GET /api/guilds/:id.
func (h *GuildHandler) Detail(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	g, members, err := h.svc.GetGuild(c.Request.Context(), guildID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guild": g, "members": members})
}

// Leave handles POST /api/guilds/:id/leave.
func (h *GuildHandler) Leave(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), guildID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left guild"})
}

// Kick handles DELETE /api/guilds/:id/members/:userID.
func (h *GuildHandler) Kick(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	if err := h.svc.KickMember(c.Request.Context(), guildID, mw.GetUserID(c), targetID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// Disband handles DELETE /api/guilds/:id.
func (h *GuildHandler) Disband(c *gin.Context) {
	guildID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DisbandGuild(c.Request.Context(), guildID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "guild disbanded"})
}
