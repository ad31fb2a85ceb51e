package rest

import (
	"net/http"

	mw "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/middleware"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/party"
	"github.com/gin-gonic/gin"
)

// PartyHandler handles party REST endpoints.
type PartyHandler struct {
	svc *party.Service
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(svc *party.Service) *PartyHandler {
	return &PartyHandler{svc: svc}
}

type createPartyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=64"`
}

// Create handles POST /api/parties.
func (h *PartyHandler) Create(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Create(c.Request.Context(), mw.GetUserID(c), req.Name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Detail handles GET /api/parties/:id.
func (h *PartyHandler) Detail(c *gin.Context) {
	partyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, members, err := h.svc.Get(c.Request.Context(), partyID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party": p, "members": members})
}

// Join handles POST /api/parties/:id/join.
func (h *PartyHandler) Join(c *gin.Context) {
	partyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Join(c.Request.Context(), partyID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined party"})
}

// Leave handles POST /api/parties/:id/leave.
func (h *PartyHandler) Leave(c *gin.Context) {
	partyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), partyID, mw.GetUserID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left party"})
}
