package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
)

func (s *Server) ListActivePlans(c *gin.Context) {
	items, err := s.planSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListPlans(c *gin.Context) {
	items, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetPlan(c *gin.Context) {
	item, err := s.planSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	item, err := s.planSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := item.ID
		_ = s.auditSvc.AuditLog(c.Request.Context(), "", nil, "plan.create", "plan", &targetID, map[string]any{
			"name":  item.Name,
			"days":  item.Days,
			"price": item.Price,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	var req plandomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	item, err := s.planSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := item.ID
		_ = s.auditSvc.AuditLog(c.Request.Context(), "", nil, "plan.update", "plan", &targetID, map[string]any{
			"name":      item.Name,
			"is_active": item.IsActive,
			"price":     item.Price,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeletePlan(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.planSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := id
		_ = s.auditSvc.AuditLog(c.Request.Context(), "", nil, "plan.delete", "plan", &targetID, nil)
	}

	c.Status(http.StatusNoContent)
}
