package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type createPersonRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	TaxID string `json:"tax_id"`
	Role  string `json:"role"`
}

func (s *Server) CreatePerson(c *gin.Context) {
	var req createPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.personSvc.Create(c.Request.Context(), persondomain.CreatePersonRequest{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
		Email: strings.TrimSpace(req.Email),
		TaxID: strings.TrimSpace(req.TaxID),
		Role:  persondomain.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePersonRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	TaxID *string `json:"tax_id"`
	Role  *string `json:"role"`
}

func (s *Server) UpdatePerson(c *gin.Context) {
	var req updatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := persondomain.UpdatePersonRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		TaxID: req.TaxID,
	}
	if req.Role != nil {
		role := persondomain.Role(strings.TrimSpace(*req.Role))
		update.Role = &role
	}

	resp, err := s.personSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePerson(c *gin.Context) {
	err := s.personSvc.Delete(c.Request.Context(), persondomain.DeletePersonRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetPersonByID(c *gin.Context) {
	resp, err := s.personSvc.GetByID(c.Request.Context(), persondomain.GetPersonRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPeople(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name string `form:"name"`
		Role string `form:"role"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.personSvc.List(c.Request.Context(), persondomain.ListPersonRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
		Role:      persondomain.Role(strings.TrimSpace(query.Role)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPersonValidationError(err error) bool {
	switch err {
	case persondomain.ErrInvalidName,
		persondomain.ErrInvalidRole,
		persondomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
