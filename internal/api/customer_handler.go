package api

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CustomerHandler holds the customer and protocol service dependencies.
type CustomerHandler struct {
	customerService service.CustomerService
	protocolService service.ProtocolService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService service.CustomerService, protocolService service.ProtocolService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, protocolService: protocolService}
}

// --- DTOs ---

// UpdateCustomerRequest carries a partial update; absent fields are left alone.
type UpdateCustomerRequest struct {
	FirstName *string                `json:"first_name"`
	LastName  *string                `json:"last_name"`
	NickName  *string                `json:"nick_name"`
	Email     *string                `json:"email"`
	Document  *string                `json:"document"`
	Phone     *string                `json:"phone"`
	Address   *string                `json:"address"`
	City      *string                `json:"city"`
	UF        *string                `json:"uf"`
	Zip       *string                `json:"zip"`
	Country   *string                `json:"country"`
	Status    *domain.CustomerStatus `json:"status"`
	PlanID    *string                `json:"plan_id"`
}

func (r UpdateCustomerRequest) toPatch() domain.CustomerPatch {
	return domain.CustomerPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		NickName:  r.NickName,
		Email:     r.Email,
		Document:  r.Document,
		Phone:     r.Phone,
		Address:   r.Address,
		City:      r.City,
		UF:        r.UF,
		Zip:       r.Zip,
		Country:   r.Country,
		Status:    r.Status,
		PlanID:    r.PlanID,
	}
}

type CustomerResponse struct {
	domain.Customer
	FullName string `json:"full_name"`
}

// MapCustomerToResponse converts a domain.Customer to CustomerResponse DTO.
func MapCustomerToResponse(c *domain.Customer) CustomerResponse {
	if c == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{Customer: *c, FullName: c.FullName()}
}

func MapCustomersToResponse(customers []domain.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = MapCustomerToResponse(&customers[i])
	}
	return responses
}

// --- Handler Methods ---

// ListCustomers godoc
// @Summary List customers
// @Description Lists customers, optionally filtered by first name, last name or email.
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Success 200 {array} CustomerResponse
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers := h.customerService.List(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, MapCustomersToResponse(customers))
}

// CreateCustomer godoc
// @Summary Create a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param customer body service.CustomerInput true "Customer details"
// @Success 201 {object} CustomerResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, MapCustomerToResponse(customer))
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, MapCustomerToResponse(customer))
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), c.Param("id"), req.toPatch())
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, MapCustomerToResponse(customer))
}

// DeleteCustomer removes the customer. Its protocols are kept.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCustomerProtocols lists the protocols of one customer.
func (h *CustomerHandler) GetCustomerProtocols(c *gin.Context) {
	protocols, err := h.protocolService.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, MapProtocolsToResponse(protocols, nowFunc()))
}
