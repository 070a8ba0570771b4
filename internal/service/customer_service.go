package service

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/mask"
	"alcyxob/trainerscribe/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrCustomerNotFound = errors.New("customer not found")
)

// CustomerInput is the full set of caller-editable customer fields.
type CustomerInput struct {
	FirstName string                `json:"first_name" validate:"required,min=3,max=140"`
	LastName  string                `json:"last_name" validate:"omitempty,max=140"`
	NickName  string                `json:"nick_name" validate:"omitempty,max=140"`
	Email     string                `json:"email" validate:"required,email"`
	Document  string                `json:"document" validate:"omitempty,max=14"`
	Phone     string                `json:"phone" validate:"omitempty,max=15"`
	Address   string                `json:"address" validate:"omitempty,max=255"`
	City      string                `json:"city" validate:"required,min=3"`
	UF        string                `json:"uf" validate:"required,len=2"`
	Zip       string                `json:"zip" validate:"omitempty,max=9"`
	Country   string                `json:"country" validate:"omitempty,max=80"`
	Status    domain.CustomerStatus `json:"status" validate:"omitempty,oneof=ACTIVE BLOCKED INACTIVE"`
	PlanID    string                `json:"plan_id" validate:"required,uuid"`
}

// normalize trims text fields and applies the display masks.
func (in *CustomerInput) normalize() {
	for _, s := range []*string{&in.FirstName, &in.LastName, &in.NickName, &in.Email, &in.Address, &in.City, &in.Country, &in.PlanID} {
		*s = strings.TrimSpace(*s)
	}
	in.UF = strings.ToUpper(strings.TrimSpace(in.UF))
	in.Phone = maskIfSet(in.Phone, mask.Phone)
	in.Zip = maskIfSet(in.Zip, mask.PostalCode)
	in.Document = maskIfSet(in.Document, mask.Document)
}

func maskIfSet(v string, apply func(string) string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return apply(v)
}

func customerInputFrom(c domain.Customer) CustomerInput {
	return CustomerInput{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		NickName:  c.NickName,
		Email:     c.Email,
		Document:  c.Document,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		UF:        c.UF,
		Zip:       c.Zip,
		Country:   c.Country,
		Status:    c.Status,
		PlanID:    c.PlanID,
	}
}

func (in CustomerInput) patch() domain.CustomerPatch {
	status := in.Status
	return domain.CustomerPatch{
		FirstName: &in.FirstName,
		LastName:  &in.LastName,
		NickName:  &in.NickName,
		Email:     &in.Email,
		Document:  &in.Document,
		Phone:     &in.Phone,
		Address:   &in.Address,
		City:      &in.City,
		UF:        &in.UF,
		Zip:       &in.Zip,
		Country:   &in.Country,
		Status:    &status,
		PlanID:    &in.PlanID,
	}
}

type CustomerService interface {
	Create(ctx context.Context, in CustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, term string) []domain.Customer
	Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

type customerService struct {
	customers *store.CustomerStore
	logger    *zap.Logger
}

// NewCustomerService creates a new instance of customerService.
func NewCustomerService(customers *store.CustomerStore, logger *zap.Logger) CustomerService {
	return &customerService{customers: customers, logger: logger}
}

func (s *customerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	const op = "CustomerService.Create"

	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	c, err := s.customers.Add(ctx, domain.NewCustomer{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		NickName:  in.NickName,
		Email:     in.Email,
		Document:  in.Document,
		Phone:     in.Phone,
		Address:   in.Address,
		City:      in.City,
		UF:        in.UF,
		Zip:       in.Zip,
		Country:   in.Country,
		Status:    in.Status,
		PlanID:    in.PlanID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("customer created", zap.String("customer_id", c.ID))
	return &c, nil
}

func (s *customerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, ok := s.customers.Get(id)
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &c, nil
}

// List returns customers matching term on first name, last name or email.
func (s *customerService) List(ctx context.Context, term string) []domain.Customer {
	return s.customers.List(strings.TrimSpace(term))
}

// Update validates the merged record before touching the store, so a
// rejected patch leaves the customer unchanged.
func (s *customerService) Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	const op = "CustomerService.Update"

	current, ok := s.customers.Get(id)
	if !ok {
		return nil, ErrCustomerNotFound
	}
	if patch.IsEmpty() {
		return &current, nil
	}
	// An absent status keeps the current one; a present status must be valid.
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, newFieldError("status", "oneof", "must be one of ACTIVE, BLOCKED, INACTIVE")
	}

	merged := current
	patch.Apply(&merged)
	in := customerInputFrom(merged)
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if err := s.customers.Update(ctx, id, in.patch()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, ok := s.customers.Get(id)
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &updated, nil
}

// Delete removes the customer. Protocols that reference it are kept and show
// up as belonging to an unknown customer.
func (s *customerService) Delete(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("CustomerService.Delete: %w", err)
	}
	s.logger.Info("customer deleted", zap.String("customer_id", id))
	return nil
}
