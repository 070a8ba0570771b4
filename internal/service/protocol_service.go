package service

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/export"
	"alcyxob/trainerscribe/internal/storage"
	"alcyxob/trainerscribe/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrExportFailed     = errors.New("failed to export protocol")
)

// UnknownCustomerName is shown for protocols whose customer no longer exists.
const UnknownCustomerName = "Unknown customer"

type MealInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type ExerciseInput struct {
	Name  string `json:"name" validate:"required"`
	Sets  int    `json:"sets" validate:"min=1"`
	Reps  int    `json:"reps" validate:"min=1"`
	Notes string `json:"notes"`
}

type WorkoutInput struct {
	Name      string          `json:"name" validate:"required"`
	Exercises []ExerciseInput `json:"exercises" validate:"dive"`
}

type SupplementInput struct {
	Name      string `json:"name" validate:"required"`
	Dosage    string `json:"dosage" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
	Notes     string `json:"notes"`
}

// ProtocolInput is a complete protocol as submitted by the back office.
type ProtocolInput struct {
	CustomerID   string            `json:"customer_id" validate:"required"`
	DurationDays int               `json:"duration_days" validate:"min=1"`
	StartDate    time.Time         `json:"start_date" validate:"required"`
	Meals        []MealInput       `json:"meals" validate:"min=1,dive"`
	Workouts     []WorkoutInput    `json:"workouts" validate:"min=1,dive"`
	Supplements  []SupplementInput `json:"supplements" validate:"dive"`
}

// ProtocolUpdate replaces only the present fields. Lists are replaced whole.
type ProtocolUpdate struct {
	CustomerID   *string            `json:"customer_id"`
	DurationDays *int               `json:"duration_days"`
	StartDate    *time.Time         `json:"start_date"`
	Meals        *[]MealInput       `json:"meals"`
	Workouts     *[]WorkoutInput    `json:"workouts"`
	Supplements  *[]SupplementInput `json:"supplements"`
}

// ProtocolView is a protocol joined with the name of its customer.
type ProtocolView struct {
	domain.Protocol
	CustomerName     string `json:"customer_name"`
	CustomerResolved bool   `json:"customer_resolved"`
}

// Dashboard summarizes the protocol collection at the current instant.
type Dashboard struct {
	ActiveCount  int            `json:"active_count"`
	ExpiredCount int            `json:"expired_count"`
	Recent       []ProtocolView `json:"recent"`
}

// ExportResult describes an archived protocol document.
type ExportResult struct {
	FileName    string    `json:"file_name"`
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	Pages       int       `json:"pages"`
	SentAt      time.Time `json:"sent_at"`
}

// DocumentRenderer paints a protocol for its customer.
type DocumentRenderer interface {
	Render(protocol domain.Protocol, customer *domain.Customer) (*export.Output, error)
}

type ProtocolService interface {
	Create(ctx context.Context, in ProtocolInput) (*ProtocolView, error)
	Get(ctx context.Context, id string) (*ProtocolView, error)
	List(ctx context.Context, customerName string) []ProtocolView
	ListByCustomer(ctx context.Context, customerID string) ([]ProtocolView, error)
	Update(ctx context.Context, id string, in ProtocolUpdate) (*ProtocolView, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context) Dashboard

	// Export renders the protocol, archives the document and marks the
	// protocol sent. Nothing is marked unless every step succeeded.
	Export(ctx context.Context, id string) (*ExportResult, error)
	// Preview renders the protocol without archiving or marking it.
	Preview(ctx context.Context, id string) (*export.Output, error)
}

type protocolService struct {
	protocols *store.ProtocolStore
	customers *store.CustomerStore
	renderer  DocumentRenderer
	documents storage.DocumentStorage
	urlExpiry time.Duration
	newID     func() string
	logger    *zap.Logger
}

// NewProtocolService creates a new instance of protocolService.
func NewProtocolService(
	protocols *store.ProtocolStore,
	customers *store.CustomerStore,
	renderer DocumentRenderer,
	documents storage.DocumentStorage,
	urlExpiry time.Duration,
	logger *zap.Logger,
) ProtocolService {
	return &protocolService{
		protocols: protocols,
		customers: customers,
		renderer:  renderer,
		documents: documents,
		urlExpiry: urlExpiry,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

func (s *protocolService) Create(ctx context.Context, in ProtocolInput) (*ProtocolView, error) {
	const op = "ProtocolService.Create"

	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.requireCustomer(in.CustomerID); err != nil {
		return nil, err
	}

	p, err := s.protocols.Add(ctx, domain.NewProtocol{
		CustomerID:   in.CustomerID,
		DurationDays: in.DurationDays,
		StartDate:    in.StartDate,
		Diet:         s.diet(in.Meals),
		Workouts:     s.workouts(in.Workouts),
		Supplements:  s.supplements(in.Supplements),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("protocol created", zap.String("protocol_id", p.ID), zap.String("customer_id", p.CustomerID))
	view := s.join(p)
	return &view, nil
}

func (s *protocolService) requireCustomer(id string) error {
	if _, ok := s.customers.Get(id); !ok {
		return newFieldError("customer_id", "exists", "does not match any customer")
	}
	return nil
}

func (s *protocolService) Get(ctx context.Context, id string) (*ProtocolView, error) {
	p, ok := s.protocols.Get(id)
	if !ok {
		return nil, ErrProtocolNotFound
	}
	view := s.join(p)
	return &view, nil
}

// List returns every protocol whose customer name contains customerName,
// case-insensitively. An empty filter returns all protocols.
func (s *protocolService) List(ctx context.Context, customerName string) []ProtocolView {
	needle := strings.ToLower(strings.TrimSpace(customerName))
	out := []ProtocolView{}
	for _, p := range s.protocols.All() {
		view := s.join(p)
		if needle != "" && !strings.Contains(strings.ToLower(view.CustomerName), needle) {
			continue
		}
		out = append(out, view)
	}
	return out
}

func (s *protocolService) ListByCustomer(ctx context.Context, customerID string) ([]ProtocolView, error) {
	if _, ok := s.customers.Get(customerID); !ok {
		return nil, ErrCustomerNotFound
	}
	return s.joinAll(s.protocols.ByCustomer(customerID)), nil
}

// Update validates the merged protocol before the store is touched. The
// customer reference is checked only when the update changes it.
func (s *protocolService) Update(ctx context.Context, id string, in ProtocolUpdate) (*ProtocolView, error) {
	const op = "ProtocolService.Update"

	current, ok := s.protocols.Get(id)
	if !ok {
		return nil, ErrProtocolNotFound
	}

	merged := protocolInputFrom(current)
	if in.CustomerID != nil {
		merged.CustomerID = strings.TrimSpace(*in.CustomerID)
	}
	if in.DurationDays != nil {
		merged.DurationDays = *in.DurationDays
	}
	if in.StartDate != nil {
		merged.StartDate = *in.StartDate
	}
	if in.Meals != nil {
		merged.Meals = *in.Meals
	}
	if in.Workouts != nil {
		merged.Workouts = *in.Workouts
	}
	if in.Supplements != nil {
		merged.Supplements = *in.Supplements
	}
	if err := validateStruct(merged); err != nil {
		return nil, err
	}
	// An orphaned protocol stays editable; only a new reference is checked.
	if in.CustomerID != nil {
		if err := s.requireCustomer(merged.CustomerID); err != nil {
			return nil, err
		}
	}

	patch := domain.ProtocolPatch{
		DurationDays: in.DurationDays,
		StartDate:    in.StartDate,
	}
	if in.CustomerID != nil {
		patch.CustomerID = &merged.CustomerID
	}
	if in.Meals != nil {
		diet := s.diet(*in.Meals)
		diet.ID = current.Diet.ID
		patch.Diet = &diet
	}
	if in.Workouts != nil {
		workouts := s.workouts(*in.Workouts)
		patch.Workouts = &workouts
	}
	if in.Supplements != nil {
		supplements := s.supplements(*in.Supplements)
		patch.Supplements = &supplements
	}

	if err := s.protocols.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, ok := s.protocols.Get(id)
	if !ok {
		return nil, ErrProtocolNotFound
	}
	view := s.join(updated)
	return &view, nil
}

// Delete removes the protocol and then its archived documents. Once the
// protocol is gone a failed document cleanup is logged, not returned.
func (s *protocolService) Delete(ctx context.Context, id string) error {
	if err := s.protocols.Delete(ctx, id); err != nil {
		return fmt.Errorf("ProtocolService.Delete: %w", err)
	}
	s.logger.Info("protocol deleted", zap.String("protocol_id", id))

	if err := s.deleteDocuments(ctx, id); err != nil {
		s.logger.Warn("removing archived protocol documents failed", zap.String("protocol_id", id), zap.Error(err))
	}
	return nil
}

func (s *protocolService) deleteDocuments(ctx context.Context, id string) error {
	keys, err := s.documents.ListObjects(ctx, storage.ProtocolObjectPrefix(id))
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range keys {
		errs = append(errs, s.documents.DeleteObject(ctx, key))
	}
	return errors.Join(errs...)
}

func (s *protocolService) Dashboard(ctx context.Context) Dashboard {
	active, expired := s.protocols.Partition()
	return Dashboard{
		ActiveCount:  len(active),
		ExpiredCount: len(expired),
		Recent:       s.joinAll(s.protocols.Recent(store.DefaultRecentLimit)),
	}
}

func (s *protocolService) Export(ctx context.Context, id string) (*ExportResult, error) {
	const op = "ProtocolService.Export"

	p, out, err := s.render(id)
	if err != nil {
		return nil, err
	}

	key := storage.ProtocolObjectKey(p.ID, out.FileName)
	if err := s.documents.Put(ctx, key, storage.ContentTypePDF, out.Data); err != nil {
		s.logger.Error("archiving protocol document failed", zap.String("protocol_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %v", op, ErrExportFailed, err)
	}

	url, err := s.documents.PresignedDownloadURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrExportFailed, err)
	}

	if err := s.protocols.MarkSent(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("%s: mark sent: %w", op, err)
	}
	sent, ok := s.protocols.Get(p.ID)
	if !ok || sent.SentAt == nil {
		// Deleted concurrently between render and mark.
		return nil, ErrProtocolNotFound
	}

	s.logger.Info("protocol exported",
		zap.String("protocol_id", p.ID),
		zap.String("object_key", key),
		zap.Int("pages", out.Pages),
	)
	return &ExportResult{
		FileName:    out.FileName,
		ObjectKey:   key,
		DownloadURL: url,
		Pages:       out.Pages,
		SentAt:      *sent.SentAt,
	}, nil
}

func (s *protocolService) Preview(ctx context.Context, id string) (*export.Output, error) {
	_, out, err := s.render(id)
	return out, err
}

// render resolves the customer and paints the protocol. An orphaned protocol
// is a validation failure rather than an export failure.
func (s *protocolService) render(id string) (domain.Protocol, *export.Output, error) {
	const op = "ProtocolService.render"

	p, ok := s.protocols.Get(id)
	if !ok {
		return domain.Protocol{}, nil, ErrProtocolNotFound
	}

	var customer *domain.Customer
	if c, ok := s.customers.Get(p.CustomerID); ok {
		customer = &c
	}

	out, err := s.renderer.Render(p, customer)
	if err != nil {
		if errors.Is(err, export.ErrCustomerUnresolved) {
			return p, nil, newFieldError("customer_id", "exists", "customer no longer exists")
		}
		s.logger.Error("protocol render failed", zap.String("protocol_id", p.ID), zap.Error(err))
		return p, nil, fmt.Errorf("%s: %w: %v", op, ErrExportFailed, err)
	}
	return p, out, nil
}

func (s *protocolService) join(p domain.Protocol) ProtocolView {
	c, ok := s.customers.Get(p.CustomerID)
	if !ok {
		return ProtocolView{Protocol: p, CustomerName: UnknownCustomerName}
	}
	return ProtocolView{Protocol: p, CustomerName: c.FullName(), CustomerResolved: true}
}

func (s *protocolService) joinAll(ps []domain.Protocol) []ProtocolView {
	out := make([]ProtocolView, len(ps))
	for i, p := range ps {
		out[i] = s.join(p)
	}
	return out
}

func (s *protocolService) diet(meals []MealInput) domain.Diet {
	d := domain.Diet{ID: s.newID(), Meals: make([]domain.Meal, len(meals))}
	for i, m := range meals {
		d.Meals[i] = domain.Meal{ID: s.newID(), Name: strings.TrimSpace(m.Name), Description: strings.TrimSpace(m.Description)}
	}
	return d
}

func (s *protocolService) workouts(in []WorkoutInput) []domain.Workout {
	out := make([]domain.Workout, len(in))
	for i, w := range in {
		exercises := make([]domain.Exercise, len(w.Exercises))
		for j, e := range w.Exercises {
			exercises[j] = domain.Exercise{
				ID:    s.newID(),
				Name:  strings.TrimSpace(e.Name),
				Sets:  e.Sets,
				Reps:  e.Reps,
				Notes: strings.TrimSpace(e.Notes),
			}
		}
		out[i] = domain.Workout{ID: s.newID(), Name: strings.TrimSpace(w.Name), Exercises: exercises}
	}
	return out
}

func (s *protocolService) supplements(in []SupplementInput) []domain.Supplement {
	out := make([]domain.Supplement, len(in))
	for i, sup := range in {
		out[i] = domain.Supplement{
			ID:        s.newID(),
			Name:      strings.TrimSpace(sup.Name),
			Dosage:    strings.TrimSpace(sup.Dosage),
			Frequency: strings.TrimSpace(sup.Frequency),
			Notes:     strings.TrimSpace(sup.Notes),
		}
	}
	return out
}

func protocolInputFrom(p domain.Protocol) ProtocolInput {
	in := ProtocolInput{
		CustomerID:   p.CustomerID,
		DurationDays: p.DurationDays,
		StartDate:    p.StartDate,
		Meals:        make([]MealInput, len(p.Diet.Meals)),
		Workouts:     make([]WorkoutInput, len(p.Workouts)),
		Supplements:  make([]SupplementInput, len(p.Supplements)),
	}
	for i, m := range p.Diet.Meals {
		in.Meals[i] = MealInput{Name: m.Name, Description: m.Description}
	}
	for i, w := range p.Workouts {
		exercises := make([]ExerciseInput, len(w.Exercises))
		for j, e := range w.Exercises {
			exercises[j] = ExerciseInput{Name: e.Name, Sets: e.Sets, Reps: e.Reps, Notes: e.Notes}
		}
		in.Workouts[i] = WorkoutInput{Name: w.Name, Exercises: exercises}
	}
	for i, sup := range p.Supplements {
		in.Supplements[i] = SupplementInput{Name: sup.Name, Dosage: sup.Dosage, Frequency: sup.Frequency, Notes: sup.Notes}
	}
	return in
}
