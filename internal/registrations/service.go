package registrations

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evolve-africa/backend/internal/models"
)

// DefaultLimit is the page size used when the client omits or mangles the
// limit parameter.
const DefaultLimit = 25

// Notifier enqueues a confirmation email job for a new registration.
type Notifier interface {
	EnqueueConfirmation(ctx context.Context, reg *models.Registration) error
}

// Archiver stores a copy of a generated export.
type Archiver interface {
	ArchiveExport(ctx context.Context, filename string, data []byte) error
}

// Service implements the registration operations: create with duplicate
// rejection and session normalization, paginated and filtered listing,
// delete, and xlsx export.
type Service struct {
	store    Store
	notifier Notifier
	archiver Archiver
	logger   *zap.Logger
}

// NewService creates a registration service. notifier and archiver may be
// nil when the corresponding backends are not configured.
func NewService(store Store, notifier Notifier, archiver Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, archiver: archiver, logger: logger}
}

// CreateInput carries the registration fields accepted by Create.
type CreateInput struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Location         string
	CourseOfInterest string
	SelectedSession  string
}

// Create validates and persists a new registration. The email is trimmed
// and lowercased before the duplicate check and before storage; the session
// defaults to Morning and any other input is title-cased then validated.
// The duplicate pre-check is racy; the store's unique constraint decides
// concurrent creates and both paths surface ErrDuplicateEmail.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Registration, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	session := models.SessionMorning
	if in.SelectedSession != "" {
		session = titleCase(in.SelectedSession)
		if !models.IsValidSession(session) {
			return nil, ErrInvalidSession
		}
	}

	reg := &models.Registration{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            email,
		Phone:            in.Phone,
		Location:         in.Location,
		CourseOfInterest: in.CourseOfInterest,
		SelectedSession:  session,
	}
	if err := s.store.Create(ctx, reg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.EnqueueConfirmation(ctx, reg); err != nil {
			// confirmation delivery is best-effort; the registration stands
			s.logger.Warn("enqueue confirmation failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		}
	}
	return reg, nil
}

// Page is one page of registrations with pagination metadata.
type Page struct {
	CurrentPage   int                   `json:"currentPage"`
	TotalPages    int                   `json:"totalPages"`
	TotalRecords  int                   `json:"totalRecords"`
	Registrations []models.Registration `json:"registrations"`
}

// List returns one page of registrations, newest first. Non-positive page
// and limit values fall back to page 1 and DefaultLimit.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	regs, err := s.store.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return &Page{
		CurrentPage:   page,
		TotalPages:    (total + limit - 1) / limit,
		TotalRecords:  total,
		Registrations: regs,
	}, nil
}

// Filter returns registrations matching f under the lenient policy:
// case-insensitive substring search, unknown session values ignored, and an
// empty filter set returns the whole collection.
func (s *Service) Filter(ctx context.Context, f Filter) ([]models.Registration, error) {
	regs, err := s.store.Search(ctx, f, false)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return regs, nil
}

// FilterStrict returns registrations matching f under the strict policy:
// at least one filter is required, search fields match by case-sensitive
// equality, and a valid filter matching nothing is ErrNoRegistrations.
func (s *Service) FilterStrict(ctx context.Context, f Filter) ([]models.Registration, error) {
	if f.Empty() {
		return nil, ErrNoFilters
	}
	regs, err := s.store.Search(ctx, f, true)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, ErrNoRegistrations
	}
	return regs, nil
}

// Delete permanently removes a registration and returns its prior state.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.store.DeleteByID(ctx, id)
}

// ExportExcel renders every registration into an xlsx workbook. An empty
// collection is ErrNoRegistrations rather than an empty file. When an
// archiver is configured a copy is stored in the background.
func (s *Service) ExportExcel(ctx context.Context) (*bytes.Buffer, error) {
	regs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if len(regs) == 0 {
		return nil, ErrNoRegistrations
	}

	buf, err := buildWorkbook(regs)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	if s.archiver != nil {
		filename := fmt.Sprintf("registrations-%s.xlsx", time.Now().Format("20060102-150405"))
		data := make([]byte, buf.Len())
		copy(data, buf.Bytes())
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := s.archiver.ArchiveExport(ctx, filename, data); err != nil {
				s.logger.Warn("archive export failed", zap.Error(err), zap.String("filename", filename))
			}
		}()
	}
	return buf, nil
}

// titleCase uppercases the first rune and lowercases the rest, so inputs
// like "morning" or "EVENING" normalize to their canonical session value.
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
