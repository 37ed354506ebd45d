package registrations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/evolve-africa/backend/internal/models"
)

// fakeStore implements Store in memory for service and handler tests.
type fakeStore struct {
	regs         []models.Registration
	created      []*models.Registration
	createErr    error
	searchResult []models.Registration
	lastOffset   int
	lastLimit    int
}

func newFakeStore(regs ...models.Registration) *fakeStore {
	// copy so in-place mutation by DeleteByID cannot alias the caller's slice
	return &fakeStore{regs: append([]models.Registration(nil), regs...)}
}

func (f *fakeStore) Create(ctx context.Context, reg *models.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	reg.ID = uuid.New()
	reg.CreatedAt = time.Now()
	f.created = append(f.created, reg)
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	for i := range f.regs {
		if f.regs[i].Email == email {
			return &f.regs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.regs), nil
}

func (f *fakeStore) List(ctx context.Context, offset, limit int) ([]models.Registration, error) {
	f.lastOffset, f.lastLimit = offset, limit
	if offset >= len(f.regs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.regs) {
		end = len(f.regs)
	}
	return f.regs[offset:end], nil
}

func (f *fakeStore) Search(ctx context.Context, flt Filter, strict bool) ([]models.Registration, error) {
	if _, _, err := buildPredicate(flt, strict); err != nil {
		return nil, err
	}
	return f.searchResult, nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	for i := range f.regs {
		if f.regs[i].ID == id {
			reg := f.regs[i]
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return &reg, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListAll(ctx context.Context) ([]models.Registration, error) {
	return f.regs, nil
}

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) EnqueueConfirmation(ctx context.Context, reg *models.Registration) error {
	f.calls++
	return f.err
}

func seedRegistrations(n int) []models.Registration {
	regs := make([]models.Registration, n)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	for i := range regs {
		regs[i] = models.Registration{
			ID:              uuid.New(),
			FirstName:       fmt.Sprintf("User%02d", i),
			Email:           fmt.Sprintf("user%02d@example.com", i),
			SelectedSession: models.SessionMorning,
			// newest first, matching store ordering
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return regs
}

func TestServiceCreate_NormalizesEmail(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier, nil, nil)

	reg, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Jane",
		Email:     "  Jane.Doe@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", reg.Email)
	assert.Equal(t, models.SessionMorning, reg.SelectedSession)
	assert.NotEqual(t, uuid.Nil, reg.ID)
	assert.Equal(t, 1, notifier.calls)
}

func TestServiceCreate_DuplicateEmail(t *testing.T) {
	store := newFakeStore(models.Registration{ID: uuid.New(), Email: "jane@example.com"})
	svc := NewService(store, nil, nil, nil)

	// same email modulo case and whitespace
	_, err := svc.Create(context.Background(), CreateInput{Email: " JANE@example.com "})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Empty(t, store.created)
}

func TestServiceCreate_DuplicateFromConstraint(t *testing.T) {
	// two concurrent creates can both pass the pre-check; the store's
	// unique constraint decides and the loser still sees a duplicate error
	store := newFakeStore()
	store.createErr = ErrDuplicateEmail
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{Email: "jane@example.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestServiceCreate_SessionNormalization(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"", models.SessionMorning, nil},
		{"morning", models.SessionMorning, nil},
		{"MORNING", models.SessionMorning, nil},
		{"MoRnInG", models.SessionMorning, nil},
		{"evening", models.SessionEvening, nil},
		{" Evening ", models.SessionEvening, nil},
		{"afternoon", "", ErrInvalidSession},
		{"night", "", ErrInvalidSession},
	}
	for _, tt := range tests {
		t.Run("session "+tt.in, func(t *testing.T) {
			svc := NewService(newFakeStore(), nil, nil, nil)
			reg, err := svc.Create(context.Background(), CreateInput{
				Email:           "s" + uuid.NewString() + "@example.com",
				SelectedSession: tt.in,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.SelectedSession)
		})
	}
}

func TestServiceCreate_EmailRequired(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, nil)
	for _, email := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), CreateInput{Email: email})
		require.ErrorIs(t, err, ErrEmailRequired)
	}
}

func TestServiceCreate_NotifierFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: errors.New("redis down")}
	svc := NewService(store, notifier, nil, nil)

	reg, err := svc.Create(context.Background(), CreateInput{Email: "jane@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, reg)
	assert.Equal(t, 1, notifier.calls)
}

func TestServiceList_Pagination(t *testing.T) {
	store := newFakeStore(seedRegistrations(25)...)
	svc := NewService(store, nil, nil, nil)

	page, err := svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalRecords)
	require.Len(t, page.Registrations, 10)
	// records 11-20 of the newest-first ordering
	assert.Equal(t, "user10@example.com", page.Registrations[0].Email)
	assert.Equal(t, "user19@example.com", page.Registrations[9].Email)
}

func TestServiceList_Defaults(t *testing.T) {
	store := newFakeStore(seedRegistrations(5)...)
	svc := NewService(store, nil, nil, nil)

	page, err := svc.List(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 0, store.lastOffset)
	assert.Equal(t, DefaultLimit, store.lastLimit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestServiceList_EmptyCollection(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, nil)

	page, err := svc.List(context.Background(), 1, 25)
	require.NoError(t, err)
	assert.NotNil(t, page.Registrations)
	assert.Empty(t, page.Registrations)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 0, page.TotalRecords)
}

func TestServiceFilterStrict(t *testing.T) {
	t.Run("no filters rejected", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, nil, nil)
		_, err := svc.FilterStrict(context.Background(), Filter{})
		require.ErrorIs(t, err, ErrNoFilters)
	})

	t.Run("no matches is its own result", func(t *testing.T) {
		store := newFakeStore()
		store.searchResult = nil
		svc := NewService(store, nil, nil, nil)
		_, err := svc.FilterStrict(context.Background(), Filter{Location: "Kampala"})
		require.ErrorIs(t, err, ErrNoRegistrations)
	})

	t.Run("invalid session rejected", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, nil, nil)
		_, err := svc.FilterStrict(context.Background(), Filter{Session: "afternoon"})
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("matches returned", func(t *testing.T) {
		store := newFakeStore()
		store.searchResult = seedRegistrations(2)
		svc := NewService(store, nil, nil, nil)
		regs, err := svc.FilterStrict(context.Background(), Filter{Location: "Nairobi"})
		require.NoError(t, err)
		assert.Len(t, regs, 2)
	})
}

func TestServiceFilter_LenientAllowsEmpty(t *testing.T) {
	store := newFakeStore()
	store.searchResult = seedRegistrations(3)
	svc := NewService(store, nil, nil, nil)

	regs, err := svc.Filter(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, regs, 3)
}

func TestServiceDelete(t *testing.T) {
	regs := seedRegistrations(2)
	store := newFakeStore(regs...)
	svc := NewService(store, nil, nil, nil)

	deleted, err := svc.Delete(context.Background(), regs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, regs[0].Email, deleted.Email)
	assert.Len(t, store.regs, 1)

	_, err = svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.regs, 1)
}

func TestServiceExportExcel_EmptyIsNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, nil)
	_, err := svc.ExportExcel(context.Background())
	require.ErrorIs(t, err, ErrNoRegistrations)
}

func TestServiceExportExcel_Workbook(t *testing.T) {
	regs := seedRegistrations(2)
	regs[0].Location = "Nairobi"
	store := newFakeStore(regs...)
	svc := NewService(store, nil, nil, nil)

	buf, err := svc.ExportExcel(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, f.GetSheetList(), "Registered Users")

	header, err := f.GetCellValue("Registered Users", "A1")
	require.NoError(t, err)
	assert.Equal(t, "First Name", header)

	email, err := f.GetCellValue("Registered Users", "C2")
	require.NoError(t, err)
	assert.Equal(t, regs[0].Email, email)

	date, err := f.GetCellValue("Registered Users", "H2")
	require.NoError(t, err)
	assert.Equal(t, regs[0].CreatedAt.Format(exportTimeFormat), date)
}
