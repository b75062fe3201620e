package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"biteme-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) FindRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Restaurant), args.Error(1)
}

func (m *MockRepository) FindRestaurantByName(ctx context.Context, name string) (*Restaurant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Restaurant), args.Error(1)
}

func (m *MockRepository) FindMenuItem(ctx context.Context, restaurantID, name string) (*MenuItem, error) {
	args := m.Called(ctx, restaurantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MenuItem), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Restaurant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Restaurant), args.Error(1)
}

func (m *MockRepository) CreateRestaurant(ctx context.Context, r *Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRepository) UpdateRestaurant(ctx context.Context, r *Restaurant, expectedVersion int64) error {
	return m.Called(ctx, r, expectedVersion).Error(0)
}

func (m *MockRepository) DeleteRestaurant(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) AddMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error {
	return m.Called(ctx, restaurantID, item, actorID, at).Error(0)
}

func (m *MockRepository) UpdateMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error {
	return m.Called(ctx, restaurantID, item, actorID, at).Error(0)
}

func (m *MockRepository) RemoveMenuItem(ctx context.Context, restaurantID, itemID, actorID string, at time.Time) error {
	return m.Called(ctx, restaurantID, itemID, actorID, at).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Generation(ctx context.Context) Generation {
	return m.Called(ctx).Get(0).(Generation)
}

func (m *MockCache) GetRestaurant(ctx context.Context, gen Generation, id string) (*Restaurant, bool) {
	args := m.Called(ctx, gen, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*Restaurant), args.Bool(1)
}

func (m *MockCache) SetRestaurant(ctx context.Context, gen Generation, r *Restaurant) {
	m.Called(ctx, gen, r)
}

func (m *MockCache) GetList(ctx context.Context, gen Generation, filter ListFilter) ([]*Restaurant, bool) {
	args := m.Called(ctx, gen, filter)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]*Restaurant), args.Bool(1)
}

func (m *MockCache) SetList(ctx context.Context, gen Generation, filter ListFilter, list []*Restaurant) {
	m.Called(ctx, gen, filter, list)
}

func (m *MockCache) Invalidate(ctx context.Context, restaurantID string) { m.Called(ctx, restaurantID) }

type stubQR struct {
	content string
	err     error
}

func (q *stubQR) PNG(content string) ([]byte, error) {
	q.content = content
	if q.err != nil {
		return nil, q.err
	}
	return []byte("png"), nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

func newTestService(repo Repository, cache Cache, qr QRGenerator) *service {
	s := NewService(repo, cache, qr, "https://biteme.test").(*service)
	s.now = func() time.Time { return fixedNow }
	return s
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), "admin-1", "admin@biteme.test", utils.RoleAdmin)
}

func validRestaurantInput() RestaurantInput {
	return RestaurantInput{
		Name:        "  Luigi's  ",
		CuisineType: "italian",
		Rating:      4.2,
		Address:     "1 Main St",
	}
}

// --- Tests ---

func TestService_ListRestaurants(t *testing.T) {
	t.Run("CacheHit", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		cached := []*Restaurant{{ID: "r-1"}}
		cache.On("Generation", mock.Anything).Return(Generation(4))
		cache.On("GetList", mock.Anything, Generation(4), ListFilter{}).Return(cached, true)

		list, err := newTestService(repo, cache, nil).ListRestaurants(context.Background(), ListFilter{})

		require.NoError(t, err)
		assert.Equal(t, cached, list)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("CacheMissFillsCache", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		loaded := []*Restaurant{{ID: "r-1"}, {ID: "r-2"}}
		cache.On("Generation", mock.Anything).Return(Generation(4))
		cache.On("GetList", mock.Anything, Generation(4), ListFilter{}).Return(nil, false)
		repo.On("List", mock.Anything, ListFilter{}).Return(loaded, nil)
		cache.On("SetList", mock.Anything, Generation(4), ListFilter{}, loaded).Return()

		list, err := newTestService(repo, cache, nil).ListRestaurants(context.Background(), ListFilter{})

		require.NoError(t, err)
		assert.Len(t, list, 2)
		cache.AssertExpectations(t)
	})

	t.Run("StoreError", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything, ListFilter{}).Return(nil, errors.New("down"))

		_, err := newTestService(repo, nil, nil).ListRestaurants(context.Background(), ListFilter{})
		assert.Error(t, err)
	})
}

func TestService_GetRestaurant(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	r := &Restaurant{ID: "r-1"}
	cache.On("Generation", mock.Anything).Return(Generation(2))
	cache.On("GetRestaurant", mock.Anything, Generation(2), "r-1").Return(nil, false)
	repo.On("FindRestaurant", mock.Anything, "r-1").Return(r, nil)
	cache.On("SetRestaurant", mock.Anything, Generation(2), r).Return()

	got, err := newTestService(repo, cache, nil).GetRestaurant(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Same(t, r, got)
	cache.AssertExpectations(t)
}

func TestService_CreateRestaurant(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		repo.On("FindRestaurantByName", mock.Anything, "Luigi's").Return(nil, ErrRestaurantNotFound)
		repo.On("CreateRestaurant", mock.Anything, mock.MatchedBy(func(r *Restaurant) bool {
			return r.Name == "Luigi's" &&
				r.CuisineType == CategoryItalian &&
				r.Version == 1 &&
				r.CreatedBy == "admin-1" &&
				r.CreatedAt.Equal(fixedNow.Truncate(time.Millisecond)) &&
				r.ID != ""
		})).Return(nil)
		cache.On("Invalidate", mock.Anything, mock.Anything).Return()

		r, err := newTestService(repo, cache, nil).CreateRestaurant(adminCtx(), validRestaurantInput())

		require.NoError(t, err)
		assert.NotNil(t, r.Menu)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("NameTaken", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindRestaurantByName", mock.Anything, "Luigi's").Return(&Restaurant{ID: "r-0"}, nil)

		_, err := newTestService(repo, nil, nil).CreateRestaurant(adminCtx(), validRestaurantInput())
		assert.ErrorIs(t, err, ErrRestaurantExists)
		repo.AssertNotCalled(t, "CreateRestaurant", mock.Anything, mock.Anything)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		repo := new(MockRepository)
		in := validRestaurantInput()
		in.Rating = 7
		in.CuisineType = "Klingon"

		_, err := newTestService(repo, nil, nil).CreateRestaurant(adminCtx(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertExpectations(t)
	})
}

func TestService_UpdateRestaurant(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		in := validRestaurantInput()
		in.Version = 2
		repo.On("UpdateRestaurant", mock.Anything, mock.MatchedBy(func(r *Restaurant) bool {
			return r.ID == "r-1" && r.UpdatedBy == "admin-1"
		}), int64(2)).Return(nil)
		repo.On("FindRestaurant", mock.Anything, "r-1").Return(&Restaurant{ID: "r-1", Version: 3}, nil)

		r, err := newTestService(repo, nil, nil).UpdateRestaurant(adminCtx(), "r-1", in)

		require.NoError(t, err)
		assert.Equal(t, int64(3), r.Version)
	})

	t.Run("VersionConflict", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		in := validRestaurantInput()
		in.Version = 1
		repo.On("UpdateRestaurant", mock.Anything, mock.Anything, int64(1)).Return(ErrVersionConflict)

		_, err := newTestService(repo, cache, nil).UpdateRestaurant(adminCtx(), "r-1", in)

		assert.ErrorIs(t, err, ErrVersionConflict)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestService_DeleteRestaurant(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	repo.On("DeleteRestaurant", mock.Anything, "r-1").Return(nil)
	cache.On("Invalidate", mock.Anything, "r-1").Return()
	repo.On("DeleteRestaurant", mock.Anything, "nope").Return(ErrRestaurantNotFound)

	s := newTestService(repo, cache, nil)
	assert.NoError(t, s.DeleteRestaurant(adminCtx(), "r-1"))
	assert.ErrorIs(t, s.DeleteRestaurant(adminCtx(), "nope"), ErrRestaurantNotFound)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestService_AddMenuItem(t *testing.T) {
	t.Run("DefaultsAvailable", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("AddMenuItem", mock.Anything, "r-1", mock.MatchedBy(func(it MenuItem) bool {
			return it.Name == "Margherita" && it.Available && it.ID != "" && it.Category == CategoryItalian
		}), "admin-1", fixedNow.Truncate(time.Millisecond)).Return(nil)

		item, err := newTestService(repo, nil, nil).AddMenuItem(adminCtx(), "r-1", MenuItemInput{
			Name: " Margherita ", Price: 10, Category: "ITALIAN",
		})

		require.NoError(t, err)
		assert.True(t, item.Available)
		repo.AssertExpectations(t)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("AddMenuItem", mock.Anything, "r-1", mock.Anything, mock.Anything, mock.Anything).Return(ErrMenuItemExists)

		_, err := newTestService(repo, nil, nil).AddMenuItem(adminCtx(), "r-1", MenuItemInput{
			Name: "Margherita", Price: 10, Category: CategoryItalian,
		})
		assert.ErrorIs(t, err, ErrMenuItemExists)
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		repo := new(MockRepository)
		spicy := 9

		_, err := newTestService(repo, nil, nil).AddMenuItem(adminCtx(), "r-1", MenuItemInput{
			Name: "Margherita", Price: 0, Category: CategoryItalian, SpicinessLevel: &spicy,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertExpectations(t)
	})
}

func TestService_UpdateAndDeleteMenuItem(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	off := false
	repo.On("UpdateMenuItem", mock.Anything, "r-1", mock.MatchedBy(func(it MenuItem) bool {
		return it.ID == "m-1" && !it.Available
	}), "admin-1", mock.Anything).Return(nil)
	repo.On("FindRestaurant", mock.Anything, "r-1").Return(&Restaurant{ID: "r-1"}, nil)
	repo.On("RemoveMenuItem", mock.Anything, "r-1", "m-9", "admin-1", mock.Anything).Return(ErrMenuItemNotFound)
	cache.On("Invalidate", mock.Anything, "r-1").Return()

	s := newTestService(repo, cache, nil)

	r, err := s.UpdateMenuItem(adminCtx(), "r-1", "m-1", MenuItemInput{
		Name: "Margherita", Price: 11, Category: CategoryItalian, Available: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", r.ID)

	assert.ErrorIs(t, s.DeleteMenuItem(adminCtx(), "r-1", "m-9"), ErrMenuItemNotFound)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestService_MenuQRCode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		qr := &stubQR{}
		repo.On("FindRestaurant", mock.Anything, "r-1").Return(&Restaurant{ID: "r-1"}, nil)

		png, err := newTestService(repo, nil, qr).MenuQRCode(context.Background(), "r-1")

		require.NoError(t, err)
		assert.Equal(t, []byte("png"), png)
		assert.Equal(t, "https://biteme.test/restaurants/r-1", qr.content)
	})

	t.Run("UnknownRestaurant", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindRestaurant", mock.Anything, "nope").Return(nil, ErrRestaurantNotFound)

		_, err := newTestService(repo, nil, &stubQR{}).MenuQRCode(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrRestaurantNotFound)
	})
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" japanese ")
	assert.True(t, ok)
	assert.Equal(t, CategoryJapanese, c)

	_, ok = ParseCategory("Martian")
	assert.False(t, ok)
}
