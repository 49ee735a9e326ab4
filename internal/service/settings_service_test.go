package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bump-server/internal/mocks"
	"bump-server/internal/model"
)

type observerStub struct {
	calls []*model.Settings
}

func (o *observerStub) SettingsChanged(_ uint, s *model.Settings) {
	o.calls = append(o.calls, s)
}

func strPtr(s string) *string { return &s }

func TestGetOrCreateSettingsCreatesDefaults(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Settings) bool {
		return s.UserID == 4 &&
			s.AvailabilityStart == "09:00" &&
			s.AvailabilityEnd == "17:00" &&
			s.NotifyFor == model.NotifyAll &&
			!s.DoNotDisturb
	})).Return(nil).Once()

	s, err := svc.GetOrCreateSettings(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint(4), s.UserID)
	repo.AssertExpectations(t)
}

func TestGetOrCreateSettingsConcurrentCreate(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)
	existing := &model.Settings{ID: 1, UserID: 4, AvailabilityStart: "08:00", AvailabilityEnd: "18:00", NotifyFor: model.NotifyAll}

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(existing, nil).Once()

	s, err := svc.GetOrCreateSettings(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "08:00", s.AvailabilityStart)
}

func TestUpdateSettingsWritesOnlyPatchedColumns(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	obs := &observerStub{}
	svc := NewSettingsService(repo, 0)
	svc.SetObserver(obs)
	current := &model.Settings{ID: 1, UserID: 4, AvailabilityStart: "09:00", AvailabilityEnd: "17:00", NotifyFor: model.NotifyIntended, DoNotDisturb: true}
	stored := *current
	stored.AvailabilityStart = "07:30"

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(current, nil).Once()
	repo.On("UpdateFields", mock.Anything, uint(4), map[string]any{"availability_start": "07:30"}).Return(int64(1), nil).Once()
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(&stored, nil).Once()

	s, err := svc.UpdateSettings(context.Background(), 4, SettingsPatch{AvailabilityStart: strPtr("07:30")})
	require.NoError(t, err)

	assert.Equal(t, "07:30", s.AvailabilityStart)
	assert.Equal(t, "17:00", s.AvailabilityEnd)
	assert.Equal(t, model.NotifyIntended, s.NotifyFor)
	assert.True(t, s.DoNotDisturb)
	require.Len(t, obs.calls, 1)
	assert.Same(t, &stored, obs.calls[0])
	repo.AssertExpectations(t)
}

func TestUpdateSettingsReturnsStoredRow(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	obs := &observerStub{}
	svc := NewSettingsService(repo, 0)
	svc.SetObserver(obs)
	before := model.DefaultSettings(4)
	// 读回的行包含其他请求已写入的免打扰
	stored := *before
	stored.NotifyFor = model.NotifyIntended
	stored.DoNotDisturb = true

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(before, nil).Once()
	repo.On("UpdateFields", mock.Anything, uint(4), map[string]any{"notify_for": model.NotifyIntended}).Return(int64(1), nil).Once()
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(&stored, nil).Once()

	scope := model.NotifyIntended
	s, err := svc.UpdateSettings(context.Background(), 4, SettingsPatch{NotifyFor: &scope})
	require.NoError(t, err)
	assert.True(t, s.DoNotDisturb)
	require.Len(t, obs.calls, 1)
	assert.True(t, obs.calls[0].DoNotDisturb)
}

func TestUpdateSettingsRowVanished(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	obs := &observerStub{}
	svc := NewSettingsService(repo, 0)
	svc.SetObserver(obs)

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(model.DefaultSettings(4), nil).Once()
	repo.On("UpdateFields", mock.Anything, uint(4), map[string]any{"do_not_disturb": true}).Return(int64(0), nil).Once()

	on := true
	_, err := svc.UpdateSettings(context.Background(), 4, SettingsPatch{DoNotDisturb: &on})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, obs.calls)
	repo.AssertExpectations(t)
}

func TestUpdateSettingsValidation(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)
	bad := model.NotifyScope("friends-only")

	_, err := svc.UpdateSettings(context.Background(), 4, SettingsPatch{AvailabilityEnd: strPtr("25:00")})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.UpdateSettings(context.Background(), 4, SettingsPatch{NotifyFor: &bad})
	assert.ErrorIs(t, err, ErrInvalidState)

	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateSettingsEmptyPatch(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)
	current := model.DefaultSettings(4)
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(current, nil).Once()

	s, err := svc.UpdateSettings(context.Background(), 4, SettingsPatch{})
	require.NoError(t, err)
	assert.Equal(t, current, s)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleDoNotDisturbFlipsOnlyThatColumn(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)
	current := model.DefaultSettings(4)
	stored := *current
	stored.DoNotDisturb = true

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(current, nil).Once()
	repo.On("ToggleDoNotDisturb", mock.Anything, uint(4)).Return(int64(1), nil).Once()
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(&stored, nil).Once()

	s, err := svc.ToggleDoNotDisturb(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, s.DoNotDisturb)
	assert.Equal(t, "09:00", s.AvailabilityStart)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestToggleDoNotDisturbRowVanished(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)

	repo.On("FindByUserID", mock.Anything, uint(4)).Return(model.DefaultSettings(4), nil).Once()
	repo.On("ToggleDoNotDisturb", mock.Anything, uint(4)).Return(int64(0), nil).Once()

	_, err := svc.ToggleDoNotDisturb(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsStorageFailure(t *testing.T) {
	repo := new(mocks.SettingsStoreMock)
	svc := NewSettingsService(repo, 0)
	repo.On("FindByUserID", mock.Anything, uint(4)).Return(nil, assert.AnError).Once()

	_, err := svc.GetOrCreateSettings(context.Background(), 4)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
}

// memSettingsStore 内存实现，前 readers 次读取会互相等待，
// 让并发请求都先读到旧值再写入
type memSettingsStore struct {
	mu      sync.Mutex
	row     model.Settings
	readers int
	gate    sync.WaitGroup
}

func newMemSettingsStore(row model.Settings, readers int) *memSettingsStore {
	st := &memSettingsStore{row: row, readers: readers}
	st.gate.Add(readers)
	return st
}

func (m *memSettingsStore) FindByUserID(_ context.Context, userID uint) (*model.Settings, error) {
	m.mu.Lock()
	wait := m.readers > 0
	if wait {
		m.readers--
	}
	row := m.row
	m.mu.Unlock()

	if wait {
		m.gate.Done()
		m.gate.Wait()
	}
	if row.UserID != userID {
		return nil, nil
	}
	return &row, nil
}

func (m *memSettingsStore) Create(context.Context, *model.Settings) error {
	return gorm.ErrDuplicatedKey
}

func (m *memSettingsStore) UpdateFields(_ context.Context, userID uint, fields map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.row.UserID != userID {
		return 0, nil
	}
	for col, val := range fields {
		switch col {
		case "availability_start":
			m.row.AvailabilityStart = val.(string)
		case "availability_end":
			m.row.AvailabilityEnd = val.(string)
		case "notify_for":
			m.row.NotifyFor = val.(model.NotifyScope)
		case "do_not_disturb":
			m.row.DoNotDisturb = val.(bool)
		}
	}
	return 1, nil
}

func (m *memSettingsStore) ToggleDoNotDisturb(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.row.UserID != userID {
		return 0, nil
	}
	m.row.DoNotDisturb = !m.row.DoNotDisturb
	return 1, nil
}

func (m *memSettingsStore) snapshot() model.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.row
}

type lastObserver struct {
	mu   sync.Mutex
	last *model.Settings
}

func (o *lastObserver) SettingsChanged(_ uint, s *model.Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = s
}

func (o *lastObserver) get() *model.Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func TestConcurrentUpdatesCacheStoredRow(t *testing.T) {
	for i := 0; i < 20; i++ {
		store := newMemSettingsStore(*model.DefaultSettings(4), 2)
		obs := &lastObserver{}
		svc := NewSettingsService(store, 0)
		svc.SetObserver(obs)

		on := true
		scope := model.NotifyIntended
		var wg sync.WaitGroup
		for _, patch := range []SettingsPatch{{DoNotDisturb: &on}, {NotifyFor: &scope}} {
			patch := patch
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.UpdateSettings(context.Background(), 4, patch)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		want := store.snapshot()
		assert.True(t, want.DoNotDisturb)
		assert.Equal(t, model.NotifyIntended, want.NotifyFor)
		require.NotNil(t, obs.get())
		assert.Equal(t, want, *obs.get())
	}
}

func TestConcurrentTogglesFlipInStore(t *testing.T) {
	store := newMemSettingsStore(*model.DefaultSettings(4), 2)
	obs := &lastObserver{}
	svc := NewSettingsService(store, 0)
	svc.SetObserver(obs)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleDoNotDisturb(context.Background(), 4)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 两次翻转都基于旧值读取，但翻转在存储里完成，结果回到关闭
	assert.False(t, store.snapshot().DoNotDisturb)
	require.NotNil(t, obs.get())
	assert.False(t, obs.get().DoNotDisturb)
}
