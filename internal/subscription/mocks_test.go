package subscription

import (
	"context"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

type mockUserRepo struct {
	FindByIDFunc         func(ctx context.Context, id string) (*model.User, error)
	ListWithBotTokenFunc func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepo) ListWithBotToken(ctx context.Context) ([]*model.User, error) {
	return m.ListWithBotTokenFunc(ctx)
}

type mockSourceRepo struct {
	FindByIDFunc              func(ctx context.Context, id string) (*model.Source, error)
	FindByPlatformAddressFunc func(ctx context.Context, kind model.PlatformKind, address string) (*model.Source, error)
	CreateFunc                func(ctx context.Context, source *model.Source) error
	ListDueByPlatformFunc     func(ctx context.Context, kind model.PlatformKind, now time.Time) ([]*model.Source, error)
	UpdateFetchStateFunc      func(ctx context.Context, source *model.Source) error
	DeleteFunc                func(ctx context.Context, id string) error
}

func (m *mockSourceRepo) FindByID(ctx context.Context, id string) (*model.Source, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockSourceRepo) FindByPlatformAddress(ctx context.Context, kind model.PlatformKind, address string) (*model.Source, error) {
	return m.FindByPlatformAddressFunc(ctx, kind, address)
}

func (m *mockSourceRepo) Create(ctx context.Context, source *model.Source) error {
	return m.CreateFunc(ctx, source)
}

func (m *mockSourceRepo) ListDueByPlatform(ctx context.Context, kind model.PlatformKind, now time.Time) ([]*model.Source, error) {
	return m.ListDueByPlatformFunc(ctx, kind, now)
}

func (m *mockSourceRepo) UpdateFetchState(ctx context.Context, source *model.Source) error {
	return m.UpdateFetchStateFunc(ctx, source)
}

func (m *mockSourceRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type mockPreferenceRepo struct {
	ListBySourceIDFunc       func(ctx context.Context, sourceID string) ([]*model.Preference, error)
	FindByUserAndSourceFunc  func(ctx context.Context, userID, sourceID string) (*model.Preference, error)
	FindMostRecentByUserFunc func(ctx context.Context, userID string) (*model.Preference, error)
	CreateFunc               func(ctx context.Context, pref *model.Preference) error
	UpdateFunc               func(ctx context.Context, pref *model.Preference) error
	DeleteFunc               func(ctx context.Context, id string) error
	CountBySourceIDFunc      func(ctx context.Context, sourceID string) (int, error)
}

func (m *mockPreferenceRepo) ListBySourceID(ctx context.Context, sourceID string) ([]*model.Preference, error) {
	return m.ListBySourceIDFunc(ctx, sourceID)
}

func (m *mockPreferenceRepo) FindByUserAndSource(ctx context.Context, userID, sourceID string) (*model.Preference, error) {
	return m.FindByUserAndSourceFunc(ctx, userID, sourceID)
}

func (m *mockPreferenceRepo) FindMostRecentByUser(ctx context.Context, userID string) (*model.Preference, error) {
	return m.FindMostRecentByUserFunc(ctx, userID)
}

func (m *mockPreferenceRepo) Create(ctx context.Context, pref *model.Preference) error {
	return m.CreateFunc(ctx, pref)
}

func (m *mockPreferenceRepo) Update(ctx context.Context, pref *model.Preference) error {
	return m.UpdateFunc(ctx, pref)
}

func (m *mockPreferenceRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockPreferenceRepo) CountBySourceID(ctx context.Context, sourceID string) (int, error) {
	return m.CountBySourceIDFunc(ctx, sourceID)
}

type mockPostRepo struct {
	FindByIDFunc                  func(ctx context.Context, id string) (*model.Post, error)
	FindLatestScheduledByUserFunc func(ctx context.Context, userID string) (*model.Post, error)
	ListDueUnsentByUserFunc       func(ctx context.Context, userID string, now time.Time) ([]*model.Post, error)
	CreateFunc                    func(ctx context.Context, post *model.Post) error
	MarkPostedFunc                func(ctx context.Context, postID string) error
	DeleteUnsentFunc              func(ctx context.Context, postID string) (int64, error)
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockPostRepo) FindLatestScheduledByUser(ctx context.Context, userID string) (*model.Post, error) {
	return m.FindLatestScheduledByUserFunc(ctx, userID)
}

func (m *mockPostRepo) ListDueUnsentByUser(ctx context.Context, userID string, now time.Time) ([]*model.Post, error) {
	return m.ListDueUnsentByUserFunc(ctx, userID, now)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	return m.CreateFunc(ctx, post)
}

func (m *mockPostRepo) MarkPosted(ctx context.Context, postID string) error {
	return m.MarkPostedFunc(ctx, postID)
}

func (m *mockPostRepo) DeleteUnsent(ctx context.Context, postID string) (int64, error) {
	return m.DeleteUnsentFunc(ctx, postID)
}
