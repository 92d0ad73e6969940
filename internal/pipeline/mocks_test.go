package pipeline

import (
	"context"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// --- モック定義 ---

// mockPostRepo はPostRepositoryのテスト用モック。
type mockPostRepo struct {
	findByIDFunc                  func(ctx context.Context, id string) (*model.Post, error)
	findLatestScheduledByUserFunc func(ctx context.Context, userID string) (*model.Post, error)
	listDueUnsentByUserFunc       func(ctx context.Context, userID string, now time.Time) ([]*model.Post, error)
	createFunc                    func(ctx context.Context, post *model.Post) error
	markPostedFunc                func(ctx context.Context, postID string) error
	deleteUnsentFunc              func(ctx context.Context, postID string) (int64, error)
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepo) FindLatestScheduledByUser(ctx context.Context, userID string) (*model.Post, error) {
	if m.findLatestScheduledByUserFunc != nil {
		return m.findLatestScheduledByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPostRepo) ListDueUnsentByUser(ctx context.Context, userID string, now time.Time) ([]*model.Post, error) {
	if m.listDueUnsentByUserFunc != nil {
		return m.listDueUnsentByUserFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) MarkPosted(ctx context.Context, postID string) error {
	if m.markPostedFunc != nil {
		return m.markPostedFunc(ctx, postID)
	}
	return nil
}

func (m *mockPostRepo) DeleteUnsent(ctx context.Context, postID string) (int64, error) {
	if m.deleteUnsentFunc != nil {
		return m.deleteUnsentFunc(ctx, postID)
	}
	return 0, nil
}

// mockPreferenceRepo はPreferenceRepositoryのテスト用モック。
type mockPreferenceRepo struct {
	listBySourceIDFunc       func(ctx context.Context, sourceID string) ([]*model.Preference, error)
	findByUserAndSourceFunc  func(ctx context.Context, userID, sourceID string) (*model.Preference, error)
	findMostRecentByUserFunc func(ctx context.Context, userID string) (*model.Preference, error)
	createFunc               func(ctx context.Context, pref *model.Preference) error
	updateFunc               func(ctx context.Context, pref *model.Preference) error
	deleteFunc               func(ctx context.Context, id string) error
	countBySourceIDFunc      func(ctx context.Context, sourceID string) (int, error)
}

func (m *mockPreferenceRepo) ListBySourceID(ctx context.Context, sourceID string) ([]*model.Preference, error) {
	if m.listBySourceIDFunc != nil {
		return m.listBySourceIDFunc(ctx, sourceID)
	}
	return nil, nil
}

func (m *mockPreferenceRepo) FindByUserAndSource(ctx context.Context, userID, sourceID string) (*model.Preference, error) {
	if m.findByUserAndSourceFunc != nil {
		return m.findByUserAndSourceFunc(ctx, userID, sourceID)
	}
	return nil, nil
}

func (m *mockPreferenceRepo) FindMostRecentByUser(ctx context.Context, userID string) (*model.Preference, error) {
	if m.findMostRecentByUserFunc != nil {
		return m.findMostRecentByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPreferenceRepo) Create(ctx context.Context, pref *model.Preference) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, pref)
	}
	return nil
}

func (m *mockPreferenceRepo) Update(ctx context.Context, pref *model.Preference) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, pref)
	}
	return nil
}

func (m *mockPreferenceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPreferenceRepo) CountBySourceID(ctx context.Context, sourceID string) (int, error) {
	if m.countBySourceIDFunc != nil {
		return m.countBySourceIDFunc(ctx, sourceID)
	}
	return 0, nil
}

// mockChannelRepo はChannelRepositoryのテスト用モック。
type mockChannelRepo struct {
	listByUserIDFunc       func(ctx context.Context, userID string) ([]*model.Channel, error)
	listActiveByUserIDFunc func(ctx context.Context, userID string) ([]*model.Channel, error)
}

func (m *mockChannelRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Channel, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockChannelRepo) ListActiveByUserID(ctx context.Context, userID string) ([]*model.Channel, error) {
	if m.listActiveByUserIDFunc != nil {
		return m.listActiveByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

// mockRewriter はRewriterのテスト用モック。
type mockRewriter struct {
	rewriteFunc func(ctx context.Context, content, prompt string) (string, error)
}

func (m *mockRewriter) Rewrite(ctx context.Context, content, prompt string) (string, error) {
	if m.rewriteFunc != nil {
		return m.rewriteFunc(ctx, content, prompt)
	}
	return content, nil
}

// mockCollector はMetricsCollectorのテスト用モック。呼び出し回数を記録する。
type mockCollector struct {
	pollSuccess       int
	pollFailure       int
	itemsFetched      int
	postCreated       int
	filterRejected    int
	transformFallback int
	dispatchSuccess   int
	dispatchFailure   int
	drainLatency      int
}

func (m *mockCollector) RecordPollSuccess(platform string)          { m.pollSuccess++ }
func (m *mockCollector) RecordPollFailure(platform string)          { m.pollFailure++ }
func (m *mockCollector) RecordItemsFetched(platform string, n int)  { m.itemsFetched += n }
func (m *mockCollector) RecordPostCreated()                         { m.postCreated++ }
func (m *mockCollector) RecordFilterRejected()                      { m.filterRejected++ }
func (m *mockCollector) RecordTransformFallback()                   { m.transformFallback++ }
func (m *mockCollector) RecordDispatchSuccess()                     { m.dispatchSuccess++ }
func (m *mockCollector) RecordDispatchFailure()                     { m.dispatchFailure++ }
func (m *mockCollector) RecordDrainLatency(duration time.Duration)  { m.drainLatency++ }
