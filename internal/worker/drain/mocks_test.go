package drain

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// --- モック定義 ---

// mockPostRepo はPostRepositoryのテスト用モック。
type mockPostRepo struct {
	mu                            sync.Mutex
	findByIDFunc                  func(ctx context.Context, id string) (*model.Post, error)
	findLatestScheduledByUserFunc func(ctx context.Context, userID string) (*model.Post, error)
	listDueUnsentByUserFunc       func(ctx context.Context, userID string, now time.Time) ([]*model.Post, error)
	createFunc                    func(ctx context.Context, post *model.Post) error
	markPostedFunc                func(ctx context.Context, postID string) error
	deleteUnsentFunc              func(ctx context.Context, postID string) (int64, error)
	markedPostIDs                 []string
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
	m.mu.Lock()
	m.markedPostIDs = append(m.markedPostIDs, postID)
	m.mu.Unlock()
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

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	findByIDFunc         func(ctx context.Context, id string) (*model.User, error)
	listWithBotTokenFunc func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) ListWithBotToken(ctx context.Context) ([]*model.User, error) {
	if m.listWithBotTokenFunc != nil {
		return m.listWithBotTokenFunc(ctx)
	}
	return nil, nil
}

// sentMessage は送信されたメッセージの記録を表す。
type sentMessage struct {
	address  string
	text     string
	mediaURL string
}

// mockSender はplatform.Senderのテスト用モック。送信内容を記録する。
type mockSender struct {
	mu            sync.Mutex
	sent          []sentMessage
	sendTextFunc  func(ctx context.Context, token, address, text string) error
	sendMediaFunc func(ctx context.Context, token, address, mediaURL, caption string) error
}

func (m *mockSender) SendText(ctx context.Context, token, address, text string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{address: address, text: text})
	m.mu.Unlock()
	if m.sendTextFunc != nil {
		return m.sendTextFunc(ctx, token, address, text)
	}
	return nil
}

func (m *mockSender) SendMedia(ctx context.Context, token, address, mediaURL, caption string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{address: address, text: caption, mediaURL: mediaURL})
	m.mu.Unlock()
	if m.sendMediaFunc != nil {
		return m.sendMediaFunc(ctx, token, address, mediaURL, caption)
	}
	return nil
}

// mockCollector はMetricsCollectorのテスト用モック。
type mockCollector struct {
	mu              sync.Mutex
	dispatchSuccess int
	dispatchFailure int
	drainLatency    int
}

func (m *mockCollector) RecordPollSuccess(platform string)         {}
func (m *mockCollector) RecordPollFailure(platform string)         {}
func (m *mockCollector) RecordItemsFetched(platform string, n int) {}
func (m *mockCollector) RecordPostCreated()                        {}
func (m *mockCollector) RecordFilterRejected()                     {}
func (m *mockCollector) RecordTransformFallback()                  {}

func (m *mockCollector) RecordDispatchSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchSuccess++
}

func (m *mockCollector) RecordDispatchFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchFailure++
}

func (m *mockCollector) RecordDrainLatency(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drainLatency++
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}
