package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

func newTestProcessor(
	prefRepo *mockPreferenceRepo,
	channelRepo *mockChannelRepo,
	postRepo *mockPostRepo,
	collector *mockCollector,
) *Processor {
	logger := newTestLogger()
	transformer := NewTransformer(&mockRewriter{}, collector, logger)
	allocator := NewAllocator(postRepo)
	return NewProcessor(prefRepo, channelRepo, postRepo, transformer, allocator, collector, logger)
}

func testSource() *model.Source {
	return &model.Source{
		ID:       "source-1",
		Platform: model.PlatformTelegram,
		Address:  "testchannel",
	}
}

func testItem() *model.SourceItem {
	return &model.SourceItem{
		ID:      "100",
		Content: "NEAR protocol announces a major upgrade to its runtime",
		URL:     "https://t.me/testchannel/100",
	}
}

func TestProcessItem_CreatesPostForSubscriber(t *testing.T) {
	prefRepo := &mockPreferenceRepo{
		listBySourceIDFunc: func(ctx context.Context, sourceID string) ([]*model.Preference, error) {
			return []*model.Preference{
				{ID: "pref-1", UserID: "user-1", SourceID: sourceID},
			}, nil
		},
	}
	channelRepo := &mockChannelRepo{
		listActiveByUserIDFunc: func(ctx context.Context, userID string) ([]*model.Channel, error) {
			return []*model.Channel{
				{ID: "ch-1", UserID: userID, Platform: model.PlatformTelegram, IsActive: true},
				{ID: "ch-2", UserID: userID, Platform: model.PlatformTelegram, IsActive: true},
			}, nil
		},
	}

	var created *model.Post
	postRepo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *model.Post) error {
			created = post
			return nil
		},
	}
	collector := &mockCollector{}
	processor := newTestProcessor(prefRepo, channelRepo, postRepo, collector)

	if err := processor.ProcessItem(context.Background(), testSource(), testItem()); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	if created == nil {
		t.Fatal("投稿が作成されるべき")
	}
	if created.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", created.UserID, "user-1")
	}
	if created.SourceItemID != "100" {
		t.Errorf("SourceItemID = %q, want %q", created.SourceItemID, "100")
	}
	if created.SourcePlatform != model.PlatformTelegram {
		t.Errorf("SourcePlatform = %q, want %q", created.SourcePlatform, model.PlatformTelegram)
	}
	if len(created.ChannelIDs) != 2 {
		t.Errorf("リンクされたチャンネル数 = %d, want 2", len(created.ChannelIDs))
	}
	if created.ID == "" {
		t.Error("投稿IDが採番されるべき")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("作成・更新タイムスタンプが設定されるべき")
	}
	if collector.postCreated != 1 {
		t.Errorf("投稿作成メトリクス = %d, want 1", collector.postCreated)
	}
}

func TestProcessItem_FilterRejected_NoPostCreated(t *testing.T) {
	prefRepo := &mockPreferenceRepo{
		listBySourceIDFunc: func(ctx context.Context, sourceID string) ([]*model.Preference, error) {
			return []*model.Preference{
				{
					ID: "pref-1", UserID: "user-1", SourceID: sourceID,
					Filter: &model.FilterConfig{Keywords: []string{"bitcoin"}},
				},
			}, nil
		},
	}

	createCalled := false
	postRepo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *model.Post) error {
			createCalled = true
			return nil
		},
	}
	collector := &mockCollector{}
	processor := newTestProcessor(prefRepo, &mockChannelRepo{}, postRepo, collector)

	if err := processor.ProcessItem(context.Background(), testSource(), testItem()); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	if createCalled {
		t.Error("フィルタで除外されたアイテムは投稿を作成すべきではない")
	}
	if collector.filterRejected != 1 {
		t.Errorf("フィルタ除外メトリクス = %d, want 1", collector.filterRejected)
	}
}

func TestProcessItem_NoActiveChannels_Skipped(t *testing.T) {
	prefRepo := &mockPreferenceRepo{
		listBySourceIDFunc: func(ctx context.Context, sourceID string) ([]*model.Preference, error) {
			return []*model.Preference{
				{ID: "pref-1", UserID: "user-1", SourceID: sourceID},
			}, nil
		},
	}
	channelRepo := &mockChannelRepo{
		listActiveByUserIDFunc: func(ctx context.Context, userID string) ([]*model.Channel, error) {
			return nil, nil
		},
	}

	createCalled := false
	postRepo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *model.Post) error {
			createCalled = true
			return nil
		},
	}
	processor := newTestProcessor(prefRepo, channelRepo, postRepo, &mockCollector{})

	if err := processor.ProcessItem(context.Background(), testSource(), testItem()); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	if createCalled {
		t.Error("アクティブなチャンネルがないユーザーの投稿は作成すべきではない")
	}
}

func TestProcessItem_OneSubscriberFails_OthersStillProcessed(t *testing.T) {
	prefRepo := &mockPreferenceRepo{
		listBySourceIDFunc: func(ctx context.Context, sourceID string) ([]*model.Preference, error) {
			return []*model.Preference{
				{ID: "pref-1", UserID: "user-1", SourceID: sourceID},
				{ID: "pref-2", UserID: "user-2", SourceID: sourceID},
			}, nil
		},
	}
	channelRepo := &mockChannelRepo{
		listActiveByUserIDFunc: func(ctx context.Context, userID string) ([]*model.Channel, error) {
			return []*model.Channel{
				{ID: "ch-" + userID, UserID: userID, Platform: model.PlatformTelegram, IsActive: true},
			}, nil
		},
	}

	var createdUsers []string
	postRepo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *model.Post) error {
			if post.UserID == "user-1" {
				return errors.New("insert failed")
			}
			createdUsers = append(createdUsers, post.UserID)
			return nil
		},
	}
	processor := newTestProcessor(prefRepo, channelRepo, postRepo, &mockCollector{})

	if err := processor.ProcessItem(context.Background(), testSource(), testItem()); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	if len(createdUsers) != 1 || createdUsers[0] != "user-2" {
		t.Errorf("1購読者の失敗は他の購読者の処理を妨げるべきではない, created = %v", createdUsers)
	}
}

func TestProcessItem_ConcurrentItems_SpacingPreserved(t *testing.T) {
	spacing := time.Hour
	prefRepo := &mockPreferenceRepo{
		listBySourceIDFunc: func(ctx context.Context, sourceID string) ([]*model.Preference, error) {
			return []*model.Preference{
				{ID: "pref-1", UserID: "user-1", SourceID: sourceID, PublishIntervalSeconds: int(spacing.Seconds())},
			}, nil
		},
	}
	channelRepo := &mockChannelRepo{
		listActiveByUserIDFunc: func(ctx context.Context, userID string) ([]*model.Channel, error) {
			return []*model.Channel{
				{ID: "ch-1", UserID: userID, Platform: model.PlatformTelegram, IsActive: true},
			}, nil
		},
	}

	// アロケータが読む「最新の投稿」と作成済み投稿をロック付きで共有する
	var mu sync.Mutex
	var posts []*model.Post
	postRepo := &mockPostRepo{}
	postRepo.findLatestScheduledByUserFunc = func(ctx context.Context, userID string) (*model.Post, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(posts) == 0 {
			return nil, nil
		}
		latest := posts[0]
		for _, p := range posts[1:] {
			if p.ScheduledAt.After(latest.ScheduledAt) {
				latest = p
			}
		}
		return latest, nil
	}
	postRepo.createFunc = func(ctx context.Context, post *model.Post) error {
		mu.Lock()
		defer mu.Unlock()
		posts = append(posts, post)
		return nil
	}

	processor := newTestProcessor(prefRepo, channelRepo, postRepo, &mockCollector{})
	source := testSource()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			item := &model.SourceItem{
				ID:      string(rune('a' + n)),
				Content: "concurrent item content",
			}
			_ = processor.ProcessItem(context.Background(), source, item)
		}(i)
	}
	wg.Wait()

	if len(posts) != 10 {
		t.Fatalf("作成された投稿数 = %d, want 10", len(posts))
	}

	// 同一ユーザーの全投稿ペアが間隔以上離れていること
	for i := 0; i < len(posts); i++ {
		for j := i + 1; j < len(posts); j++ {
			diff := posts[i].ScheduledAt.Sub(posts[j].ScheduledAt)
			if diff < 0 {
				diff = -diff
			}
			if diff < spacing {
				t.Fatalf("投稿間隔 = %v, want %v 以上", diff, spacing)
			}
		}
	}
}
