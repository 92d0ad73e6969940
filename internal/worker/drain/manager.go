package drain

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
)

// UserDrainer は1ユーザー分の配信サイクルを実行するインターフェース。
type UserDrainer interface {
	DrainOnce(ctx context.Context, user *model.User) error
}

// userWorker は1ユーザー分のドレインワーカーの実行状態を表す。
type userWorker struct {
	user   *model.User
	cancel context.CancelFunc
}

// Manager はユーザーごとのドレインワーカーを管理する。
// 定期的にアウトバウンド資格情報を持つユーザー集合を照合し、
// 新規ユーザーのワーカーを起動、資格情報を失ったユーザーの
// ワーカーを停止する。各ワーカーは自分のティッカーで独立に動作する。
type Manager struct {
	userRepo      repository.UserRepository
	drainer       UserDrainer
	logger        *slog.Logger
	drainInterval time.Duration

	mu      sync.Mutex
	workers map[string]*userWorker
	wg      sync.WaitGroup
}

// NewManager はManagerの新しいインスタンスを生成する。
// drainIntervalは各ユーザーワーカーの配信サイクル間隔。
func NewManager(
	userRepo repository.UserRepository,
	drainer UserDrainer,
	logger *slog.Logger,
	drainInterval time.Duration,
) *Manager {
	if drainInterval <= 0 {
		drainInterval = time.Minute
	}
	return &Manager{
		userRepo:      userRepo,
		drainer:       drainer,
		logger:        logger,
		drainInterval: drainInterval,
		workers:       make(map[string]*userWorker),
	}
}

// Start は指定間隔でユーザー集合の照合を行い、コンテキストが
// キャンセルされるまで実行を継続する。停止時は全ワーカーの
// 終了を待ってから戻る。
func (m *Manager) Start(ctx context.Context, reconcileInterval time.Duration) {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	m.logger.Info("ドレインマネージャを開始しました",
		slog.Duration("reconcile_interval", reconcileInterval),
		slog.Duration("drain_interval", m.drainInterval),
	)

	// 起動直後に1回実行
	if err := m.Reconcile(ctx); err != nil {
		m.logger.Error("ワーカー照合に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			m.wg.Wait()
			m.logger.Info("ドレインマネージャを停止しました")
			return
		case <-ticker.C:
			if err := m.Reconcile(ctx); err != nil {
				m.logger.Error("ワーカー照合に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Reconcile は現在のユーザー集合とワーカー集合を照合する。
// 資格情報を持つ新規ユーザーのワーカーを起動し、集合から消えた
// ユーザーのワーカーを停止する。
func (m *Manager) Reconcile(ctx context.Context) error {
	users, err := m.userRepo.ListWithBotToken(ctx)
	if err != nil {
		return err
	}

	active := make(map[string]*model.User, len(users))
	for _, user := range users {
		active[user.ID] = user
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, worker := range m.workers {
		if _, ok := active[userID]; !ok {
			worker.cancel()
			delete(m.workers, userID)
			m.logger.Info("ドレインワーカーを停止しました",
				slog.String("user_id", userID),
			)
		}
	}

	for userID, user := range active {
		if _, ok := m.workers[userID]; ok {
			continue
		}
		workerCtx, cancel := context.WithCancel(ctx)
		m.workers[userID] = &userWorker{user: user, cancel: cancel}

		m.wg.Add(1)
		go m.runWorker(workerCtx, user)

		m.logger.Info("ドレインワーカーを起動しました",
			slog.String("user_id", userID),
		)
	}

	return nil
}

// runWorker は1ユーザー分のドレインループを実行する。
func (m *Manager) runWorker(ctx context.Context, user *model.User) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.drainer.DrainOnce(ctx, user); err != nil {
				m.logger.Error("配信サイクルの実行に失敗しました",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// WorkerCount は現在稼働中のワーカー数を返す。
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// stopAll は全ワーカーへ停止を通知する。
func (m *Manager) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, worker := range m.workers {
		worker.cancel()
		delete(m.workers, userID)
	}
}
