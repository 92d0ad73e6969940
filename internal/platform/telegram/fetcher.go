// Package telegram はTelegramのフェッチ・送信能力を提供する。
// フェッチはRapidAPIのtelegram-channel API、送信はBot APIを使用する。
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

const (
	// defaultFetchEndpoint はtelegram-channel APIのエンドポイント。
	defaultFetchEndpoint = "https://telegram-channel.p.rapidapi.com/channel/message"
	// rapidAPIHost はRapidAPIのホストヘッダー値。
	rapidAPIHost = "telegram-channel.p.rapidapi.com"
	// fetchMaxID は常に最新メッセージから取得するためのmax_id値。
	fetchMaxID = "999999999"
)

// Fetcher はTelegram公開チャンネルのメッセージフェッチャー。
// platform.Fetcherインターフェースを実装する。
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	limit      int
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// limitが0以下の場合はデフォルト値5を使用する。
func NewFetcher(httpClient *http.Client, logger *slog.Logger, apiKey string, limit int) *Fetcher {
	if limit <= 0 {
		limit = 5
	}
	return &Fetcher{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		limit:      limit,
		endpoint:   defaultFetchEndpoint,
	}
}

// apiMessage はtelegram-channel APIのレスポンス1件を表す。
type apiMessage struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Date   string `json:"date"`
	Text   string `json:"text"`
	HTML   string `json:"html"`
	Photo  *struct {
		URL     string `json:"url"`
		Caption string `json:"caption"`
	} `json:"photo"`
}

// apiError はAPIがエラー時に返すオブジェクトを表す。
type apiError struct {
	ErrMsg string `json:"err_msg"`
}

// FetchRecent は指定チャンネルの最新メッセージを取得する。
// アドレス先頭の@は除去される。APIがerr_msgを返した場合はerrorとして扱う。
func (f *Fetcher) FetchRecent(ctx context.Context, address string) ([]model.SourceItem, error) {
	channel := strings.TrimPrefix(address, "@")

	reqURL, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	q.Set("channel", channel)
	q.Set("limit", fmt.Sprintf("%d", f.limit))
	q.Set("max_id", fetchMaxID)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("x-rapidapi-key", f.apiKey)
	req.Header.Set("x-rapidapi-host", rapidAPIHost)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Telegramチャンネルのフェッチに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram-channel APIがステータス %d を返しました", resp.StatusCode)
	}

	// 成功時は配列、エラー時はerr_msgを持つオブジェクトが返る
	var messages []apiMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.ErrMsg != "" {
			return nil, fmt.Errorf("telegram APIエラー: %s", apiErr.ErrMsg)
		}
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	items := make([]model.SourceItem, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == "" {
			continue
		}
		content := msg.HTML
		if content == "" {
			content = msg.Text
		}
		item := model.SourceItem{
			ID:      msg.ID,
			Content: content,
			URL:     fmt.Sprintf("https://t.me/%s/%s", channel, msg.ID),
		}
		if msg.Photo != nil && msg.Photo.URL != "" {
			item.Media = &model.Media{URL: msg.Photo.URL, Caption: msg.Photo.Caption}
		}
		items = append(items, item)
	}

	f.logger.Info("Telegramチャンネルをフェッチしました",
		slog.String("channel", channel),
		slog.Int("message_count", len(items)),
	)

	return items, nil
}
