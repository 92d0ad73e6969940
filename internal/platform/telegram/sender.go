package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultBotAPIBase はTelegram Bot APIのベースURL。
const defaultBotAPIBase = "https://api.telegram.org"

// parseModeMarkdownV2 は送信メッセージのパースモード。
// 本文はレンダラーでMarkdownV2向けにエスケープ済みであること。
const parseModeMarkdownV2 = "MarkdownV2"

// Sender はTelegram Bot API経由の配信送信者。
// platform.Senderインターフェースを実装する。トークンはユーザーごとに
// 呼び出し時に渡されるため、1つのSenderを全ユーザーで共有できる。
type Sender struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewSender はSenderの新しいインスタンスを生成する。
func NewSender(httpClient *http.Client, logger *slog.Logger) *Sender {
	return &Sender{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    defaultBotAPIBase,
	}
}

// botResponse はBot APIの共通レスポンス形式を表す。
type botResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendText はテキストメッセージをチャットへ送信する。
func (s *Sender) SendText(ctx context.Context, token, address, text string) error {
	payload := map[string]interface{}{
		"chat_id":    address,
		"text":       text,
		"parse_mode": parseModeMarkdownV2,
	}
	return s.call(ctx, token, "sendMessage", payload)
}

// SendMedia は写真とキャプションをチャットへ送信する。
func (s *Sender) SendMedia(ctx context.Context, token, address, mediaURL, caption string) error {
	payload := map[string]interface{}{
		"chat_id":    address,
		"photo":      mediaURL,
		"caption":    caption,
		"parse_mode": parseModeMarkdownV2,
	}
	return s.call(ctx, token, "sendPhoto", payload)
}

// call はBot APIのメソッドを呼び出し、okでないレスポンスをエラーとして返す。
func (s *Sender) call(ctx context.Context, token, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/%s", s.baseURL, token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Bot APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result botResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("Bot APIレスポンスのパースに失敗しました (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return fmt.Errorf("Bot API %s が失敗しました (status %d): %s", method, resp.StatusCode, result.Description)
	}

	return nil
}
