// Package rewrite はNEAR AIエージェントによるコンテンツ書き換えクライアントを提供する。
// スレッドを作成して実行し、スレッドの先頭メッセージを書き換え結果として取り出す。
package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Rewriter はコンテンツ書き換えのインターフェース。
// 失敗はerrorとして返し、元コンテンツへのフォールバックは呼び出し側が行う。
type Rewriter interface {
	Rewrite(ctx context.Context, content, prompt string) (string, error)
}

// Client はNEAR AI APIのクライアント。
// タイムアウトはhttpClientに設定されたものを使用する（リトライは行わない）。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	agentID    string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey, agentID string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		agentID:    agentID,
	}
}

// runRequest はスレッド作成・実行リクエストのボディを表す。
type runRequest struct {
	AgentID       string `json:"agent_id"`
	NewMessage    string `json:"new_message"`
	MaxIterations string `json:"max_iterations"`
}

// threadMessages はスレッドのメッセージ一覧レスポンスを表す。
type threadMessages struct {
	Data []struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// Rewrite はコンテンツをプロンプトに従って書き換えた結果を返す。
// スレッドを作成・実行し、完了後のスレッドから先頭メッセージを取り出す。
// 結果が取得できない場合はエラーを返す（呼び出し側が元コンテンツへフォールバックする）。
func (c *Client) Rewrite(ctx context.Context, content, prompt string) (string, error) {
	msg := fmt.Sprintf(" %s .Make it more readable by adding new lines when needed. Just give me the processed post and nothing more. Here is the content: %s", prompt, content)

	threadID, err := c.createRun(ctx, msg)
	if err != nil {
		return "", err
	}

	result, err := c.firstMessage(ctx, threadID)
	if err != nil {
		return "", err
	}

	c.logger.Info("コンテンツの書き換えが完了しました",
		slog.String("thread_id", threadID),
		slog.Int("input_length", len(content)),
		slog.Int("output_length", len(result)),
	)

	return result, nil
}

// createRun はスレッドを作成・実行し、スレッドIDを返す。
func (c *Client) createRun(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(runRequest{
		AgentID:       c.agentID,
		NewMessage:    message,
		MaxIterations: "1",
	})
	if err != nil {
		return "", fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/threads/runs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("書き換えスレッドの作成に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("書き換えAPIがステータス %d を返しました", resp.StatusCode)
	}

	// レスポンスボディはスレッドIDのJSON文字列
	var threadID string
	if err := json.Unmarshal(respBody, &threadID); err != nil {
		return "", fmt.Errorf("スレッドIDのパースに失敗しました: %w", err)
	}
	if threadID == "" {
		return "", fmt.Errorf("書き換えAPIが空のスレッドIDを返しました")
	}

	return threadID, nil
}

// firstMessage はスレッドの先頭メッセージのテキストを返す。
func (c *Client) firstMessage(ctx context.Context, threadID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/threads/%s/messages", c.baseURL, threadID), nil)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("スレッドメッセージの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("書き換えAPIがステータス %d を返しました", resp.StatusCode)
	}

	var messages threadMessages
	if err := json.Unmarshal(respBody, &messages); err != nil {
		return "", fmt.Errorf("メッセージ一覧のパースに失敗しました: %w", err)
	}

	if len(messages.Data) == 0 || len(messages.Data[0].Content) == 0 ||
		messages.Data[0].Content[0].Text.Value == "" {
		return "", fmt.Errorf("書き換え結果が空でした")
	}

	return messages.Data[0].Content[0].Text.Value, nil
}
