package pipeline

import (
	"strings"
	"testing"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

func TestAccept_NilFilter_AcceptsEverything(t *testing.T) {
	if !Accept("", nil) {
		t.Error("フィルタ未設定の場合は空コンテンツも受理すべき")
	}
	if !Accept("何かしらのコンテンツ", nil) {
		t.Error("フィルタ未設定の場合は常に受理すべき")
	}
}

func TestAccept_TooShort_Rejected(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 10, MaxLength: 100, Keywords: []string{"near"}}

	if Accept("short", filter) {
		t.Error("minLength未満のコンテンツは拒否すべき")
	}
}

func TestAccept_KeywordMatch_CaseInsensitive(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 10, MaxLength: 100, Keywords: []string{"near"}}

	// 長さ50、大文字のNEARを含む
	content := "NEAR protocol update: " + strings.Repeat("x", 28)
	if len(content) != 50 {
		t.Fatalf("テストデータの長さ = %d, want 50", len(content))
	}

	if !Accept(content, filter) {
		t.Error("キーワード一致は大文字小文字を区別せず受理すべき")
	}
}

func TestAccept_NoKeywordMatch_Rejected(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 10, MaxLength: 100, Keywords: []string{"near"}}

	content := strings.Repeat("y", 50)
	if Accept(content, filter) {
		t.Error("キーワードに一致しないコンテンツは拒否すべき")
	}
}

func TestAccept_TooLong_Rejected(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 10, MaxLength: 100}

	if Accept(strings.Repeat("z", 101), filter) {
		t.Error("maxLengthを超えるコンテンツは拒否すべき")
	}
}

func TestAccept_LengthBounds_Inclusive(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 10, MaxLength: 100}

	if !Accept(strings.Repeat("a", 10), filter) {
		t.Error("minLengthちょうどのコンテンツは受理すべき")
	}
	if !Accept(strings.Repeat("a", 100), filter) {
		t.Error("maxLengthちょうどのコンテンツは受理すべき")
	}
}

func TestAccept_LengthCountsRunes(t *testing.T) {
	filter := &model.FilterConfig{MinLength: 5}

	// マルチバイト文字5文字（バイト数は15）
	if !Accept("あいうえお", filter) {
		t.Error("長さ判定はバイト数ではなく文字数で行うべき")
	}
}

func TestAccept_ZeroBounds_Unbounded(t *testing.T) {
	filter := &model.FilterConfig{Keywords: []string{"go"}}

	if !Accept("go", filter) {
		t.Error("長さ制約が0の場合は無制限として扱うべき")
	}
}
