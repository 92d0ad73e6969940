package drain

import (
	"strings"

	"golang.org/x/net/html"
)

// creditFooter は配信本文の末尾に付与するクレジット表記。
const creditFooter = "\n\n 🤖 Powered by [NEAR AI FE_Man](https://app.near.ai/agents/cuongdcdev.near/ironman/latest)"

// markdownV2EscapeTargets はTelegram MarkdownV2でエスケープが必要な文字。
const markdownV2EscapeTargets = "_[]()~`>#+-=|{}.!"

// blockElements はテキスト化の際に改行へ変換するHTML要素。
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "blockquote": {}, "pre": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"ul": {}, "ol": {}, "tr": {},
}

// HTMLToText はHTML本文をプレーンテキストへ変換する。
// ブロック要素の境界とbrタグを改行として保存し、script/styleの
// 内容は除去する。パース不能な入力はそのまま返す。
func HTMLToText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	var b strings.Builder
	renderText(&b, doc)

	return normalizeWhitespace(b.String())
}

// renderText はノードツリーを走査してテキストを書き出す。
func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "br":
			b.WriteString("\n")
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}

	if n.Type == html.ElementNode {
		if _, ok := blockElements[n.Data]; ok {
			b.WriteString("\n")
		}
	}
}

// normalizeWhitespace は行ごとの前後空白を除去し、3行以上の連続した
// 空行を1つの空行に畳み込む。
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// AddCredit は本文末尾にクレジット表記を付与する。
func AddCredit(content string) string {
	return content + creditFooter
}

// EscapeMarkdownV2 はTelegram MarkdownV2の予約文字をエスケープする。
// 強調マーカー（**）は除去する。
func EscapeMarkdownV2(content string) string {
	content = strings.ReplaceAll(content, "**", "")

	var b strings.Builder
	b.Grow(len(content) * 2)
	for _, r := range content {
		if r < 128 && strings.ContainsRune(markdownV2EscapeTargets, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RenderOutbound は投稿本文を配信可能な形式へ変換する。
// HTMLのテキスト化、クレジット付与、MarkdownV2エスケープをこの順で行う。
func RenderOutbound(content string) string {
	return EscapeMarkdownV2(AddCredit(HTMLToText(content)))
}
