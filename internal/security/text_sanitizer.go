// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力の自由テキスト（タスクのタイトル・説明、
// カテゴリ名、セッションのメモ等）からHTMLタグを除去し、
// 保存データを介したXSSを防止する。
// bluemondayのStrictPolicyを使用し、タグを一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
type TextSanitizerService interface {
	// SanitizeText は入力からHTMLタグを全て取り除き、前後の空白をトリムした
	// プレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(input string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からHTMLタグを全て取り除いたプレーンテキストを返す。
// bluemondayはタグ除去後にHTMLエンティティへエスケープするため、
// 保存用のプレーンテキストに戻すにはアンエスケープが必要。
func (s *textSanitizer) SanitizeText(input string) string {
	stripped := s.policy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
