// Package logging はリクエスト単位のログレベル制御を提供する。
//
// 呼び出し元がX-Log-Levelヘッダーで指定したレベルに応じて、
// デバッグログの出力有無を切り替える。INFO/ERRORは常に出力される。
package logging

import (
	"log"
	"strings"
)

// Level はリクエスト単位のログレベルを表す。
type Level int

const (
	// LevelInfo は通常のログレベル。INFO/ERRORのみ出力する。
	LevelInfo Level = iota
	// LevelDebug はデバッグログレベル。DEBUGも追加で出力する。
	LevelDebug
)

// LevelFromHeader はX-Log-Levelヘッダーの値からログレベルを導出する。
// "debug"（大文字小文字を区別しない）以外はすべてLevelInfoになる。
func LevelFromHeader(value string) Level {
	if strings.EqualFold(value, "debug") {
		return LevelDebug
	}
	return LevelInfo
}

// String はヘッダーに載せられる形式のレベル名を返す。
func (l Level) String() string {
	if l == LevelDebug {
		return "debug"
	}
	return "info"
}

// Infof はINFOレベルのログを出力する。常に出力される。
func Infof(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

// Errorf はERRORレベルのログを出力する。常に出力される。
func Errorf(format string, args ...any) {
	log.Printf("[ERROR] "+format, args...)
}

// Debugf はDEBUGレベルのログを出力する。
// リクエストのログレベルがLevelDebugの場合のみ出力される。
func Debugf(level Level, format string, args ...any) {
	if level == LevelDebug {
		log.Printf("[DEBUG] "+format, args...)
	}
}
