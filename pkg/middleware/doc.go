// Package middleware はエッジルーターとプロセッサで共有するGinミドルウェアを提供する。
//
// 公開境界のベアラートークン認証、エッジ・プロセッサ間の内部トークン検証、
// パニック回復、CORS設定を含む。
package middleware
