// Package edge はエッジルーターサービスを提供する。
//
// 公開境界として任意パスのリクエストを受け付け、
// 認証（ベアラートークン完全一致）、分類（リージョンとプロトコル種別）、
// ルーティング（ボディのFNV-1aハッシュによるシャード決定）を経て、
// リージョン固定アクター（プロセッサ）へディスパッチする。
// パイプラインの各段は副作用を持たず、同一入力は常に同一の実行先に届く。
package edge
