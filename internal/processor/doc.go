// Package processor はリージョン固定アクター（プロセッサ）サービスを提供する。
//
// エッジルーターから転送されたリクエストを受け取り、プロトコル種別に
// 応じた変換（SOAPエンベロープ構築または汎用HTTPリクエスト構築）、
// 上流サーバーへの1回きりの呼び出し、レスポンスの縮約を行う。
// 8リージョンすべてが同一のコードで動作し、担当リージョンは設定で決まる。
package processor
