// Package shard はリクエストボディに基づく決定論的なシャードルーティングを提供する。
//
// 同一のボディと同一のリージョンに対しては、プロセスをまたいでも再起動を
// またいでも常に同じ実行先が選択される。ハッシュには固定シードの
// FNV-1a（64ビット）を使用しており、プロセスごとにシードが変わる
// ハッシュ関数には依存しない。
package shard

import (
	"fmt"
	"hash/fnv"

	"github.com/nao1215/edgerelay/pkg/region"
)

// Count はリージョンあたりのシャード数。
const Count = 10

// Descriptor はルーティングで選択された実行先（リージョン固定アクター）を表す。
// リクエストごとに計算され、永続化はされない。
type Descriptor struct {
	// Region は対象リージョン。
	Region region.Code
	// Namespace はアクターの名前空間ID。
	Namespace string
	// Shard は選択されたシャード番号（0〜Count-1）。
	Shard int
	// ActorID はアクターの識別子（<リージョン>-processor-<シャード>）。
	ActorID string
	// LocationHint は実行場所を固定するためのヒント文字列。
	LocationHint string
	// IsEU はEU管轄区域への固定が必要かどうか。
	IsEU bool
}

// Route はリージョンとリクエストボディから実行先を決定する。
// シャード番号は stableHash(body) mod Count で求める。
func Route(code region.Code, body []byte) Descriptor {
	cfg := code.Config()
	idx := int(stableHash(body) % Count)

	return Descriptor{
		Region:       code,
		Namespace:    cfg.Namespace,
		Shard:        idx,
		ActorID:      fmt.Sprintf("%s-processor-%d", code, idx),
		LocationHint: cfg.LocationHint,
		IsEU:         cfg.IsEU,
	}
}

// stableHash はボディバイト列の固定シードFNV-1a（64ビット）ハッシュを返す。
func stableHash(body []byte) uint64 {
	h := fnv.New64a()
	h.Write(body)
	return h.Sum64()
}
