// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"context"
	"errors"
)

var (
	// ErrParameterNotFound は指定された名前のパラメータが存在しない場合のエラー。
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrParameterAlreadyExists は上書き禁止の書き込みで既存パラメータと衝突した場合のエラー。
	ErrParameterAlreadyExists = errors.New("parameter already exists")
)

// Parameter はパラメータストアの1エントリを表す。
// SecureがtrueのパラメータはSecureString相当として暗号化保存される。
type Parameter struct {
	Name   string
	Value  string
	Secure bool
}

// ParamStore は名前空間付きシークレットストアへのアクセスを提供する。
type ParamStore interface {
	// Get は指定された名前のパラメータ値を取得する。
	// decryptがtrueの場合、SecureStringは復号して返す。
	Get(ctx context.Context, name string, decrypt bool) (string, error)

	// Put はパラメータを書き込む。overwriteがfalseの場合、既存パラメータが
	// あればErrParameterAlreadyExistsを返す（条件付き書き込み）。
	Put(ctx context.Context, param Parameter, overwrite bool) error

	// Delete は指定された名前のパラメータを削除する。
	Delete(ctx context.Context, name string) error

	// ListNames は指定されたプレフィックス配下の全パラメータ名を返す。
	ListNames(ctx context.Context, prefix string) ([]string, error)
}
