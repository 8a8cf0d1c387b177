package domain

import "errors"

var (
	// ErrUnauthorized はベアラートークンがどの鍵とも一致しない場合のエラー。
	ErrUnauthorized = errors.New("invalid api key")

	// ErrMasterKeyNotConfigured はマスターAPIキーが未設定の場合のエラー。
	// 呼び出し側ではなく運用者の設定ミスであるため、認証失敗とは区別する。
	ErrMasterKeyNotConfigured = errors.New("master api key not configured")

	// ErrServerKeyNotConfigured はサーバー公開鍵が未設定の場合のエラー。
	ErrServerKeyNotConfigured = errors.New("server public key not configured")

	// ErrCredentialAlreadyExists は指定されたクライアントに既に資格情報が存在する場合のエラー。
	ErrCredentialAlreadyExists = errors.New("credential already exists")

	// ErrCredentialNotFound は指定されたクライアントの資格情報が存在しない場合のエラー。
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrKeyGeneration はWireGuard鍵ペアの生成に失敗した場合のエラー。
	// 生成失敗時にプレースホルダ鍵を保存してはならない。
	ErrKeyGeneration = errors.New("keypair generation failed")

	// ErrStoreUnavailable はパラメータストアへのアクセスが失敗した場合のエラー。
	ErrStoreUnavailable = errors.New("parameter store unavailable")

	// ErrInvalidClientID はクライアントIDの形式が不正な場合のエラー。
	ErrInvalidClientID = errors.New("invalid client ID")
)
