package infra

import (
	"context"
	"errors"
	"testing"
)

// setupTestStore はテスト用のインメモリSQLiteストアを作成する。
func setupTestStore(t *testing.T) *LocalParamStore {
	t.Helper()

	store, err := NewLocalParamStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	return store
}

func TestLocalParamStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	param := Parameter{Name: "/vpn/users/alice/wg-private-key", Value: "secret", Secure: true}
	if err := store.Put(ctx, param, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, err := store.Get(ctx, param.Name, true)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "secret" {
		t.Errorf("want secret, got %q", value)
	}

	// 存在しないパラメータ
	_, err = store.Get(ctx, "/vpn/missing", true)
	if !errors.Is(err, ErrParameterNotFound) {
		t.Errorf("want ErrParameterNotFound, got %v", err)
	}
}

// TestLocalParamStore_ConditionalPut は上書き禁止の書き込みが既存パラメータと
// 衝突した場合にErrParameterAlreadyExistsを返すことを確認する。
func TestLocalParamStore_ConditionalPut(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	param := Parameter{Name: "/vpn/key", Value: "v1"}
	if err := store.Put(ctx, param, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	param.Value = "v2"
	err := store.Put(ctx, param, false)
	if !errors.Is(err, ErrParameterAlreadyExists) {
		t.Errorf("want ErrParameterAlreadyExists, got %v", err)
	}

	// 元の値が保持されていること
	value, err := store.Get(ctx, "/vpn/key", false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "v1" {
		t.Errorf("want v1, got %q", value)
	}

	// 上書き許可なら更新される
	if err := store.Put(ctx, param, true); err != nil {
		t.Fatalf("overwrite Put failed: %v", err)
	}
	value, _ = store.Get(ctx, "/vpn/key", false)
	if value != "v2" {
		t.Errorf("want v2 after overwrite, got %q", value)
	}
}

func TestLocalParamStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.Put(ctx, Parameter{Name: "/vpn/key", Value: "v"}, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "/vpn/key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err := store.Delete(ctx, "/vpn/key")
	if !errors.Is(err, ErrParameterNotFound) {
		t.Errorf("want ErrParameterNotFound, got %v", err)
	}
}

func TestLocalParamStore_ListNames(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	names := []string{
		"/vpn/users/alice/wg-private-key",
		"/vpn/users/alice/wg-public-key",
		"/vpn/users/bob/wg-private-key",
		"/vpn/master-api-key",
	}
	for _, name := range names {
		if err := store.Put(ctx, Parameter{Name: name, Value: "v"}, false); err != nil {
			t.Fatalf("Put(%s) failed: %v", name, err)
		}
	}

	got, err := store.ListNames(ctx, "/vpn/users/")
	if err != nil {
		t.Fatalf("ListNames failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 names, got %d: %v", len(got), got)
	}
	// 名前順でソートされていること
	want := []string{
		"/vpn/users/alice/wg-private-key",
		"/vpn/users/alice/wg-public-key",
		"/vpn/users/bob/wg-private-key",
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("names[%d]: want %s, got %s", i, name, got[i])
		}
	}
}
