package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vpn-credential-service/config"
)

func testResolver(cfg *config.Config) *EndpointResolver {
	if cfg.WGListenPort == "" {
		cfg.WGListenPort = "51820"
	}
	if cfg.EndpointCacheTTL == 0 {
		cfg.EndpointCacheTTL = time.Minute
	}
	r := NewEndpointResolver(cfg)
	// テストから外部サービスに出ないようにする
	r.ipServices = nil
	r.metadataURL = "http://127.0.0.1:1/latest/meta-data/public-ipv4"
	return r
}

// TestEndpointResolver_DNSName はDNS名設定時にネットワークアクセスなしで
// 即座に返ることを確認する。
func TestEndpointResolver_DNSName(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	r := testResolver(&config.Config{DNSName: "vpn.example.com"})
	r.ipServices = []string{srv.URL}

	got := r.Resolve(context.Background())
	if got != "vpn.example.com:51820" {
		t.Errorf("want vpn.example.com:51820, got %q", got)
	}
	if hit {
		t.Error("DNS path must not query ip services")
	}
}

func TestEndpointResolver_EnvOverride(t *testing.T) {
	r := testResolver(&config.Config{PublicIPOverride: "203.0.113.9"})

	got := r.Resolve(context.Background())
	if got != "203.0.113.9:51820" {
		t.Errorf("want 203.0.113.9:51820, got %q", got)
	}
}

// TestEndpointResolver_ServiceFallback は検出サービスを順に試し、最初に
// 解釈可能なIPを返したサービスが採用されることを確認する。
func TestEndpointResolver_ServiceFallback(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip": "not-an-ip"}`))
	}))
	defer garbage.Close()

	// httpbin形式: originはカンマ区切りの場合がある
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"origin": "198.51.100.7, 10.0.0.1"}`))
	}))
	defer origin.Close()

	r := testResolver(&config.Config{})
	r.ipServices = []string{failing.URL, garbage.URL, origin.URL}

	got := r.Resolve(context.Background())
	if got != "198.51.100.7:51820" {
		t.Errorf("want 198.51.100.7:51820, got %q", got)
	}
}

func TestEndpointResolver_EC2MetadataFallback(t *testing.T) {
	metadata := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("192.0.2.44\n"))
	}))
	defer metadata.Close()

	r := testResolver(&config.Config{})
	r.metadataURL = metadata.URL

	got := r.Resolve(context.Background())
	if got != "192.0.2.44:51820" {
		t.Errorf("want 192.0.2.44:51820, got %q", got)
	}
}

// TestEndpointResolver_DegradesToEmptyHost は全手段が失敗しても
// エラーにならず空ホストで返ることを確認する。
func TestEndpointResolver_DegradesToEmptyHost(t *testing.T) {
	r := testResolver(&config.Config{})

	got := r.Resolve(context.Background())
	if got != ":51820" {
		t.Errorf("want :51820, got %q", got)
	}
}

// TestEndpointResolver_CachesDiscoveredIP は検出結果がTTL内で再利用され、
// 同じプロセスから繰り返し外部サービスを叩かないことを確認する。
func TestEndpointResolver_CachesDiscoveredIP(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"ip": "198.51.100.7"}`))
	}))
	defer srv.Close()

	r := testResolver(&config.Config{EndpointCacheTTL: time.Minute})
	r.ipServices = []string{srv.URL}

	for i := 0; i < 3; i++ {
		got := r.Resolve(context.Background())
		if got != "198.51.100.7:51820" {
			t.Fatalf("call %d: want 198.51.100.7:51820, got %q", i, got)
		}
	}
	if calls != 1 {
		t.Errorf("want 1 upstream call, got %d", calls)
	}
}
