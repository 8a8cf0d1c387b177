package infra

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"vpn-credential-service/config"
)

const ec2MetadataURL = "http://169.254.169.254/latest/meta-data/public-ipv4"

var defaultIPServices = []string{
	"https://api.ipify.org?format=json",
	"https://httpbin.org/ip",
	"https://ipapi.co/json/",
	"https://api.myip.com",
}

// EndpointResolver はサーバーの外部到達可能なエンドポイント(host:port)を解決する。
// DNS名が設定されていればネットワークアクセスなしで即座に返す。
// それ以外は環境変数→外部IP検出サービス→EC2メタデータの順に試行し、
// すべて失敗した場合はホスト部を空にして返す（エラーにはしない）。
type EndpointResolver struct {
	dnsName        string
	port           string
	overrideIP     string
	ecsMetadataURI string

	ipServices  []string
	metadataURL string
	client      *http.Client

	cacheTTL time.Duration
	mu       sync.Mutex
	cachedIP string
	cachedAt time.Time
}

// NewEndpointResolver は設定からEndpointResolverを生成する。
func NewEndpointResolver(cfg *config.Config) *EndpointResolver {
	return &EndpointResolver{
		dnsName:        cfg.DNSName,
		port:           cfg.WGListenPort,
		overrideIP:     cfg.PublicIPOverride,
		ecsMetadataURI: cfg.ECSMetadataURI,
		ipServices:     defaultIPServices,
		metadataURL:    ec2MetadataURL,
		client:         &http.Client{},
		cacheTTL:       cfg.EndpointCacheTTL,
	}
}

// Resolve はエンドポイントをhost:port形式で返す。失敗しても空ホストで返す。
func (r *EndpointResolver) Resolve(ctx context.Context) string {
	if r.dnsName != "" {
		return r.dnsName + ":" + r.port
	}
	return r.publicIP(ctx) + ":" + r.port
}

// ipResponse は外部IP検出サービスのレスポンス形式。
// api.ipify.org / ipapi.co / api.myip.com は"ip"、httpbin.orgは"origin"を返す。
type ipResponse struct {
	IP     string `json:"ip"`
	Origin string `json:"origin"`
}

func (r *EndpointResolver) publicIP(ctx context.Context) string {
	if r.overrideIP != "" {
		return r.overrideIP
	}

	r.mu.Lock()
	if r.cachedIP != "" && time.Since(r.cachedAt) < r.cacheTTL {
		ip := r.cachedIP
		r.mu.Unlock()
		return ip
	}
	r.mu.Unlock()

	// ECSタスクメタデータ。awsvpcモードのpublic IPは追加のAWS API呼び出しが
	// 必要なため、ここでは確認のみ行い外部サービスへフォールバックする。
	if r.ecsMetadataURI != "" {
		r.probeECSMetadata(ctx)
	}

	for _, serviceURL := range r.ipServices {
		ip := r.queryIPService(ctx, serviceURL)
		if ip != "" {
			r.remember(ip)
			return ip
		}
	}

	if ip := r.queryEC2Metadata(ctx); ip != "" {
		r.remember(ip)
		return ip
	}

	slog.WarnContext(ctx, "public IP detection failed, endpoint will have empty host")
	return ""
}

func (r *EndpointResolver) remember(ip string) {
	r.mu.Lock()
	r.cachedIP = ip
	r.cachedAt = time.Now()
	r.mu.Unlock()
}

func (r *EndpointResolver) probeECSMetadata(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ecsMetadataURI+"/task", nil)
	if err != nil {
		return
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
}

func (r *EndpointResolver) queryIPService(ctx context.Context, serviceURL string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "ip service unreachable", "url", serviceURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var body ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}

	ip := body.IP
	if ip == "" && body.Origin != "" {
		// httpbin.orgのoriginはカンマ区切りで複数IPを含むことがある
		ip = strings.TrimSpace(strings.Split(body.Origin, ",")[0])
	}
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}

func (r *EndpointResolver) queryEC2Metadata(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.metadataURL, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return ""
	}
	ip := strings.TrimSpace(string(data))
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}
