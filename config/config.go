// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション設定を表す。
// 環境変数は起動時に一度だけ読み込み、以降は本構造体経由で参照する。
type Config struct {
	Port string

	// パラメータストア設定
	ParamStore     string // "ssm" または "local"
	SSMPrefix      string
	AWSRegion      string
	LocalStorePath string

	// WireGuardエンドポイント設定
	DNSName          string
	WGListenPort     string
	PublicIPOverride string
	ECSMetadataURI   string
	EndpointCacheTTL time.Duration

	LogLevel string

	// OpenTelemetry設定
	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	OtelSamplingRate float64
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		ParamStore:       getEnv("PARAM_STORE", "ssm"),
		SSMPrefix:        getEnv("SSM_PREFIX", "/ephem-vpn"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		LocalStorePath:   getEnv("LOCAL_STORE_PATH", "vpn-params.db"),
		DNSName:          os.Getenv("DNS_NAME"),
		WGListenPort:     getEnv("WG_LISTEN_PORT", "51820"),
		PublicIPOverride: os.Getenv("VPN_PUBLIC_IP"),
		ECSMetadataURI:   os.Getenv("ECS_CONTAINER_METADATA_URI_V4"),
		EndpointCacheTTL: getDuration("ENDPOINT_CACHE_TTL", 5*time.Minute),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		OtelEnabled:      getBool("OTEL_ENABLED", false),
		OtelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelServiceName:  getEnv("OTEL_SERVICE_NAME", "vpn-credential-service"),
		OtelSamplingRate: getFloat("OTEL_SAMPLING_RATE", 0.1),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

func getFloat(key string, defaultVal float64) float64 {
	val, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return val
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}
