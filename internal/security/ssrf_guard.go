package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService は外部API呼び出し用のHTTPクライアントを生成する。
// メール送信APIなど、設定値で指定されたエンドポイントへの送信に使用する。
type SSRFGuardService interface {
	// NewAPIClient はendpointのホストのみに接続できるHTTPクライアントを生成する。
	NewAPIClient(endpoint string, timeout time.Duration) (*http.Client, error)
}

// ErrUnsafeEndpoint はエンドポイントが送信先として許可されないことを示す。
var ErrUnsafeEndpoint = errors.New("unsafe API endpoint")

// blockedPrefixes は送信先として許可しないアドレス範囲。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),      // カレントネットワーク
	netip.MustParsePrefix("10.0.0.0/8"),     // RFC 1918
	netip.MustParsePrefix("100.64.0.0/10"),  // CGNAT
	netip.MustParsePrefix("127.0.0.0/8"),    // ループバック
	netip.MustParsePrefix("169.254.0.0/16"), // リンクローカル（クラウドメタデータを含む）
	netip.MustParsePrefix("172.16.0.0/12"),  // RFC 1918
	netip.MustParsePrefix("192.168.0.0/16"), // RFC 1918
	netip.MustParsePrefix("::1/128"),        // IPv6ループバック
	netip.MustParsePrefix("fc00::/7"),       // IPv6ユニークローカル
	netip.MustParsePrefix("fe80::/10"),      // IPv6リンクローカル
}

// blockedHostnames はブロック対象のホスト名。サブドメインも対象。
var blockedHostnames = []string{
	"localhost",
	"metadata.google.internal",
}

type ssrfGuard struct{}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{}
}

// NewAPIClient はendpointのホスト・httpsスキーム・443番ポートのみに接続できるクライアントを生成する。
// safeurlはDNS解決後のIPアドレスもダイヤル時に検証するため、
// DNS再バインディングでプライベートアドレスへ誘導されることもない。
func (g *ssrfGuard) NewAPIClient(endpoint string, timeout time.Duration) (*http.Client, error) {
	parsed, err := ValidateEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		SetAllowedHosts(parsed.Hostname()).
		Build()

	return safeurl.Client(config).Client, nil
}

// ValidateEndpoint はAPIエンドポイントURLを静的に検証する。
// https・443番ポートで、ホストが内部アドレスや既知の内部ホスト名でないことを求める。
func ValidateEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrUnsafeEndpoint)
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeEndpoint, err)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return nil, fmt.Errorf("%w: scheme must be https: %s", ErrUnsafeEndpoint, endpoint)
	}
	if port := parsed.Port(); port != "" && port != "443" {
		return nil, fmt.Errorf("%w: port must be 443: %s", ErrUnsafeEndpoint, endpoint)
	}

	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: empty host: %s", ErrUnsafeEndpoint, endpoint)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return nil, fmt.Errorf("%w: blocked address %s", ErrUnsafeEndpoint, addr)
		}
		return parsed, nil
	}
	if isBlockedHostname(host) {
		return nil, fmt.Errorf("%w: blocked host %s", ErrUnsafeEndpoint, host)
	}
	return parsed, nil
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isBlockedHostname(host string) bool {
	lower := strings.TrimSuffix(strings.ToLower(host), ".")
	for _, blocked := range blockedHostnames {
		if lower == blocked || strings.HasSuffix(lower, "."+blocked) {
			return true
		}
	}
	return false
}

var _ SSRFGuardService = (*ssrfGuard)(nil)
