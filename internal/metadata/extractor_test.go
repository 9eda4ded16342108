package metadata //nolint:testpackage // testing unexported URL guard functions

import (
	"net"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestIsPrivateIP(t *testing.T) {
	t.Helper()

	tests := []struct {
		name     string
		ip       string
		expected bool
	}{
		{"nil IP", "", false},
		{"loopback IPv4", "127.0.0.1", true},
		{"loopback IPv6", "::1", true},
		{"private 10.x", "10.0.0.1", true},
		{"private 172.16.x", "172.16.0.1", true},
		{"private 192.168.x", "192.168.1.1", true},
		{"link-local IPv4", "169.254.1.1", true},
		{"link-local multicast", "ff02::1", true},
		{"unspecified IPv4", "0.0.0.0", true},
		{"unspecified IPv6", "::", true},
		{"public IPv4", "8.8.8.8", false},
		{"public IPv4 alt", "1.1.1.1", false},
		{"public IPv6", "2607:f8b0:4004:800::200e", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ip net.IP
			if tt.ip != "" {
				ip = net.ParseIP(tt.ip)
			}
			result := isPrivateIP(ip)
			if result != tt.expected {
				t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, result, tt.expected)
			}
		})
	}
}

func TestExtractName(t *testing.T) {
	t.Helper()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og site name wins",
			html: `<html><head><meta property='og:site_name' content='Example News'><title>Some Post</title></head></html>`,
			want: "Example News",
		},
		{
			name: "title fallback",
			html: `<html><head><title>  Example Blog  </title></head></html>`,
			want: "Example Blog",
		},
		{
			name: "hostname fallback",
			html: `<html><head></head><body>no metadata</body></html>`,
			want: "example.com",
		},
	}

	parsedURL, _ := url.Parse("https://example.com/feed")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("parse html: %v", err)
			}
			got := extractName(doc, parsedURL)
			if got != tt.want {
				t.Errorf("extractName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDescription(t *testing.T) {
	t.Helper()

	html := `<html><head>
		<meta property='og:description' content='From OG'>
		<meta name='description' content='From meta'>
	</head></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got := extractDescription(doc); got != "From OG" {
		t.Errorf("extractDescription() = %q, want %q", got, "From OG")
	}
}

func TestValidateFetchURL(t *testing.T) {
	t.Helper()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://example.com", false},
		{"valid http", "http://example.com", false},
		{"ftp rejected", "ftp://example.com", true},
		{"javascript rejected", "javascript:alert(1)", true},
		{"file rejected", "file:///etc/passwd", true},
		{"blocked localhost", "http://localhost/admin", true},
		{"blocked metadata GCP", "http://metadata.google.internal/", true},
		{"blocked AWS metadata", "http://169.254.169.254/latest/meta-data/", true},
		{"blocked localhost uppercase", "http://LOCALHOST/admin", true},
		{"blocked private IP", "http://10.0.0.8/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.url)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.url, err)
			}
			err = validateFetchURL(parsed)
			if tt.wantErr && err == nil {
				t.Errorf("validateFetchURL(%q) = nil, want error", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateFetchURL(%q) = %v, want nil", tt.url, err)
			}
		})
	}
}
