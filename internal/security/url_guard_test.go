package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewUpstreamClient_Timeout(t *testing.T) {
	client := NewURLGuard().NewUpstreamClient(5 * time.Second)
	if client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected a dedicated transport")
	}
}

// TestNewUpstreamClient_BlocksLoopback はhttptestサーバー (127.0.0.1) への接続が拒否されることを検証する。
func TestNewUpstreamClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewURLGuard().NewUpstreamClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback request, got nil")
	}
}

func TestValidateLink(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://en.wikipedia.org/wiki/Draft:Example", false},
		{"http://example.org/disclosure", false},
		{"https://[2001:db8::1]/page", false},
		{"", true},
		{"not-a-url", true},
		{"ftp://example.com/file", true},
		{"javascript:alert(1)", true},
		{"https:///no-host", true},
		{"http://localhost/", true},
		{"http://LOCALHOST:8080/", true},
		{"http://127.0.0.1/", true},
		{"http://10.1.2.3/", true},
		{"http://172.20.0.1/", true},
		{"http://192.168.1.100/", true},
		{"http://169.254.169.254/latest/meta-data/", true},
		{"http://0.0.0.0/", true},
		{"http://[::1]/", true},
		{"http://[fe80::1]/", true},
		{"http://[::ffff:127.0.0.1]/", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := guard.ValidateLink(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLink(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
