package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d, err := NewDetector("203.0.113.0/24")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct client",
			remoteAddr: "198.51.100.4:5555",
			want:       "198.51.100.4",
		},
		{
			name:       "untrusted peer cannot spoof forwarded header",
			remoteAddr: "198.51.100.4:5555",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:       "198.51.100.4",
		},
		{
			name:       "private proxy forwards first hop",
			remoteAddr: "10.0.0.2:80",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.9"},
			want:       "1.2.3.4",
		},
		{
			name:       "configured proxy with X-Real-IP",
			remoteAddr: "203.0.113.10:443",
			headers:    map[string]string{"X-Real-IP": "5.6.7.8"},
			want:       "5.6.7.8",
		},
		{
			name:       "garbage forwarded header falls back to peer",
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := d.GetMetrics().InvalidIPAttempts; got != 1 {
		t.Errorf("InvalidIPAttempts = %d, want 1", got)
	}
}

func TestNewDetectorRejectsBadCIDR(t *testing.T) {
	if _, err := NewDetector("nonsense"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewDetector("192.0.2.1"); err != nil {
		t.Fatalf("bare address should be accepted: %v", err)
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d, _ := NewDetector()

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"normal listing", http.MethodGet, "/api/reports?limit=10", "Mozilla/5.0", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", true},
		{"scanner agent", http.MethodGet, "/api/reports", "sqlmap/1.7", true},
		{"sql in query", http.MethodGet, "/api/reports?limit=1%20union%20select", "", true},
		{"trace method", "TRACE", "/api/reports", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
		})
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 4 {
		t.Errorf("SuspiciousRequests = %d, want 4", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing headers: %v", rec.Header())
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS expected over TLS")
	}
}

func TestCORS(t *testing.T) {
	cors := NewCORS([]string{"http://localhost:3000", "https://salary-manage.netlify.app/"})
	called := false
	h := cors.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	t.Run("allowed preflight", func(t *testing.T) {
		called = false
		r := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
		r.Header.Set("Origin", "https://salary-manage.netlify.app")
		r.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		if rec.Code != http.StatusNoContent || called {
			t.Fatalf("status = %d, called = %v", rec.Code, called)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://salary-manage.netlify.app" {
			t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("rejected preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
		r.Header.Set("Origin", "https://evil.example")
		r.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("simple request from unknown origin", func(t *testing.T) {
		called = false
		r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		r.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if !called || rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("called = %v, headers = %v", called, rec.Header())
		}
	})
}
