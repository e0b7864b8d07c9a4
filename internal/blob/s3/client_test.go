package s3blob

import "testing"

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"minio:9000", false, "http://minio:9000"},
		{"e2.idrivee2.com", true, "https://e2.idrivee2.com"},
		{"https://r2.example.com", false, "https://r2.example.com"},
		{"127.0.0.1:9000", true, "https://127.0.0.1:9000"},
		{"http://localhost:9000", true, "http://localhost:9000"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.endpoint, tt.useSSL); got != tt.want {
			t.Fatalf("normaliseEndpoint(%q, %v) = %q, want %q", tt.endpoint, tt.useSSL, got, tt.want)
		}
	}
}

func TestNewRequiresBucketAndRegion(t *testing.T) {
	if _, err := New(t.Context(), ClientConfig{Region: "auto"}); err == nil {
		t.Fatal("expected error without bucket")
	}
	if _, err := New(t.Context(), ClientConfig{Bucket: "snapshots"}); err == nil {
		t.Fatal("expected error without region")
	}
}
