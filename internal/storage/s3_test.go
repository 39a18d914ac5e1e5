package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestS3Config_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want bool
	}{
		{"both set", S3Config{Bucket: "b", Region: "us-east-1"}, true},
		{"missing region", S3Config{Bucket: "b"}, false},
		{"missing bucket", S3Config{Region: "us-east-1"}, false},
		{"neither", S3Config{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewS3Mirror(t *testing.T) {
	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	mirror, err := NewS3Mirror(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewS3Mirror() error = %v", err)
	}
	if !mirror.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if mirror.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", mirror.bucket, cfg.Bucket)
	}
	if mirror.region != cfg.Region {
		t.Errorf("region = %v, want %v", mirror.region, cfg.Region)
	}
}

func TestS3Mirror_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/jobs/job-1/out.zip") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "zip bytes" {
			t.Errorf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := S3Config{
		Bucket:   "test-bucket",
		Region:   "us-east-1",
		Endpoint: server.URL,
	}
	mirror, err := NewS3Mirror(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewS3Mirror() error = %v", err)
	}

	url, err := mirror.Upload(context.Background(), "jobs/job-1/out.zip", bytes.NewReader([]byte("zip bytes")))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	want := "https://test-bucket.s3.us-east-1.amazonaws.com/jobs/job-1/out.zip"
	if url != want {
		t.Errorf("url = %v, want %v", url, want)
	}
}
