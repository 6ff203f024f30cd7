package sender

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/machines"
	"github.com/Guliveer/pcstatus/internal/models"
	"github.com/Guliveer/pcstatus/internal/store"
)

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		CPUPercent:    42,
		MemoryPercent: 55,
		DiskUsage:     models.DiskUsage{"/": 80},
		TargetStatus:  models.TargetStatus{"svcA": true},
		ObservedAt:    time.Now().UTC(),
	}
}

func TestHTTPSender_PublishSuccess(t *testing.T) {
	var gotPath, gotToken, gotType string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.Header.Get(AgentTokenHeader)
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	s := NewHTTP(srv.URL+"/", "secret", "test", zap.NewNop())
	if err := s.Publish(context.Background(), "host 1", testSnapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if gotPath != "/machines/host%201" {
		t.Errorf("path = %q, want /machines/host%%201", gotPath)
	}
	if gotToken != "secret" {
		t.Errorf("token header = %q, want secret", gotToken)
	}
	if gotType != "application/json" {
		t.Errorf("content type = %q", gotType)
	}
	for _, key := range []string{"cpu_percent", "memory_percent", "disk_partitions", "targets_status"} {
		if _, ok := body[key]; !ok {
			t.Errorf("body missing %q: %v", key, body)
		}
	}
}

func TestHTTPSender_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL, "wrong", "test", zap.NewNop()).Publish(context.Background(), "h", testSnapshot())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Publish() error = %v, want ErrUnauthorized", err)
	}
}

func TestHTTPSender_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"agent token is not configured"}`))
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL, "t", "test", zap.NewNop()).Publish(context.Background(), "h", testSnapshot())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Publish() error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if se.Message != "agent token is not configured" {
		t.Errorf("Message = %q", se.Message)
	}
}

func TestHTTPSender_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewHTTP(url, "t", "test", zap.NewNop()).Publish(context.Background(), "h", testSnapshot())
	if err == nil {
		t.Fatal("Publish() to closed server should fail")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("transport failure must not look like an auth failure")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Error("transport failure must not be a StatusError")
	}
}

func TestDirectSender_Publish(t *testing.T) {
	st, err := store.OpenBolt(filepath.Join(t.TempDir(), "direct.db"), "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	svc := machines.NewService(st, nil, zap.NewNop())
	if err := NewDirect(svc).Publish(context.Background(), "pc-1", testSnapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	rec, err := svc.Get(context.Background(), "pc-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.CPUPercent == nil || *rec.CPUPercent != 42 {
		t.Errorf("CPUPercent = %v, want 42", rec.CPUPercent)
	}
	if !rec.TargetStatus["svcA"] {
		t.Errorf("TargetStatus = %v", rec.TargetStatus)
	}
	if rec.LastSeen == nil {
		t.Error("LastSeen not stamped")
	}
}
