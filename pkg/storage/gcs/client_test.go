package gcs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	return &Client{
		defaultBucket: "bucket",
		apiBase:       "https://storage.googleapis.com/storage/v1",
		uploadBase:    "https://storage.googleapis.com/upload/storage/v1",
		publicBase:    "https://storage.googleapis.com",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "token", time.Now().Add(time.Hour), nil
		}},
		httpClient: &http.Client{Transport: rt},
	}
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	var gotBody string
	client := newTestClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
		}
		if req.Header.Get("Content-Type") != "image/png" {
			t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
		}
		if !strings.Contains(req.URL.RawQuery, "uploadType=media") {
			t.Fatalf("expected media upload, got query %s", req.URL.RawQuery)
		}
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"name":"vehicles/VIN1.png"}`)),
			Header:     http.Header{},
		}
	})

	url, err := client.Upload(context.Background(), "vehicles/VIN1.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://storage.googleapis.com/bucket/vehicles/VIN1.png" {
		t.Fatalf("unexpected public url %s", url)
	}
	if gotBody != "png-bytes" {
		t.Fatalf("unexpected request body %q", gotBody)
	}
}

func TestUploadFailureSurfacesStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Status:     "403 Forbidden",
			Body:       io.NopCloser(strings.NewReader(`{"error":"denied"}`)),
			Header:     http.Header{},
		}
	})

	if _, err := client.Upload(context.Background(), "vehicles/VIN1.png", "image/png", nil); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestUploadRequiresKey(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		t.Fatal("no request expected")
		return nil
	})

	if _, err := client.Upload(context.Background(), "", "image/png", nil); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestDeleteSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", req.Method)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
		}
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
		}
	})

	if err := client.Delete(context.Background(), "vehicles/VIN1.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteNotFoundIsNotAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
		}
	})

	if err := client.Delete(context.Background(), "vehicles/VIN1.png"); err != nil {
		t.Fatalf("Delete of missing object should succeed: %v", err)
	}
}
