package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadReturnsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" || header.Filename != "capture.jpg" {
			t.Errorf("unexpected upload: %q %q", data, header.Filename)
		}
		w.Write([]byte(`{"url":"https://storage.example/capture.jpg"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	url, err := client.Upload(context.Background(), "capture.jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://storage.example/capture.jpg" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Upload(context.Background(), "x.jpg", []byte("x")); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestUploadMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Upload(context.Background(), "x.jpg", []byte("x")); err == nil {
		t.Fatalf("expected error on empty url")
	}
}

func TestUploadUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/upload")
	if _, err := client.Upload(context.Background(), "x.jpg", []byte("x")); err == nil {
		t.Fatalf("expected transport error")
	}
}
