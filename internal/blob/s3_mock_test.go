package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"
)

// newMockS3 returns an S3Store wired to an in-memory fake HTTP transport.
// Only the object operations the Store interface needs are implemented. The
// store is built through NewS3 so construction (static credentials, custom
// endpoint, path style) is part of what these tests cover.
func newMockS3(t *testing.T) (*S3Store, *mockS3Transport) {
	t.Helper()
	transport := &mockS3Transport{objects: make(map[string]mockS3Object)}
	store, err := NewS3(context.Background(), S3Config{
		Region:          "us-east-1",
		Bucket:          "roster-exports",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIAMOCK",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new s3 store: %v", err)
	}
	return store, transport
}

type mockS3Object struct {
	body        []byte
	contentType string
}

type mockS3Transport struct {
	objects  map[string]mockS3Object
	lastAuth string
}

func (m *mockS3Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.lastAuth = req.Header.Get("Authorization")
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		return m.listResponse(req.URL.Query().Get("prefix")), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := m.objects[key]
		if !ok {
			return mockResponse(http.StatusNotFound, nil, nil), nil
		}
		return mockResponse(http.StatusOK, nil, http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"mock-etag"`},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := decodeAWSChunked(body); ok {
			body = decoded
		}
		if _, exists := m.objects[key]; !exists {
			m.objects[key] = mockS3Object{body: body, contentType: req.Header.Get("Content-Type")}
		}
		return mockResponse(http.StatusOK, nil, http.Header{"Etag": {`"mock-etag"`}}), nil
	case http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return mockResponse(http.StatusNotFound, nil, nil), nil
		}
		return mockResponse(http.StatusOK, obj.body, http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"mock-etag"`},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return mockResponse(http.StatusNoContent, nil, nil), nil
	}
	return mockResponse(http.StatusNotImplemented, nil, nil), nil
}

func (m *mockS3Transport) listResponse(prefix string) *http.Response {
	var keys []string
	for k := range m.objects {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2026-01-01T00:00:00Z</LastModified></Contents>", k, len(m.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return mockResponse(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func mockResponse(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

// decodeAWSChunked unwraps a minimal single-chunk aws-chunked payload:
// <hex>\r\n<body>\r\n0\r\n...
func decodeAWSChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	var size int64
	if _, err := fmt.Sscanf(parts[0], "%x", &size); err != nil {
		return nil, false
	}
	if int64(len(parts[1])) != size || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func TestS3StorePutGetRoundTrip(t *testing.T) {
	store, _ := newMockS3(t)
	ctx := context.Background()

	if store.Driver() != DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	info, err := store.Put(ctx, "exports/run1/courses.csv", strings.NewReader("COURSE100;Algorithms"), PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("COURSE100;Algorithms")) {
		t.Fatalf("unexpected size %d", info.Size)
	}

	got, rc, err := store.Get(ctx, "exports/run1/courses.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "COURSE100;Algorithms" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ETag != "mock-etag" {
		t.Fatalf("expected trimmed etag, got %q", got.ETag)
	}
}

func TestS3StorePutIsCreateOnly(t *testing.T) {
	store, _ := newMockS3(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "exports/state.json", strings.NewReader("{}"), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "exports/state.json", strings.NewReader("{}"), PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestS3StoreListAndDelete(t *testing.T) {
	store, _ := newMockS3(t)
	ctx := context.Background()

	for _, key := range []string{"exports/b.csv", "exports/a.csv", "other/c.csv"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/a.csv" || infos[1].Key != "exports/b.csv" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	if removed, err := store.Delete(ctx, "exports/a.csv"); err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, err := store.Head(ctx, "exports/a.csv"); err == nil {
		t.Fatalf("expected head to fail after delete")
	}
}

func TestS3StorePresignURL(t *testing.T) {
	store, _ := newMockS3(t)
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "exports/run1/courses.csv", SignedURLOptions{Expiry: time.Minute})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "exports/run1/courses.csv") {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := store.PresignURL(ctx, "exports/run1/courses.csv", SignedURLOptions{Method: "PUT"}); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestNewS3SignsWithStaticCredentials(t *testing.T) {
	store, transport := newMockS3(t)

	if _, err := store.Head(context.Background(), "exports/state.json"); err == nil {
		t.Fatalf("expected head miss on empty store")
	}
	if !strings.Contains(transport.lastAuth, "Credential=AKIAMOCK/") {
		t.Fatalf("request not signed with configured key: %q", transport.lastAuth)
	}
	if !strings.Contains(transport.lastAuth, "/us-east-1/s3/aws4_request") {
		t.Fatalf("unexpected signing scope: %q", transport.lastAuth)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Fatalf("expected bucket required error")
	}
}

func TestOpenS3FromEnvRequiresBucket(t *testing.T) {
	t.Setenv("ROSTERCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenS3FromEnv(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
