package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"qbfrt/internal/config"
)

// fakeS3 is an in-memory bucket "backups".
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func (f *fakeS3) object(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	return body, ok
}

func (f *fakeS3) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleted)
}

// storedSize is the object length, or the decoded length of an aws-chunked
// upload.
func storedSize(r *http.Request, body []byte) string {
	if n := r.Header.Get("X-Amz-Decoded-Content-Length"); n != "" {
		return n
	}
	return fmt.Sprint(len(body))
}

// newFakeS3 serves just enough of the S3 REST API, path style, for
// PutObject, GetObject, HeadObject, DeleteObject, ListObjectsV2 and
// HeadBucket against fake.
func newFakeS3(t *testing.T, fake *fakeS3) *S3Vault {
	t.Helper()
	if fake.objects == nil {
		fake.objects = make(map[string]string)
	}
	sizes := make(map[string]string)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		objects := fake.objects

		key := strings.TrimPrefix(r.URL.Path, "/backups/")
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/backups":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/backups" && r.URL.Query().Get("list-type") == "2":
			w.Header().Set("Content-Type", "application/xml")
			var contents bytes.Buffer
			for key, body := range objects {
				fmt.Fprintf(&contents,
					"<Contents><Key>%s</Key><LastModified>2025-03-01T08:00:00.000Z</LastModified><Size>%d</Size></Contents>",
					key, len(body))
			}
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>backups</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>%s</ListBucketResult>`,
				r.URL.Query().Get("prefix"), len(objects), contents.String())
		case r.Method == http.MethodPut:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			objects[key] = string(body)
			sizes[key] = storedSize(r, body)
			w.Header().Set("ETag", `"fake"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead:
			body, ok := objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			size, ok := sizes[key]
			if !ok {
				size = fmt.Sprint(len(body))
			}
			w.Header().Set("Content-Length", size)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			delete(objects, key)
			fake.deleted = append(fake.deleted, key)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet:
			body, ok := objects[key]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
				return
			}
			w.Header().Set("Content-Length", fmt.Sprint(len(body)))
			fmt.Fprint(w, body)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
	return NewS3VaultFromClient("offsite", "backups", "qbfrt", client)
}

func TestS3Vault_PrefixIsDirectory(t *testing.T) {
	v := NewS3VaultFromClient("offsite", "backups", "qbfrt", s3.New(s3.Options{Region: "us-east-1"}))
	if got := v.key("run-1.db"); got != "qbfrt/run-1.db" {
		t.Errorf("key() = %q, want %q", got, "qbfrt/run-1.db")
	}

	bare := NewS3VaultFromClient("offsite", "backups", "", s3.New(s3.Options{Region: "us-east-1"}))
	if got := bare.key("run-1.db"); got != "run-1.db" {
		t.Errorf("key() without prefix = %q", got)
	}
}

func TestS3Vault_GetBackup(t *testing.T) {
	v := newFakeS3(t, &fakeS3{objects: map[string]string{"qbfrt/run-1.db": "snapshot bytes"}})

	var buf bytes.Buffer
	if err := v.GetBackup(context.Background(), "run-1.db", &buf); err != nil {
		t.Fatalf("GetBackup() error = %v", err)
	}
	if buf.String() != "snapshot bytes" {
		t.Errorf("GetBackup() = %q", buf.String())
	}

	err := v.GetBackup(context.Background(), "missing.db", &buf)
	if !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("GetBackup(missing) error = %v, want ErrBackupNotFound", err)
	}
}

func TestS3Vault_PutBackup(t *testing.T) {
	fake := &fakeS3{}
	v := newFakeS3(t, fake)
	data := []byte("snapshot bytes")

	if err := v.PutBackup(context.Background(), "run-1.db", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutBackup() error = %v", err)
	}
	if _, ok := fake.object("qbfrt/run-1.db"); !ok {
		t.Error("uploaded backup not stored under the prefix")
	}
	if deleted := fake.deletedKeys(); len(deleted) != 0 {
		t.Errorf("deleted %v after a matching upload", deleted)
	}
}

func TestS3Vault_PutBackup_SizeMismatchRemovesObject(t *testing.T) {
	fake := &fakeS3{}
	v := newFakeS3(t, fake)
	data := []byte("snapshot bytes")

	err := v.PutBackup(context.Background(), "run-1.db", bytes.NewReader(data), int64(len(data))+6)
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Fatalf("PutBackup() error = %v, want size mismatch", err)
	}
	if _, ok := fake.object("qbfrt/run-1.db"); ok {
		t.Error("short backup left in the bucket")
	}
	if deleted := fake.deletedKeys(); !slices.Equal(deleted, []string{"qbfrt/run-1.db"}) {
		t.Errorf("deleted = %v, want [qbfrt/run-1.db]", deleted)
	}
}

func TestS3Vault_ListBackups(t *testing.T) {
	v := newFakeS3(t, &fakeS3{objects: map[string]string{
		"qbfrt/run-2.db.age": "bbbb",
		"qbfrt/run-1.db":     "a",
		"qbfrt/nested/x.db":  "ignored",
	}})

	objs, err := v.ListBackups(context.Background())
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("ListBackups() = %v, want 2 objects", objs)
	}
	if objs[0].Name != "run-1.db" || objs[0].Size != 1 {
		t.Errorf("objs[0] = %+v", objs[0])
	}
	if objs[1].Name != "run-2.db.age" || objs[1].Size != 4 {
		t.Errorf("objs[1] = %+v", objs[1])
	}
}

func TestS3Vault_ValidateSetup(t *testing.T) {
	v := newFakeS3(t, &fakeS3{})
	if err := v.ValidateSetup(context.Background()); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestNewS3Vault_RequiresBucket(t *testing.T) {
	_, err := NewS3Vault(context.Background(), config.VaultConfig{Type: "s3", Name: "offsite"})
	if err == nil {
		t.Error("NewS3Vault() expected error without bucket")
	}
}
