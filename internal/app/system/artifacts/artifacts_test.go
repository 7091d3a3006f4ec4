package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"invoices/ALO-20261014-0001.pdf", "invoices/ALO-20261014-0001.pdf", false},
		{"invoices//a.pdf", "invoices/a.pdf", false},
		{`invoices\a.png`, "invoices/a.png", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"../secret", "", true},
		{"invoices/../../x", "", true},
	}
	for _, tt := range tests {
		got, err := cleanKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("cleanKey(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("cleanKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocal_PutOpenDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "invoices/a.pdf", strings.NewReader("%PDF-1.3"), &PutOptions{ContentType: "application/pdf"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := ReadAll(ctx, store, "invoices/a.pdf")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "%PDF-1.3" {
		t.Errorf("content: got %q", got)
	}

	if err := store.Delete(ctx, "invoices/a.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Open(ctx, "invoices/a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "invoices/a.pdf"); err != nil {
		t.Errorf("deleting a missing artifact should succeed, got %v", err)
	}
	if err := store.Put(ctx, "../escape", strings.NewReader("x"), nil); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = b
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_PrefixesKeysAndMapsMissing(t *testing.T) {
	fake := newFakeS3()
	store := newS3WithClient(fake, S3Config{Bucket: "b", Region: "eu-west-3", Prefix: "/aloria/"})
	ctx := context.Background()

	if err := store.Put(ctx, "invoices/x.png", strings.NewReader("png"), &PutOptions{ContentType: "image/png"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := fake.objects["aloria/invoices/x.png"]; !ok {
		t.Fatalf("expected prefixed key, have %v", fake.objects)
	}
	if fake.types["aloria/invoices/x.png"] != "image/png" {
		t.Errorf("content type not forwarded")
	}

	got, err := ReadAll(ctx, store, "invoices/x.png")
	if err != nil || string(got) != "png" {
		t.Errorf("ReadAll: got %q, %v", got, err)
	}

	if _, err := store.Open(ctx, "invoices/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewS3_RequiresBucketAndRegion(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{Bucket: "b"}); err == nil {
		t.Error("expected error without region")
	}
}
