// Package avatar stores profile images as blobs.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var ErrNotFound = errors.New("avatar not found")

type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// ObjectStore is the blob service behind avatar uploads.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) (Object, error)
	Delete(ctx context.Context, name string) error
}

// JetStreamStore keeps avatars in a NATS JetStream object store bucket.
type JetStreamStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	store  jetstream.ObjectStore
	bucket string
}

func NewJetStreamStore(url, bucket string) (*JetStreamStore, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &JetStreamStore{conn: conn, js: js, bucket: bucket}, nil
}

// Init opens the bucket, creating it on first run.
func (s *JetStreamStore) Init(ctx context.Context) error {
	store, err := s.js.ObjectStore(ctx, s.bucket)
	if err == nil {
		s.store = store
		return nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return fmt.Errorf("open avatar bucket: %w", err)
	}

	store, err = s.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      s.bucket,
		Description: "Profile avatars",
	})
	if err != nil {
		return fmt.Errorf("create avatar bucket: %w", err)
	}
	s.store = store
	return nil
}

// Put overwrites any object with the same name.
func (s *JetStreamStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	meta := jetstream.ObjectMeta{
		Name:    name,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}
	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Get(ctx context.Context, name string) (Object, error) {
	result, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("get avatar: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return Object{}, fmt.Errorf("read avatar: %w", err)
	}
	info, err := result.Info()
	if err != nil {
		return Object{}, fmt.Errorf("avatar info: %w", err)
	}

	contentType := "application/octet-stream"
	if ct := info.Headers.Get("Content-Type"); ct != "" {
		contentType = ct
	}
	return Object{Name: info.Name, ContentType: contentType, Data: data}, nil
}

func (s *JetStreamStore) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
