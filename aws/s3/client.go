package s3

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

func NewClient(cfg Config) (Client, error) {
	basicClient, err := NewBasicClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientFromBasic(basicClient), nil
}

func NewClientFromBasic(basicClient BasicClient) Client {
	return &client{
		BasicClient: basicClient,
	}
}

type client struct {
	BasicClient
}

// Overwrite removes any previous object first so a failed upload never leaves stale data behind.
func (s *client) Overwrite(ctx context.Context, key string, r io.Reader, acl string) error {
	if err := s.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "error deleting %v", s.URL(key))
	}
	if err := s.Upload(ctx, key, r, acl); err != nil {
		return errors.Wrapf(err, "error uploading %v", s.URL(key))
	}
	return nil
}
