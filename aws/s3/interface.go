//go:generate mockgen -package mocks -destination mocks/interface.go -source=interface.go
package s3

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

// ACLAuthenticatedRead is the canned ACL applied to staged exports.
const ACLAuthenticatedRead = "authenticated-read"

type BasicClient interface {
	Lister
	Getter
	Uploader
	Deleter
	Locator
}

type Client interface {
	BasicClient
	Overwriter
}

type Lister interface {
	List(ctx context.Context, key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

// Uploader streams r to key without knowing its length up front.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, acl string) (err error)
}

type Deleter interface {
	// Delete succeeds if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}

type Locator interface {
	// URL returns the s3:// address of key for use in COPY statements.
	URL(key string) string
}

type Overwriter interface {
	// Overwrite deletes key and then uploads r to it.
	Overwrite(ctx context.Context, key string, r io.Reader, acl string) error
}
