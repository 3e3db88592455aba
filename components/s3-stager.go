package components

import (
	"context"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/aws/s3"
	"github.com/relloyd/pgshift/file"
	"github.com/relloyd/pgshift/logger"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

type S3StagerConfig struct {
	Log    logger.Logger
	Name   string
	Client s3.Client
	ACL    string
}

// S3Stager writes exports to <prefix>/export/<target table>.psv.gz in the bucket.
type S3Stager struct {
	cfg S3StagerConfig
}

func NewS3Stager(cfg *S3StagerConfig) (*S3Stager, error) {
	if cfg.Client == nil {
		return nil, errors.New("S3 stager requires a client")
	}
	s := &S3Stager{cfg: *cfg}
	if s.cfg.Name == "" {
		s.cfg.Name = "S3Stager"
	}
	if s.cfg.ACL == "" {
		s.cfg.ACL = Defaults.ACL
	}
	return s, nil
}

// Stage overwrites the staged object for t with the contents of stream.
// If the upload fails the stream is aborted so the producer stops.
func (s *S3Stager) Stage(ctx context.Context, t *tabledefinition.Table, stream *file.GzipStream) (address string, err error) {
	key := s3.ExportKey(t.ExportFileName())
	address = s.cfg.Client.URL(key)
	log := s.cfg.Log.WithField("table", t.Name)
	log.Info(s.cfg.Name, " uploading ", address)
	if err = s.cfg.Client.Overwrite(ctx, key, stream, s.cfg.ACL); err != nil {
		stream.Abort(err)
		return address, err
	}
	log.Debug(s.cfg.Name, " upload complete ", address)
	return address, nil
}
