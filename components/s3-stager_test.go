package components

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relloyd/pgshift/aws/s3"
	"github.com/relloyd/pgshift/aws/s3/mocks"
	"github.com/relloyd/pgshift/file"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

func newTestStream(t *testing.T, payload string) *file.GzipStream {
	s, err := file.NewGzipStream(testLog, Defaults.CompressionLevel, func(w io.Writer) (int64, error) {
		_, err := io.WriteString(w, payload)
		return 1, err
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestS3StagerOverwritesTheExportKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().URL("export/films.psv.gz").Return("s3://bucket/export/films.psv.gz")
	client.EXPECT().
		Overwrite(gomock.Any(), "export/films.psv.gz", gomock.Any(), s3.ACLAuthenticatedRead).
		DoAndReturn(func(ctx context.Context, key string, r io.Reader, acl string) error {
			_, err := ioutil.ReadAll(r)
			return err
		})
	stager, err := NewS3Stager(&S3StagerConfig{Log: testLog, Client: client})
	if err != nil {
		t.Fatal(err)
	}
	stream := newTestStream(t, "1|a\n")
	addr, err := stager.Stage(context.Background(), newTestTable(t, "films_view", tabledefinition.KeyConfig{}), stream)
	if err != nil {
		t.Fatal(err)
	}
	if addr != "s3://bucket/export/films.psv.gz" {
		t.Fatalf("unexpected address %v", addr)
	}
	if _, err := stream.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestS3StagerAbortsStreamOnUploadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().URL(gomock.Any()).Return("s3://bucket/export/films.psv.gz")
	client.EXPECT().Overwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("no such bucket"))
	stager, err := NewS3Stager(&S3StagerConfig{Log: testLog, Client: client})
	if err != nil {
		t.Fatal(err)
	}
	stream := newTestStream(t, "1|a\n")
	if _, err := stager.Stage(context.Background(), newTestTable(t, "films", tabledefinition.KeyConfig{}), stream); err == nil {
		t.Fatal("expected staging error")
	}
	if !stream.Aborted() {
		t.Fatal("expected stream to be aborted")
	}
	if _, err := stream.Wait(); !errors.Is(err, file.ErrStreamAborted) {
		t.Fatalf("expected producer to see the abort; got %v", err)
	}
}
