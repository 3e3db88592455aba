package file

import (
	"errors"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/relloyd/pgshift/logger"
)

var testLog = logger.NewLogger("pgshift-test", "error", false)

func gunzip(t *testing.T, r io.Reader) string {
	zr, err := gzip.NewReader(r)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGzipStreamRoundTrip(t *testing.T) {
	payload := "1|\"a|b\"\n2|\n"
	var extra strings.Builder
	s, err := NewGzipStream(testLog, gzip.DefaultCompression, func(w io.Writer) (int64, error) {
		_, err := io.WriteString(w, payload)
		return 2, err
	}, &extra)
	if err != nil {
		t.Fatal(err)
	}
	if got := gunzip(t, s); got != payload {
		t.Fatalf("expected %q; got %q", payload, got)
	}
	res, err := s.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 2 || res.BytesIn != int64(len(payload)) || res.BytesOut == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if extra.String() != payload {
		t.Fatalf("expected extra writer to see the uncompressed payload; got %q", extra.String())
	}
}

func TestGzipStreamProducerErrorReachesReader(t *testing.T) {
	srcErr := errors.New("relation does not exist")
	s, err := NewGzipStream(testLog, gzip.BestSpeed, func(w io.Writer) (int64, error) {
		_, _ = io.WriteString(w, "1|partial")
		return 0, srcErr
	})
	if err != nil {
		t.Fatal(err)
	}
	_, readErr := ioutil.ReadAll(s)
	if !errors.Is(readErr, srcErr) {
		t.Fatalf("expected reader to see the producer error; got %v", readErr)
	}
	if _, err := s.Wait(); !errors.Is(err, srcErr) {
		t.Fatalf("expected Wait to return the producer error; got %v", err)
	}
	if s.Aborted() {
		t.Fatal("expected stream not to be aborted")
	}
}

func TestGzipStreamAbortUnblocksProducer(t *testing.T) {
	s, err := NewGzipStream(testLog, gzip.NoCompression, func(w io.Writer) (int64, error) {
		buf := make([]byte, 64*1024)
		for { // write until the consumer goes away...
			if _, err := w.Write(buf); err != nil {
				return 0, err
			}
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	p := make([]byte, 10)
	if _, err := io.ReadFull(s, p); err != nil {
		t.Fatal(err)
	}
	s.Abort(errors.New("upload failed"))
	s.Abort(errors.New("again"))
	if _, err := s.Wait(); !errors.Is(err, ErrStreamAborted) {
		t.Fatalf("expected ErrStreamAborted; got %v", err)
	}
	if !s.Aborted() {
		t.Fatal("expected stream to be aborted")
	}
}
