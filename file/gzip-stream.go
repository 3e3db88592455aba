package file

import (
	"io"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/logger"
)

// ErrStreamAborted is returned to the producer when the consumer gives up on the stream.
var ErrStreamAborted = errors.New("stream aborted by consumer")

// ProducerFunc writes the uncompressed payload to w and returns the number of rows it wrote.
type ProducerFunc func(w io.Writer) (rows int64, err error)

// StreamResult is the outcome of a finished producer.
type StreamResult struct {
	Rows     int64
	BytesIn  int64 // uncompressed bytes written by the producer.
	BytesOut int64 // compressed bytes made available to the reader.
}

// GzipStream is an io.Reader over the gzip compressed output of a ProducerFunc.
// The producer runs in its own goroutine and blocks until the reader consumes its output,
// so at most one compressor window of data is held in memory.
type GzipStream struct {
	log      logger.Logger
	pr       *io.PipeReader
	done     chan struct{}
	result   StreamResult
	err      error
	aborted  int32
	bytesOut int64
}

// counter counts bytes on their way to w.
type counter struct {
	w io.Writer
	n *int64
}

func (c counter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	atomic.AddInt64(c.n, int64(n))
	return n, err
}

// NewGzipStream starts produce and returns a stream of its compressed output.
// Any extra writers (e.g. a stats.TransferWatcher) also receive the uncompressed bytes.
// The gzip stream is only finalised if produce succeeds. If it fails, the reader receives the producer's error
// instead of io.EOF so a consumer can never mistake a partial export for a complete one.
func NewGzipStream(log logger.Logger, level int, produce ProducerFunc, extra ...io.Writer) (*GzipStream, error) {
	pr, pw := io.Pipe()
	s := &GzipStream{log: log, pr: pr, done: make(chan struct{})}
	gz, err := gzip.NewWriterLevel(counter{w: pw, n: &s.bytesOut}, level)
	if err != nil {
		return nil, errors.Wrap(err, "error creating gzip writer")
	}
	var bytesIn int64
	w := io.MultiWriter(append([]io.Writer{counter{w: gz, n: &bytesIn}}, extra...)...)
	go func() {
		defer close(s.done)
		rows, err := produce(w)
		if err == nil {
			err = errors.Wrap(gz.Close(), "error finalising gzip stream")
		}
		s.result = StreamResult{Rows: rows, BytesIn: atomic.LoadInt64(&bytesIn), BytesOut: atomic.LoadInt64(&s.bytesOut)}
		s.err = err
		if err != nil {
			log.Debug("gzip stream producer failed: ", err)
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.Close()
	}()
	return s, nil
}

func (s *GzipStream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Abort stops the producer. Its pending and future writes fail with ErrStreamAborted.
func (s *GzipStream) Abort(cause error) {
	if atomic.CompareAndSwapInt32(&s.aborted, 0, 1) {
		s.log.Debug("aborting gzip stream: ", cause)
		_ = s.pr.CloseWithError(errors.Wrapf(ErrStreamAborted, "%v", cause))
	}
}

// Wait blocks until the producer returns. The error is nil only if the producer succeeded
// and the stream was finalised. Call Abort first if the reader stops early, or Wait may block forever.
func (s *GzipStream) Wait() (StreamResult, error) {
	<-s.done
	return s.result, s.err
}

// Aborted returns true if Abort was called.
func (s *GzipStream) Aborted() bool {
	return atomic.LoadInt32(&s.aborted) == 1
}
