package tempfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Workdir is the scoped working directory a single sort owns: every run
// file produced during chunking lives under it, and Close removes the
// whole directory in one shot regardless of whether the sort finished,
// errored, or was cancelled midway.
type Workdir struct {
	path   string
	prefix string
	logger *zap.Logger
}

// NewWorkdir creates a uniquely named subdirectory of root (the OS default
// temp directory if root is empty) to hold one sort's run files. prefix is
// included in every run file name, useful for identifying leaked files
// belonging to a particular process.
func NewWorkdir(root, prefix string, logger *zap.Logger) (*Workdir, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create temp root %s: %w", root, err)
	}
	dir, err := os.MkdirTemp(root, "extsort-")
	if err != nil {
		return nil, fmt.Errorf("create working directory under %s: %w", root, err)
	}
	logger.Debug("created working directory", zap.String("path", dir))
	return &Workdir{path: dir, prefix: prefix, logger: logger}, nil
}

// Path returns the working directory's filesystem path.
func (w *Workdir) Path() string {
	return w.path
}

// NewRun creates a new, uniquely named run file under the working
// directory and returns a Writer ready to append framed payloads to it.
func (w *Workdir) NewRun(bufSize int) (*RunWriter, error) {
	if bufSize <= 0 {
		bufSize = fileBufferSize
	}
	name := filepath.Join(w.path, fmt.Sprintf("%s%s.run", w.prefix, uuid.NewString()))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create run file %s: %w", name, err)
	}
	return &RunWriter{
		file: f,
		w:    bufio.NewWriterSize(f, bufSize),
		path: name,
	}, nil
}

// Close removes the entire working directory and everything under it. Any
// failure is aggregated rather than aborting early, since the caller treats
// teardown as best effort and only logs the result.
func (w *Workdir) Close() error {
	var result error
	entries, err := os.ReadDir(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	} else {
		for _, entry := range entries {
			p := filepath.Join(w.path, entry.Name())
			if rmErr := os.Remove(p); rmErr != nil {
				result = multierror.Append(result, rmErr)
			}
		}
	}
	if rmErr := os.Remove(w.path); rmErr != nil && !os.IsNotExist(rmErr) {
		result = multierror.Append(result, rmErr)
	}
	if result != nil {
		w.logger.Warn("working directory cleanup incomplete", zap.String("path", w.path), zap.Error(result))
	}
	return result
}

// RunWriter appends length-framed payload records to a single run file.
// It is created by exactly one worker and never shared.
type RunWriter struct {
	file *os.File
	w    *bufio.Writer
	path string
}

// WriteFrame implements Writer.
func (rw *RunWriter) WriteFrame(payload []byte) error {
	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(payload)))
	if _, err := rw.w.Write(header[:]); err != nil {
		return err
	}
	_, err := rw.w.Write(payload)
	return err
}

// Path implements Writer.
func (rw *RunWriter) Path() string {
	return rw.path
}

// Close flushes buffered data and closes the underlying file. Empty runs
// (zero WriteFrame calls) are permitted and produce a zero-byte file.
func (rw *RunWriter) Close() error {
	if err := rw.w.Flush(); err != nil {
		rw.file.Close()
		return err
	}
	return rw.file.Close()
}

// RunReader streams length-framed payload records back out of a run file
// in the order RunWriter wrote them. It is read sequentially exactly once.
type RunReader struct {
	file *os.File
	r    *bufio.Reader
	path string
}

// OpenRun opens an existing run file for sequential reading.
func OpenRun(path string, bufSize int) (*RunReader, error) {
	if bufSize <= 0 {
		bufSize = fileBufferSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run file %s: %w", path, err)
	}
	return &RunReader{
		file: f,
		r:    bufio.NewReaderSize(f, bufSize),
		path: path,
	}, nil
}

// ReadFrame implements Reader.
func (rr *RunReader) ReadFrame() ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(rr.r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, io.ErrUnexpectedEOF
	}
	n := binary.LittleEndian.Uint64(header[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return payload, nil
}

// Close closes and removes the run file. The merger calls this for every
// run from its own Close, once the merge has finished or been abandoned,
// and the working directory's own Close catches any run file left behind.
func (rr *RunReader) Close() error {
	err := rr.file.Close()
	if rmErr := os.Remove(rr.path); rmErr != nil && !os.IsNotExist(rmErr) {
		if err == nil {
			err = rmErr
		}
	}
	return err
}
