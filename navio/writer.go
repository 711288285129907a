package navio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/signalsfoundry/limb-sounder/geom"
)

// Writer is a write-only handle producing nav records. Close must be called
// to flush buffered records.
type Writer struct {
	name   string
	format Format
	closer io.Closer
	buf    *bufio.Writer
	index  int
}

// CreateWriter creates or truncates path for writing records.
func CreateWriter(path string, format Format) (*Writer, error) {
	if format != FormatText && format != FormatBinary {
		return nil, fmt.Errorf("create %s: %w: %s", path, ErrUnknownFormat, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create nav file %s: %w", path, err)
	}
	w, _ := NewWriter(f, path, format)
	w.closer = f
	return w, nil
}

// NewWriter wraps dst. name identifies the stream in error messages.
func NewWriter(dst io.Writer, name string, format Format) (*Writer, error) {
	if format != FormatText && format != FormatBinary {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrUnknownFormat, format)
	}
	return &Writer{name: name, format: format, buf: bufio.NewWriter(dst)}, nil
}

// Write appends one record.
func (w *Writer) Write(nav geom.Nav) error {
	rec := encode(nav)
	var err error
	if w.format == FormatBinary {
		err = binary.Write(w.buf, binary.LittleEndian, rec)
	} else {
		err = w.writeText(rec)
	}
	if err != nil {
		return fmt.Errorf("%s record %d: %w", w.name, w.index, err)
	}
	w.index++
	return nil
}

// WriteAll appends every record in navs.
func (w *Writer) WriteAll(navs []geom.Nav) error {
	for _, nav := range navs {
		if err := w.Write(nav); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered records and closes the file, if the writer owns
// one.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		if w.closer != nil {
			w.closer.Close()
			w.closer = nil
		}
		return fmt.Errorf("flush %s: %w", w.name, err)
	}
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", w.name, err)
	}
	return nil
}

func (w *Writer) writeText(rec record) error {
	line := make([]byte, 0, 24*recordFields)
	for i, v := range rec {
		if i > 0 {
			line = append(line, ' ')
		}
		line = strconv.AppendFloat(line, v, 'g', -1, 64)
	}
	line = append(line, '\n')
	_, err := w.buf.Write(line)
	return err
}
