package navio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/signalsfoundry/limb-sounder/geom"
)

// Reader is a read-only handle over a stream of nav records.
type Reader struct {
	name   string
	format Format
	closer io.Closer
	text   *bufio.Scanner
	bin    *bufio.Reader
	index  int
}

// OpenReader opens path for reading records in the given format.
func OpenReader(path string, format Format) (*Reader, error) {
	if format != FormatText && format != FormatBinary {
		return nil, fmt.Errorf("open %s: %w: %s", path, ErrUnknownFormat, format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nav file %s: %w", path, err)
	}
	r, _ := NewReader(f, path, format)
	r.closer = f
	return r, nil
}

// NewReader wraps src. name identifies the stream in error messages.
func NewReader(src io.Reader, name string, format Format) (*Reader, error) {
	r := &Reader{name: name, format: format}
	switch format {
	case FormatText:
		r.text = bufio.NewScanner(src)
	case FormatBinary:
		r.bin = bufio.NewReader(src)
	default:
		return nil, fmt.Errorf("%s: %w: %s", name, ErrUnknownFormat, format)
	}
	return r, nil
}

// Read decodes the next record. It returns io.EOF after the last one.
func (r *Reader) Read() (geom.Nav, error) {
	var (
		rec record
		err error
	)
	if r.format == FormatBinary {
		rec, err = r.readBinary()
	} else {
		rec, err = r.readText()
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return geom.Nav{}, io.EOF
		}
		return geom.Nav{}, fmt.Errorf("%s record %d: %w", r.name, r.index, err)
	}
	nav, err := decode(rec)
	if err != nil {
		return geom.Nav{}, fmt.Errorf("%s record %d: %w", r.name, r.index, err)
	}
	r.index++
	return nav, nil
}

// ReadAll decodes every remaining record.
func (r *Reader) ReadAll() ([]geom.Nav, error) {
	var out []geom.Nav
	for {
		nav, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, nav)
	}
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Reader) readBinary() (record, error) {
	var rec record
	err := binary.Read(r.bin, binary.LittleEndian, &rec)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return rec, ErrShortRecord
	default:
		return rec, err
	}
}

func (r *Reader) readText() (record, error) {
	var rec record
	for r.text.Scan() {
		line := strings.TrimSpace(r.text.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < recordFields {
			return rec, fmt.Errorf("%w: %d of %d fields", ErrShortRecord, len(fields), recordFields)
		}
		if len(fields) > recordFields {
			return rec, fmt.Errorf("%w: %d fields, want %d", ErrBadRecord, len(fields), recordFields)
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return rec, fmt.Errorf("%w: field %d: %v", ErrBadRecord, i, err)
			}
			rec[i] = v
		}
		return rec, nil
	}
	if err := r.text.Err(); err != nil {
		return rec, err
	}
	return rec, io.EOF
}
