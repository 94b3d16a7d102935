/*
 * compressed.go, part of mapex.
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicosdotutadotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compression returns the compression format implied by the file extension:
// "gz", "zst" or "" for an uncompressed file.
func compression(fname string) string {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".gz":
		return "gz"
	case ".zst", ".zstd":
		return "zst"
	default:
		return ""
	}
}

// StripCompression returns fname without its compression extension, if any,
// so the underlying format can be detected (i.e. "confs.sdf.gz" -> "confs.sdf").
func StripCompression(fname string) string {
	if compression(fname) == "" {
		return fname
	}
	return strings.TrimSuffix(fname, filepath.Ext(fname))
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// OpenReader opens the file fname and returns a reader that decompresses it
// if its extension is .gz (gzip) or .zst (zstd). Any other file is read as is.
func OpenReader(fname string) (io.ReadCloser, error) {
	errid := "OpenReader"
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, errid)
	}
	buf := bufio.NewReader(f)
	switch compression(fname) {
	case "gz":
		gz, err := gzip.NewReader(buf)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "%s: %s", errid, fname)
		}
		return &readCloser{gz, []func() error{gz.Close, f.Close}}, nil
	case "zst":
		zs, err := zstd.NewReader(buf)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "%s: %s", errid, fname)
		}
		return &readCloser{zs, []func() error{func() error { zs.Close(); return nil }, f.Close}}, nil
	default:
		return &readCloser{buf, []func() error{f.Close}}, nil
	}
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var err error
	for _, c := range w.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// OpenWriter creates the file fname, overwriting it if it exists, and returns
// a writer that compresses the data if the extension is .gz or .zst.
// The returned writer must be closed to flush all data.
func OpenWriter(fname string) (io.WriteCloser, error) {
	errid := "OpenWriter"
	if dir := filepath.Dir(fname); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errid)
		}
	}
	f, err := os.Create(fname)
	if err != nil {
		return nil, errors.Wrap(err, errid)
	}
	buf := bufio.NewWriter(f)
	switch compression(fname) {
	case "gz":
		gz := gzip.NewWriter(buf)
		return &writeCloser{gz, []func() error{gz.Close, buf.Flush, f.Close}}, nil
	case "zst":
		zs, err := zstd.NewWriter(buf)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errid)
		}
		return &writeCloser{zs, []func() error{zs.Close, buf.Flush, f.Close}}, nil
	default:
		return &writeCloser{buf, []func() error{buf.Flush, f.Close}}, nil
	}
}
