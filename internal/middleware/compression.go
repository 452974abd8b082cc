package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var (
	gzipPool = sync.Pool{
		New: func() any { return gzip.NewWriter(io.Discard) },
	}
	brotliPool = sync.Pool{
		New: func() any { return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression) },
	}
)

// compressWriter defers the choice to compress until the first write, so
// handlers that write nothing (304s, panics) get no Content-Encoding.
type compressWriter struct {
	http.ResponseWriter
	encoding    string
	writer      io.WriteCloser
	wroteHeader bool
}

func (w *compressWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if status != http.StatusNoContent && status != http.StatusNotModified && status >= 200 {
		w.start()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressWriter) start() {
	h := w.Header()
	if h.Get("Content-Encoding") != "" {
		return
	}
	h.Set("Content-Encoding", w.encoding)
	h.Del("Content-Length")
	switch w.encoding {
	case "br":
		bw := brotliPool.Get().(*brotli.Writer)
		bw.Reset(w.ResponseWriter)
		w.writer = bw
	case "gzip":
		gz := gzipPool.Get().(*gzip.Writer)
		gz.Reset(w.ResponseWriter)
		w.writer = gz
	}
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.writer == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.writer.Write(b)
}

func (w *compressWriter) close() {
	if w.writer == nil {
		return
	}
	_ = w.writer.Close()
	switch cw := w.writer.(type) {
	case *brotli.Writer:
		brotliPool.Put(cw)
	case *gzip.Writer:
		gzipPool.Put(cw)
	}
	w.writer = nil
}

// negotiateEncoding picks brotli over gzip when the client accepts both.
// Codings listed with q=0 are refused.
func negotiateEncoding(accept string) string {
	var gz bool
	for _, part := range strings.Split(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				continue
			}
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "br":
			return "br"
		case "gzip":
			gz = true
		}
	}
	if gz {
		return "gzip"
	}
	return ""
}

// Compress compresses responses with brotli or gzip according to the
// request's Accept-Encoding header.
func Compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")

		encoding := negotiateEncoding(r.Header.Get("Accept-Encoding"))
		if encoding == "" {
			next.ServeHTTP(w, r)
			return
		}

		cw := &compressWriter{ResponseWriter: w, encoding: encoding}
		defer cw.close()
		next.ServeHTTP(cw, r)
	})
}
