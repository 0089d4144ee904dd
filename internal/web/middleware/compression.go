package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Compression gzips responses of at least minSize bytes for clients that
// accept it
func Compression(minSize int) Middleware {
	pool := &sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: minSize, statusCode: http.StatusOK}
			defer gzw.Close()

			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(gzw, r)
		})
	}
}

// gzipResponseWriter holds back the first minSize bytes to decide whether
// compression pays off
type gzipResponseWriter struct {
	http.ResponseWriter
	pool       *sync.Pool
	gz         *gzip.Writer
	minSize    int
	buf        []byte
	statusCode int
	decided    bool
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(b)
		}
		return g.ResponseWriter.Write(b)
	}

	g.buf = append(g.buf, b...)
	if len(g.buf) >= g.minSize {
		if err := g.start(true); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

func (g *gzipResponseWriter) start(compress bool) error {
	g.decided = true
	if compress && g.Header().Get("Content-Encoding") == "" && g.statusCode != http.StatusNotModified {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		g.gz = g.pool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
	}
	g.ResponseWriter.WriteHeader(g.statusCode)

	buf := g.buf
	g.buf = nil
	if len(buf) == 0 {
		return nil
	}
	var err error
	if g.gz != nil {
		_, err = g.gz.Write(buf)
	} else {
		_, err = g.ResponseWriter.Write(buf)
	}
	return err
}

// Close flushes any buffered bytes and returns the gzip writer to the pool
func (g *gzipResponseWriter) Close() error {
	if !g.decided {
		if err := g.start(false); err != nil {
			return err
		}
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	g.pool.Put(g.gz)
	g.gz = nil
	return err
}
