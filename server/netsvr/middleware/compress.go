package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// encoder *gzip.Writer 與 *zstd.Encoder 的共同行為
type encoder interface {
	io.Writer
	Reset(w io.Writer)
	Close() error
}

// compressor 一種編碼 + 一個 sync.Pool
type compressor struct {
	name string
	pool sync.Pool
}

func (c *compressor) get(w io.Writer) encoder {
	e := c.pool.Get().(encoder)
	e.Reset(w)
	return e
}

// put 寫出 footer 後放回池；disabled 時先把目標換成 io.Discard，footer 不會污染 204/304。
func (c *compressor) put(e encoder, disabled bool) {
	if disabled {
		e.Reset(io.Discard)
	}
	_ = e.Close()
	c.pool.Put(e)
}

func newCompressors(cfg CompressConfig) (zc, gc *compressor) {
	zc = &compressor{name: "zstd"}
	zc.pool.New = func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(cfg.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}
	gc = &compressor{name: "gzip"}
	gc.pool.New = func() any {
		gw, err := gzip.NewWriterLevel(nil, cfg.GzipLevel)
		if err != nil {
			gw = gzip.NewWriter(nil)
		}
		return gw
	}
	return zc, gc
}

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // 指向 gzip / zstd encoder
	disabled bool      // 204/304/1xx 時動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	// 防禦隱式 Header 發送
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compression 使用 DefaultCompressConfig 的壓縮 middleware
func Compression(next http.Handler) http.Handler {
	return NewCompression(DefaultCompressConfig)(next)
}

// NewCompression 依 Accept-Encoding 選 zstd（優先）或 gzip；HEAD、WebSocket 與已編碼的回應直接放行。
func NewCompression(cfg CompressConfig) func(http.Handler) http.Handler {
	zc, gc := newCompressors(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			var c *compressor
			switch accept := r.Header.Get("Accept-Encoding"); {
			case strings.Contains(accept, "zstd"):
				c = zc
			case strings.Contains(accept, "gzip"):
				c = gc
			default:
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Encoding", c.name)
			w.Header().Add("Vary", "Accept-Encoding")
			enc := c.get(w)
			cw := &compressResponseWriter{ResponseWriter: w, w: enc}
			defer func() { c.put(enc, cw.disabled) }()
			next.ServeHTTP(cw, r)
		})
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	// 204 No Content, 304 Not Modified, 1xx Informational
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}
