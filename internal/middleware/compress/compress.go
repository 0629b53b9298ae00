package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"go.uber.org/zap"
)

const (
	encodingGzip   = "gzip"
	encodingBrotli = "br"
)

// encoder — общий интерфейс gzip.Writer и brotli.Writer
type encoder interface {
	io.WriteCloser
	Reset(w io.Writer)
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

var brotliWriterPool = sync.Pool{
	New: func() interface{} {
		return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression)
	},
}

func poolFor(encoding string) *sync.Pool {
	if encoding == encodingBrotli {
		return &brotliWriterPool
	}
	return &gzipWriterPool
}

// compressWriter сжимает тело ответа. Статус придерживается до первой записи,
// чтобы не выставлять Content-Encoding пустым и неуспешным ответам.
type compressWriter struct {
	w        http.ResponseWriter
	encoding string
	enc      encoder

	status      int
	wroteHeader bool
	started     bool
	passthrough bool
}

func newCompressWriter(w http.ResponseWriter, encoding string) *compressWriter {
	return &compressWriter{
		w:        w,
		encoding: encoding,
		status:   http.StatusOK,
	}
}

func (c *compressWriter) Header() http.Header {
	return c.w.Header()
}

func (c *compressWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true
	c.status = statusCode
}

func (c *compressWriter) start(hasBody bool) {
	c.started = true

	if !hasBody || c.status >= 300 || c.status == http.StatusNoContent {
		c.passthrough = true
		c.w.WriteHeader(c.status)
		return
	}

	h := c.w.Header()
	h.Set("Content-Encoding", c.encoding)
	h.Del("Content-Length")
	h.Add("Vary", "Accept-Encoding")

	c.enc = poolFor(c.encoding).Get().(encoder)
	c.enc.Reset(c.w)
	c.w.WriteHeader(c.status)
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if !c.started {
		c.wroteHeader = true
		c.start(len(p) > 0)
	}
	if c.passthrough {
		return c.w.Write(p)
	}
	return c.enc.Write(p)
}

// Close дописывает сжатый поток и возвращает кодировщик в пул
func (c *compressWriter) Close() error {
	if c.wroteHeader && !c.started {
		c.start(false)
	}
	if c.enc == nil {
		return nil
	}
	err := c.enc.Close()
	c.enc.Reset(io.Discard) // очистка, чтобы избежать утечек
	poolFor(c.encoding).Put(c.enc)
	c.enc = nil
	return err
}

type compressReader struct {
	r  io.ReadCloser
	zr io.Reader
}

func newCompressReader(r io.ReadCloser, encoding string) (*compressReader, error) {
	if encoding == encodingBrotli {
		return &compressReader{r: r, zr: brotli.NewReader(r)}, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &compressReader{r: r, zr: zr}, nil
}

func (c *compressReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *compressReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	if zc, ok := c.zr.(io.Closer); ok {
		return zc.Close()
	}
	return nil
}

// acceptedEncoding выбирает кодировку ответа: brotli предпочтительнее gzip
func acceptedEncoding(header string) string {
	var gzipOK bool
	for _, part := range strings.Split(header, ",") {
		token := strings.TrimSpace(part)
		if i := strings.IndexByte(token, ';'); i >= 0 {
			if !acceptable(token[i+1:]) {
				continue
			}
			token = strings.TrimSpace(token[:i])
		}
		switch strings.ToLower(token) {
		case encodingBrotli:
			return encodingBrotli
		case encodingGzip:
			gzipOK = true
		}
	}
	if gzipOK {
		return encodingGzip
	}
	return ""
}

// acceptable проверяет параметры кодировки: q=0 (в любой записи) и нечисловой q её запрещают
func acceptable(params string) bool {
	for _, param := range strings.Split(params, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || q <= 0 {
			return false
		}
	}
	return true
}

func requestEncoding(header string) string {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case encodingGzip:
		return encodingGzip
	case encodingBrotli:
		return encodingBrotli
	default:
		return ""
	}
}

// Middleware сжимает ответы (br или gzip по Accept-Encoding) и распаковывает
// тела запросов с Content-Encoding gzip или br
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ow := w

		if encoding := acceptedEncoding(r.Header.Get("Accept-Encoding")); encoding != "" {
			cw := newCompressWriter(w, encoding)
			ow = cw
			defer cw.Close()
		}

		if encoding := requestEncoding(r.Header.Get("Content-Encoding")); encoding != "" {
			cr, err := newCompressReader(r.Body, encoding)
			if err != nil {
				logger.Log.Info("Failed to read compressed body", zap.String("encoding", encoding), zap.Error(err))
				http.Error(ow, "Failed to read compressed body", http.StatusBadRequest)
				return
			}
			r.Body = cr
			defer cr.Close()
		}

		next.ServeHTTP(ow, r)
	})
}
