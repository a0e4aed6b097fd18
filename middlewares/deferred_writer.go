package middlewares

import (
	"bufio"
	"bytes"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

const noWritten = -1

// deferredWriter buffers status, headers and body until commit. Flush commits
// implicitly; after that every call goes straight through.
type deferredWriter struct {
	gin.ResponseWriter

	header    http.Header
	status    int
	size      int
	body      bytes.Buffer
	committed bool
}

func newDeferredWriter(w gin.ResponseWriter) *deferredWriter {
	return &deferredWriter{
		ResponseWriter: w,
		header:         make(http.Header),
		status:         http.StatusOK,
		size:           noWritten,
	}
}

func (w *deferredWriter) Committed() bool {
	return w.committed
}

func (w *deferredWriter) Header() http.Header {
	if w.committed {
		return w.ResponseWriter.Header()
	}
	return w.header
}

func (w *deferredWriter) WriteHeader(code int) {
	if w.committed {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	if code > 0 && w.size == noWritten {
		w.status = code
	}
}

func (w *deferredWriter) WriteHeaderNow() {
	if w.committed {
		w.ResponseWriter.WriteHeaderNow()
		return
	}
	if w.size == noWritten {
		w.size = 0
	}
}

func (w *deferredWriter) Write(data []byte) (int, error) {
	if w.committed {
		return w.ResponseWriter.Write(data)
	}
	w.WriteHeaderNow()
	n, err := w.body.Write(data)
	w.size += n
	return n, err
}

func (w *deferredWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *deferredWriter) Status() int {
	if w.committed {
		return w.ResponseWriter.Status()
	}
	return w.status
}

func (w *deferredWriter) Size() int {
	if w.committed {
		return w.ResponseWriter.Size()
	}
	return w.size
}

func (w *deferredWriter) Written() bool {
	if w.committed {
		return w.ResponseWriter.Written()
	}
	return w.size != noWritten
}

func (w *deferredWriter) Flush() {
	w.commit()
	w.ResponseWriter.Flush()
}

// Hijack hands the connection over without writing anything buffered.
func (w *deferredWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.committed = true
	return w.ResponseWriter.Hijack()
}

func (w *deferredWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	dst := w.ResponseWriter.Header()
	for key, values := range w.header {
		dst[key] = values
	}
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.body.Bytes())
		return
	}
	w.ResponseWriter.WriteHeaderNow()
}
