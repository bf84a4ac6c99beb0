package pipeline

import (
	"fmt"
	"io"
	"net"
	"net/http"
)

// tunnelResponseWriter is a minimal http.ResponseWriter that serializes a
// response directly onto a CONNECT-tunnel connection, for requests parsed
// by http.ReadRequest rather than served by a full http.Server. It does not
// implement chunked transfer encoding: a response whose length isn't known
// up front closes the tunnel after it, trading away keep-alive for that one
// case rather than hand-rolling a chunked encoder.
type tunnelResponseWriter struct {
	conn           net.Conn
	header         http.Header
	status         int
	wroteHeader    bool
	closeRequested bool
}

func newTunnelResponseWriter(conn net.Conn) *tunnelResponseWriter {
	return &tunnelResponseWriter{conn: conn, header: make(http.Header), status: http.StatusOK}
}

func (w *tunnelResponseWriter) Header() http.Header { return w.header }

func (w *tunnelResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code

	if w.header.Get("Content-Length") == "" && w.header.Get("Transfer-Encoding") == "" {
		w.closeRequested = true
		w.header.Set("Connection", "close")
	}

	fmt.Fprintf(w.conn, "HTTP/1.1 %d %s\r\n", w.status, http.StatusText(w.status))
	w.header.Write(w.conn)
	io.WriteString(w.conn, "\r\n")
}

func (w *tunnelResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.conn.Write(b)
}

// flush ensures a response with an empty body still writes its status line.
func (w *tunnelResponseWriter) flush(_ *http.Request) error {
	if !w.wroteHeader {
		w.WriteHeader(w.status)
	}
	return nil
}
