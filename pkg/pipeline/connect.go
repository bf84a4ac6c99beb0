package pipeline

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"
)

// tlsClientHelloPrefix is the first byte of a TLS record header (content
// type 0x16, handshake) followed by the major/minor protocol version
// bytes (spec §4.E.1: "Bytes 16 03 …").
var tlsClientHelloPrefix = []byte{0x16, 0x03}

// getHTTPPrefix is the first four bytes of a cleartext "GET " request line
// (spec §4.E.1: "Bytes 47 45 54 20").
var getHTTPPrefix = []byte{'G', 'E', 'T', ' '}

// dialTimeout bounds the raw-copy passthrough's outbound dial (spec §4.E.1
// "any ... DNS failure is logged and the tunnel closed").
const dialTimeout = 10 * time.Second

// handleConnect implements spec §4.E.1: respond 200 immediately, then
// asynchronously sniff the upgraded stream's first four bytes to decide
// between a WebSocket-over-CONNECT HTTP server, a TLS MITM handshake, or a
// raw bidirectional copy.
func (p *Pipeline) handleConnect(w http.ResponseWriter, r *http.Request) {
	authority := r.Host
	if authority == "" {
		authority = r.URL.Host
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	conn, brw, err := hijacker.Hijack()
	if err != nil {
		p.log.Error("CONNECT hijack failed", "authority", authority, "error", err)
		return
	}

	if _, err := io.WriteString(conn, "HTTP/1.1 200 Connection Established\r\n\r\n"); err != nil {
		p.log.Error("CONNECT 200 write failed", "authority", authority, "error", err)
		conn.Close()
		return
	}
	// brw.Reader may already hold bytes a pipelining client sent right
	// after the CONNECT request line; serveTunnel reads through it so
	// none are lost.
	go p.serveTunnel(conn, brw.Reader, authority)
}

// serveTunnel runs the sniff-and-dispatch branch of spec §4.E.1 on a
// CONNECT-established connection. It owns conn and closes it on return.
func (p *Pipeline) serveTunnel(conn net.Conn, buffered *bufio.Reader, authority string) {
	defer conn.Close()

	prefix, err := buffered.Peek(4)
	if err != nil {
		if err != io.EOF {
			p.log.Error("tunnel sniff failed", "authority", authority, "error", err)
		}
		return
	}

	switch {
	case prefixEqual(prefix, getHTTPPrefix):
		p.serveInnerHTTP(bufferedConn{Conn: conn, r: buffered}, "http", authority)
	case prefix[0] == tlsClientHelloPrefix[0] && prefix[1] == tlsClientHelloPrefix[1]:
		p.serveTLS(bufferedConn{Conn: conn, r: buffered}, authority)
	default:
		p.rawCopy(bufferedConn{Conn: conn, r: buffered}, authority)
	}
}

func prefixEqual(got, want []byte) bool {
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// serveTLS completes the MITM handshake using a per-SNI server config
// issued by the certificate authority (spec §4.A, §4.E.1), then serves
// decrypted HTTP/1.1 on the result with scheme https.
func (p *Pipeline) serveTLS(conn net.Conn, authority string) {
	tlsConn := tls.Server(conn, p.tlsConfigFor(authority))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		p.log.Error("MITM handshake failed", "authority", authority, "error", err)
		return
	}
	p.serveInnerHTTP(tlsConn, "https", authority)
}

// serveInnerHTTP parses HTTP/1.1 requests directly off the decrypted or
// cleartext tunnel stream and routes each through the forward path (spec
// §4.E.1 "then route through §4.E.2"), preserving keep-alive across
// multiple requests on the same tunnel. A single net.Listener yielding
// exactly this one connection would let http.Server do the same parsing;
// reading requests directly with http.ReadRequest avoids that extra
// plumbing for a handler that only ever serves one fixed connection.
func (p *Pipeline) serveInnerHTTP(conn net.Conn, scheme, authority string) {
	br := bufio.NewReader(conn)
	for {
		req, err := http.ReadRequest(br)
		if err != nil {
			if err != io.EOF {
				p.log.Debug("inner tunnel request read ended", "authority", authority, "error", err)
			}
			return
		}
		req.URL.Scheme = scheme
		if req.URL.Host == "" {
			req.URL.Host = authority
		}
		if req.Host == "" {
			req.Host = authority
		}

		rw := newTunnelResponseWriter(conn)
		p.forward.ServeHTTP(rw, req)
		if err := rw.flush(req); err != nil {
			p.log.Debug("inner tunnel response write failed", "authority", authority, "error", err)
			return
		}
		if rw.closeRequested || req.Close {
			return
		}
	}
}

// rawCopy implements the non-HTTP, non-TLS passthrough branch: a fresh TCP
// connection to authority, full-duplex byte copy until either side closes
// (spec §4.E.1).
func (p *Pipeline) rawCopy(conn net.Conn, authority string) {
	upstream, err := net.DialTimeout("tcp", authority, dialTimeout)
	if err != nil {
		p.log.Error("raw tunnel dial failed", "authority", authority, "error", err)
		return
	}
	defer upstream.Close()

	done := make(chan struct{}, 2)
	go func() { io.Copy(upstream, conn); done <- struct{}{} }()
	go func() { io.Copy(conn, upstream); done <- struct{}{} }()
	<-done
}

// bufferedConn adapts a net.Conn plus an already-primed bufio.Reader (which
// may hold bytes peeked during sniffing) back into a plain net.Conn whose
// Read calls drain the buffer first.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }
