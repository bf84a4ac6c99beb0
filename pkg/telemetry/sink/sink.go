// Package sink implements the telemetry sink the feedback worker posts
// proxy_response records to: a raw-TCP InfluxDB line-protocol emitter,
// grounded on original_source/src/metrics.rs (the raw TCP, line-protocol
// variant, chosen over the alternative telegraf-crate-based client in
// original_source/src/metrics/mod.rs — see DESIGN.md / SPEC_FULL.md D.3).
// It is treated as an external collaborator with a single send(metric)
// operation per spec §1.
package sink

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TelegrafSink sends metrics as InfluxDB line protocol over a TCP
// connection to TELEGRAF_ADDR. A nil *TelegrafSink is never constructed;
// callers that leave the address unset simply don't construct one, per
// spec §6 "if unset, telemetry is disabled".
type TelegrafSink struct {
	addr    string
	dialer  net.Dialer
	timeout time.Duration
}

// New returns a TelegrafSink that dials addr (host:port) for each send.
// A short-lived connection per send keeps the sink stateless and avoids
// holding a socket open across the feedback worker's idle periods.
func New(addr string) *TelegrafSink {
	return &TelegrafSink{addr: addr, timeout: 2 * time.Second}
}

// Send writes one line-protocol record to the sink. Errors are the
// caller's (the feedback worker's) to log and drop — per spec §4.D step 2
// and §7, a sink error must never stop the worker or affect the response.
func (t *TelegrafSink) Send(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) error {
	line := encodeLine(measurement, tags, fields)

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("telegraf sink: dial %s: %w", t.addr, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(t.timeout))
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("telegraf sink: write: %w", err)
	}
	return nil
}

// encodeLine renders measurement,tag1=v1,tag2=v2 field1=v1,field2=v2 in
// InfluxDB line-protocol form, with tag keys sorted for determinism.
func encodeLine(measurement string, tags map[string]string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(measurement)

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(',')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escapeTagValue(tags[k]))
	}

	b.WriteByte(' ')

	fieldKeys := make([]string, 0, len(fields))
	for k := range fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	for i, k := range fieldKeys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encodeFieldValue(fields[k]))
	}

	return b.String()
}

func escapeTagValue(v string) string {
	r := strings.NewReplacer(" ", "\\ ", ",", "\\,", "=", "\\=")
	return r.Replace(v)
}

func encodeFieldValue(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val) + "i"
	case int64:
		return strconv.FormatInt(val, 10) + "i"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return `"` + strings.ReplaceAll(val, `"`, `\"`) + `"`
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf(`"%v"`, val)
	}
}
