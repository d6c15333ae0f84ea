package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// DomainTrace is the hash domain of a trace. The version suffix allows the
// encoding to change without colliding with old hashes.
const DomainTrace = "recompose/trace/v1"

// MarshalCanonical encodes ops as canonical JSON: an array of objects with
// keys in sorted order, no insignificant whitespace, no HTML escaping, and
// NFC-normalized strings.
//
// CRITICAL: This is the ONLY encoding used for trace hashes.
func MarshalCanonical(ops []Op) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, op := range ops {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeOp(&buf, op); err != nil {
			return nil, fmt.Errorf("op[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// writeOp writes one op. Keys are listed in byte order.
func writeOp(buf *bytes.Buffer, op Op) error {
	if !op.Kind.Valid() {
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	fields := []struct {
		key string
		val any
	}{
		{"count", int64(op.Count)},
		{"index", int64(op.Index)},
		{"kind", string(op.Kind)},
		{"node", op.Node},
		{"parent", op.Parent},
		{"pass", op.Pass},
		{"seq", op.Seq},
		{"to", int64(op.To)},
		{"value", op.Value},
	}
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(f.key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch v := f.val.(type) {
		case int64:
			buf.WriteString(strconv.FormatInt(v, 10))
		case string:
			s, err := marshalString(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			buf.Write(s)
		}
	}
	buf.WriteByte('}')
	return nil
}

// marshalString encodes s as a JSON string after NFC normalization.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of ops.
func Hash(ops []Op) (string, error) {
	data, err := MarshalCanonical(ops)
	if err != nil {
		return "", fmt.Errorf("trace hash: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when ops are known to be valid.
func MustHash(ops []Op) string {
	h, err := Hash(ops)
	if err != nil {
		panic(err)
	}
	return h
}
