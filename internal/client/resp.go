package client

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strconv"
)

// Protocol limits bound reply decoding against a misbehaving or compromised
// server the same way a server bounds an inbound command.
const (
	maxArrayLen  = 1 << 20 // replies can be much larger than commands (e.g. SCAN, LRANGE)
	maxBulkLen   = 512 << 20
	maxLineLen   = 64 * 1024
)

var (
	errProtocol      = errors.New("resp: protocol error")
	errLimitExceeded = errors.New("resp: limit exceeded")
)

// replyKind discriminates the wire type a rawReply was parsed from.
type replyKind byte

const (
	kindSimpleString replyKind = '+'
	kindError        replyKind = '-'
	kindInteger      replyKind = ':'
	kindBulkString   replyKind = '$'
	kindArray        replyKind = '*'
	kindNull         replyKind = '_'
	kindDouble       replyKind = ','
	kindBoolean      replyKind = '#'
	kindBigNumber    replyKind = '('
	kindBulkError    replyKind = '!'
	kindVerbatim     replyKind = '='
	kindMap          replyKind = '%'
	kindSet          replyKind = '~'
	kindPush         replyKind = '>'
	kindAttribute    replyKind = '|'
)

// rawReply is the parsed-but-undecoded reply tree handed to the reply
// decoder (§4.2). It is the Go stand-in for the spec's "reply tree from the
// low-level parser with a discriminated type".
type rawReply struct {
	kind     replyKind
	bytes    []byte     // simple string / error / bulk string / bignum / verbatim payload
	integer  int64      // integer, boolean (0/1)
	double   float64    // double
	isNull   bool       // bulk/array null
	elements []rawReply // array / map / set / push / attribute
}

// readReply reads exactly one reply (RESP2 or RESP3) from r.
func readReply(r *bufio.Reader) (rawReply, error) {
	line, err := readLine(r, maxLineLen)
	if err != nil {
		return rawReply{}, err
	}
	if len(line) == 0 {
		return rawReply{}, fmt.Errorf("%w: empty reply line", errProtocol)
	}

	kind := replyKind(line[0])
	body := line[1:]

	switch kind {
	case kindSimpleString, kindError:
		return rawReply{kind: kind, bytes: []byte(body)}, nil
	case kindInteger:
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return rawReply{}, fmt.Errorf("%w: invalid integer %q", errProtocol, body)
		}
		return rawReply{kind: kind, integer: n}, nil
	case kindDouble:
		d, err := parseDouble(body)
		if err != nil {
			return rawReply{}, fmt.Errorf("%w: invalid double %q", errProtocol, body)
		}
		return rawReply{kind: kind, double: d}, nil
	case kindBoolean:
		switch body {
		case "t":
			return rawReply{kind: kind, integer: 1}, nil
		case "f":
			return rawReply{kind: kind, integer: 0}, nil
		default:
			return rawReply{}, fmt.Errorf("%w: invalid boolean %q", errProtocol, body)
		}
	case kindNull:
		return rawReply{kind: kind, isNull: true}, nil
	case kindBigNumber:
		return rawReply{kind: kind, bytes: []byte(body)}, nil
	case kindBulkString, kindBulkError, kindVerbatim:
		n, err := strconv.Atoi(body)
		if err != nil {
			return rawReply{}, fmt.Errorf("%w: invalid bulk length %q", errProtocol, body)
		}
		if n < 0 {
			return rawReply{kind: kindBulkString, isNull: true}, nil
		}
		if n > maxBulkLen {
			return rawReply{}, fmt.Errorf("%w: bulk length %d exceeds limit", errLimitExceeded, n)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return rawReply{}, err
		}
		if !bytes.HasSuffix(buf, []byte("\r\n")) {
			return rawReply{}, fmt.Errorf("%w: missing bulk terminator", errProtocol)
		}
		payload := buf[:n]
		if kind == kindVerbatim {
			// "txt:<payload>" — strip the 4-byte format prefix per RESP3.
			if len(payload) >= 4 && payload[3] == ':' {
				payload = payload[4:]
			}
		}
		return rawReply{kind: kind, bytes: payload}, nil
	case kindArray, kindSet, kindPush, kindAttribute:
		n, err := strconv.Atoi(body)
		if err != nil {
			return rawReply{}, fmt.Errorf("%w: invalid array length %q", errProtocol, body)
		}
		if n < 0 {
			return rawReply{kind: kindArray, isNull: true}, nil
		}
		if n > maxArrayLen {
			return rawReply{}, fmt.Errorf("%w: array length %d exceeds limit", errLimitExceeded, n)
		}
		elems := make([]rawReply, n)
		for i := 0; i < n; i++ {
			e, err := readReply(r)
			if err != nil {
				return rawReply{}, err
			}
			elems[i] = e
		}
		return rawReply{kind: kind, elements: elems}, nil
	case kindMap:
		n, err := strconv.Atoi(body)
		if err != nil {
			return rawReply{}, fmt.Errorf("%w: invalid map length %q", errProtocol, body)
		}
		if n > maxArrayLen {
			return rawReply{}, fmt.Errorf("%w: map length %d exceeds limit", errLimitExceeded, n)
		}
		elems := make([]rawReply, 0, n*2)
		for i := 0; i < n; i++ {
			k, err := readReply(r)
			if err != nil {
				return rawReply{}, err
			}
			v, err := readReply(r)
			if err != nil {
				return rawReply{}, err
			}
			elems = append(elems, k, v)
		}
		return rawReply{kind: kindMap, elements: elems}, nil
	default:
		return rawReply{}, fmt.Errorf("%w: unknown reply type %q", errProtocol, string(kind))
	}
}

func parseDouble(s string) (float64, error) {
	switch s {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

// writeCommand writes a command as a RESP array of bulk strings — the only
// frame shape a client ever sends.
func writeCommand(w *bufio.Writer, args [][]byte) error {
	if _, err := fmt.Fprintf(w, "*%d\r\n", len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if _, err := fmt.Fprintf(w, "$%d\r\n", len(a)); err != nil {
			return err
		}
		if _, err := w.Write(a); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeCommandTo is a convenience wrapper used by Submit for the common
// case of writing straight to the connection without a shared buffered
// writer (the read loop owns the only long-lived bufio.Reader; writes are
// infrequent enough not to warrant a persistent bufio.Writer per client).
func (c *Client) writeCommandTo(conn net.Conn, args [][]byte) error {
	w := bufio.NewWriter(conn)
	return writeCommand(w, args)
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line exceeds limit %d", errLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}
	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line exceeds limit %d", errLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", errProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}
