package redisserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a request frame.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB, as Redis).
	MaxBulkLen = 512 * 1024 * 1024

	// maxHeaderLen bounds a "*<n>\r\n" or "$<n>\r\n" line. A longer line
	// without CRLF cannot become valid.
	maxHeaderLen = 32

	// initialTokenCap caps the up-front token slice so a large "*<n>"
	// header cannot force a big allocation before its bulks arrive.
	initialTokenCap = 64
)

// ErrProtocol reports a frame that can never become valid.
var ErrProtocol = errors.New("resp: protocol error")

// ReplyError is an error reply ("-...") read by a client.
type ReplyError struct {
	Msg string
}

func (e *ReplyError) Error() string { return e.Msg }

// ============================================================================
// Request frames
// ============================================================================

// ParseFrames decodes every complete frame at the start of buf.
//
// consumed is the number of bytes belonging to the returned frames; a
// partial trailing frame is left for the next call. When a frame is
// malformed, parsing stops there and err wraps ErrProtocol; the frames
// before it are still returned. Tokens alias buf.
func ParseFrames(buf []byte) (consumed int, frames [][][]byte, err error) {
	for consumed < len(buf) {
		n, tokens, err := parseFrame(buf[consumed:])
		if err != nil {
			return consumed, frames, err
		}
		if n == 0 {
			break
		}
		frames = append(frames, tokens)
		consumed += n
	}
	return consumed, frames, nil
}

// parseFrame decodes one frame. n == 0 with a nil error means more bytes
// are needed.
func parseFrame(buf []byte) (n int, tokens [][]byte, err error) {
	if buf[0] != '*' {
		return 0, nil, fmt.Errorf("%w: expected '*', got %s", ErrProtocol, strconv.QuoteRune(rune(buf[0])))
	}
	count, pos, err := parseHeader(buf, 0)
	if err != nil || pos == 0 {
		return 0, nil, err
	}
	if count < -1 {
		return 0, nil, fmt.Errorf("%w: invalid multibulk length", ErrProtocol)
	}
	if count > MaxArrayLen {
		return 0, nil, fmt.Errorf("%w: invalid multibulk length", ErrProtocol)
	}
	if count <= 0 {
		return pos, [][]byte{}, nil
	}

	tokens = newTokens(count)
	for i := int64(0); i < count; i++ {
		if pos >= len(buf) {
			return 0, nil, nil
		}
		if buf[pos] != '$' {
			return 0, nil, fmt.Errorf("%w: expected '$', got %s", ErrProtocol, strconv.QuoteRune(rune(buf[pos])))
		}
		size, next, err := parseHeader(buf, pos)
		if err != nil || next == 0 {
			return 0, nil, err
		}
		if size < 0 || size > MaxBulkLen {
			return 0, nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		end := next + int(size)
		if end+2 > len(buf) {
			return 0, nil, nil
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return 0, nil, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}
		tokens = append(tokens, buf[next:end])
		pos = end + 2
	}
	return pos, tokens, nil
}

// newTokens returns an empty token slice sized for count elements, up to
// initialTokenCap. Larger frames grow it as their bulks are decoded.
func newTokens(count int64) [][]byte {
	return make([][]byte, 0, min(count, initialTokenCap))
}

// parseHeader reads the integer of a "<type><n>\r\n" line starting at
// buf[start]. It returns next == 0 when the line is not complete yet.
func parseHeader(buf []byte, start int) (v int64, next int, err error) {
	limit := start + maxHeaderLen
	if limit > len(buf) {
		limit = len(buf)
	}
	for i := start + 1; i < limit; i++ {
		if buf[i] != '\r' {
			continue
		}
		if i+1 >= len(buf) {
			return 0, 0, nil
		}
		if buf[i+1] != '\n' {
			return 0, 0, fmt.Errorf("%w: header not terminated by CRLF", ErrProtocol)
		}
		v, err := parseDecimal(buf[start+1 : i])
		if err != nil {
			return 0, 0, err
		}
		return v, i + 2, nil
	}
	if limit-start >= maxHeaderLen {
		return 0, 0, fmt.Errorf("%w: header too long", ErrProtocol)
	}
	return 0, 0, nil
}

// parseDecimal accepts an optional '-' followed by at least one digit.
func parseDecimal(b []byte) (int64, error) {
	s := string(b)
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, s)
	}
	return v, nil
}

// AppendCommand encodes args as a request frame.
func AppendCommand(dst []byte, args ...string) []byte {
	dst = appendHeader(dst, '*', int64(len(args)))
	for _, a := range args {
		dst = appendBulk(dst, a)
	}
	return dst
}

// ============================================================================
// Replies
// ============================================================================

// AppendReturn encodes r onto dst. It is total over every Return and Value.
func AppendReturn(dst []byte, r domain.Return) []byte {
	switch r := r.(type) {
	case domain.OK:
		return append(dst, "+OK\r\n"...)
	case domain.Error:
		dst = append(dst, '-')
		dst = append(dst, singleLine(r.Msg)...)
		return append(dst, '\r', '\n')
	case domain.ValueReturn:
		return AppendValue(dst, r.Value)
	}
	return AppendValue(dst, domain.Nil{})
}

// AppendValue encodes v onto dst. Collections encode as arrays of bulk
// strings; unordered ones are sorted so that replies are deterministic.
func AppendValue(dst []byte, v domain.Value) []byte {
	switch v := v.(type) {
	case domain.Int:
		return appendHeader(dst, ':', int64(v))
	case domain.Str:
		return appendBulk(dst, string(v))
	case domain.Array:
		dst = appendHeader(dst, '*', int64(len(v)))
		for _, item := range v {
			dst = AppendValue(dst, item)
		}
		return dst
	case *domain.List:
		return appendStrings(dst, v.Items())
	case domain.Set:
		members := make([]string, 0, len(v))
		for m := range v {
			members = append(members, m)
		}
		sort.Strings(members)
		return appendStrings(dst, members)
	case domain.Hash:
		fields := make([]string, 0, len(v))
		for f := range v {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		dst = appendHeader(dst, '*', int64(2*len(fields)))
		for _, f := range fields {
			dst = appendBulk(dst, f)
			dst = appendBulk(dst, v[f])
		}
		return dst
	case domain.ZSet:
		members := make([]string, 0, len(v))
		for m := range v {
			members = append(members, m)
		}
		sort.Slice(members, func(i, j int) bool {
			if v[members[i]] != v[members[j]] {
				return v[members[i]] < v[members[j]]
			}
			return members[i] < members[j]
		})
		dst = appendHeader(dst, '*', int64(2*len(members)))
		for _, m := range members {
			dst = appendBulk(dst, m)
			dst = appendBulk(dst, strconv.FormatFloat(v[m], 'f', -1, 64))
		}
		return dst
	}
	return append(dst, "$-1\r\n"...)
}

func appendHeader(dst []byte, prefix byte, n int64) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, '\r', '\n')
}

func appendBulk(dst []byte, s string) []byte {
	dst = appendHeader(dst, '$', int64(len(s)))
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

func appendStrings(dst []byte, items []string) []byte {
	dst = appendHeader(dst, '*', int64(len(items)))
	for _, s := range items {
		dst = appendBulk(dst, s)
	}
	return dst
}

// singleLine keeps an error reply on one line.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// ReadReply decodes one reply. Simple strings become Str, error replies
// are returned as *ReplyError, and null bulk or null array replies become
// Nil.
func ReadReply(r *bufio.Reader) (domain.Value, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	body := line[1:]
	switch line[0] {
	case '+':
		return domain.Str(body), nil
	case '-':
		return nil, &ReplyError{Msg: body}
	case ':':
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer %q", ErrProtocol, body)
		}
		return domain.Int(n), nil
	case '$':
		n, err := strconv.Atoi(body)
		if err != nil || n < -1 || n > MaxBulkLen {
			return nil, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, body)
		}
		if n == -1 {
			return domain.Nil{}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return nil, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}
		return domain.Str(buf[:n]), nil
	case '*':
		n, err := strconv.Atoi(body)
		if err != nil || n < -1 || n > MaxArrayLen {
			return nil, fmt.Errorf("%w: invalid array length %q", ErrProtocol, body)
		}
		if n == -1 {
			return domain.Nil{}, nil
		}
		items := make(domain.Array, 0, n)
		for i := 0; i < n; i++ {
			item, err := ReadReply(r)
			var re *ReplyError
			if errors.As(err, &re) {
				item, err = domain.Str(re.Msg), nil
			}
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: unexpected reply type %s", ErrProtocol, strconv.QuoteRune(rune(line[0])))
}

// readLine reads a CRLF-terminated line without the terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return line[:len(line)-2], nil
}
