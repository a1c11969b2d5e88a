package base

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// ErrLineTooLong is returned by readLine when a line exceeds the configured limit
var ErrLineTooLong = errors.New("line exceeds maximum size")

var newline = []byte{'\n'}

// writeLine writes data followed by a newline.
// net.Buffers lets connections combine both parts into a single writev call.
func writeLine(w io.Writer, data []byte) error {
	b := net.Buffers{data, newline}
	_, err := b.WriteTo(w)
	return err
}

// readLine reads one newline terminated line of at most max bytes (excluding
// the terminator). The returned slice is owned by the caller and has the
// trailing "\n" or "\r\n" removed.
// A line that is cut off by EOF is dropped and io.EOF is returned.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)

		switch {
		case err == nil:
			line = line[:len(line)-1]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			if len(line) > max {
				return nil, ErrLineTooLong
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(line) > max {
				return nil, ErrLineTooLong
			}
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// isBlank reports whether line consists of whitespace only
func isBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

// isDisconnect reports whether err is the regular end of a connection
// (peer closed it, or it was closed locally during shutdown)
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// isTimeout reports whether err was caused by an expired deadline
func isTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
