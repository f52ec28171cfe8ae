package request

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// MaxHeaderBytes caps how much of a request head (start line plus header
// section) is read into memory. A peer exceeding it is rejected instead of
// buffered.
const MaxHeaderBytes = 64 << 10

var (
	ErrMalformedStartLine = errors.New("malformed start line")
	ErrHeaderTooLarge     = errors.New("header section too large")
)

// readLine reads one \n-terminated line, failing with ErrHeaderTooLarge once
// more than limit bytes have accumulated, even when no terminator has been
// seen yet.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > limit {
			return nil, ErrHeaderTooLarge
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return nil, err
		}
		return line, nil
	}
}

// ParseStartLine reads one line and splits it on single spaces into exactly
// three tokens: METHOD PATH PROTOCOL. Any other token count is a malformed
// request.
func ParseStartLine(r *bufio.Reader) (method, path, proto string, err error) {
	line, err := readLine(r, MaxHeaderBytes)
	if err != nil {
		return "", "", "", err
	}

	parts := strings.Split(strings.TrimRight(string(line), "\r\n"), " ")
	if len(parts) != 3 {
		return "", "", "", ErrMalformedStartLine
	}
	return parts[0], parts[1], parts[2], nil
}

// ReadHeaderBlock reads up to and including the blank line terminating the
// header section and returns the block for headers.Parse. A header section
// larger than MaxHeaderBytes is rejected with ErrHeaderTooLarge.
func ReadHeaderBlock(r *bufio.Reader) ([]byte, error) {
	var block bytes.Buffer
	for {
		line, err := readLine(r, MaxHeaderBytes-block.Len())
		if err != nil {
			return nil, err
		}
		block.Write(line)
		if bytes.Equal(line, []byte("\r\n")) || bytes.Equal(line, []byte("\n")) {
			return block.Bytes(), nil
		}
	}
}
