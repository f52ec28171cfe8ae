package server

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/flinthttp/flint/internal/bufpool"
	"github.com/flinthttp/flint/internal/httpdate"
	"github.com/flinthttp/flint/internal/response"
)

// writeResponse serializes resp to w: status line with the numeric code,
// headers in insertion order, sorted Set-Cookie lines, blank line, then the
// body bytes or the streamed reader. Server and Date headers are stamped on
// every response before serialization.
func writeResponse(w io.Writer, resp *response.Response, serverName string) error {
	resp.Headers.Set("Server", serverName)
	resp.Headers.Set("Date", httpdate.Now())
	if resp.Stream == nil {
		resp.Headers.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}

	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d\r\n", int(resp.Status)); err != nil {
		return err
	}

	var headerErr error
	resp.Headers.Each(func(name, value string) {
		if headerErr == nil {
			_, headerErr = fmt.Fprintf(bw, "%s: %s\r\n", name, value)
		}
	})
	if headerErr != nil {
		return headerErr
	}

	for _, line := range resp.Cookies.Lines() {
		if _, err := bw.WriteString(line + "\r\n"); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	if resp.Stream != nil {
		chunk := bufpool.Get()
		_, err := io.CopyBuffer(bw, resp.Stream, chunk)
		bufpool.Put(chunk)
		if err != nil {
			return err
		}
	} else if len(resp.Body) > 0 {
		if _, err := bw.Write(resp.Body); err != nil {
			return err
		}
	}

	return bw.Flush()
}
