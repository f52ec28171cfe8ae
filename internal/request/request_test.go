package request

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flinthttp/flint/internal/headers"
)

const testSpoolMax = 1 << 20

// countingReader tracks how many times the underlying stream was read from.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func newTestRequest(t *testing.T, path, headerBlock, body string) *Request[any] {
	t.Helper()
	hdrs, err := headers.Parse([]byte(headerBlock))
	require.NoError(t, err)
	return New[any](strings.NewReader(body), nil, "POST", path, "HTTP/1.1", hdrs, nil, nil, testSpoolMax)
}

func TestParseStartLine(t *testing.T) {
	method, path, proto, err := ParseStartLine(bufio.NewReader(strings.NewReader("GET /index.html HTTP/1.1\r\n")))
	require.NoError(t, err)
	assert.Equal(t, "GET", method)
	assert.Equal(t, "/index.html", path)
	assert.Equal(t, "HTTP/1.1", proto)

	// Two tokens
	_, _, _, err = ParseStartLine(bufio.NewReader(strings.NewReader("GET /index.html\r\n")))
	assert.ErrorIs(t, err, ErrMalformedStartLine)

	// Four tokens
	_, _, _, err = ParseStartLine(bufio.NewReader(strings.NewReader("GET / extra HTTP/1.1\r\n")))
	assert.ErrorIs(t, err, ErrMalformedStartLine)

	// Empty line
	_, _, _, err = ParseStartLine(bufio.NewReader(strings.NewReader("\r\n")))
	assert.ErrorIs(t, err, ErrMalformedStartLine)

	// No line at all
	_, _, _, err = ParseStartLine(bufio.NewReader(strings.NewReader("")))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadHeaderBlock(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Host: example.com\r\nAccept: */*\r\n\r\nBODY"))
	block, err := ReadHeaderBlock(r)
	require.NoError(t, err)
	assert.Equal(t, "Host: example.com\r\nAccept: */*\r\n\r\n", string(block))

	// The body stays unread in the reader.
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "BODY", string(rest))
}

func TestReadHeaderBlockTooLarge(t *testing.T) {
	// Many well-formed lines adding up past the cap.
	var head strings.Builder
	line := "X-Filler: " + strings.Repeat("a", 118) + "\r\n"
	for head.Len() <= MaxHeaderBytes {
		head.WriteString(line)
	}
	head.WriteString("\r\n")

	_, err := ReadHeaderBlock(bufio.NewReader(strings.NewReader(head.String())))
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestReadHeaderBlockTooLargeSingleLine(t *testing.T) {
	// One endless line must trip the cap even though no terminator ever
	// arrives and the line never fits the read buffer.
	r := bufio.NewReaderSize(strings.NewReader("X-Huge: "+strings.Repeat("a", MaxHeaderBytes+1)), 16)
	_, err := ReadHeaderBlock(r)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestParseStartLineTooLong(t *testing.T) {
	line := "GET /" + strings.Repeat("a", MaxHeaderBytes+1) + " HTTP/1.1\r\n"
	_, _, _, err := ParseStartLine(bufio.NewReader(strings.NewReader(line)))
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestBody(t *testing.T) {
	req := newTestRequest(t, "/echo", "Content-Length: 5\r\n\r\n", "hellotrailing-noise")
	defer req.Close()

	data, err := req.BodyData()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Repeated reads come from the spool, not the stream.
	data, err = req.BodyData()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBodyWithoutContentLength(t *testing.T) {
	req := newTestRequest(t, "/echo", "Host: x\r\n\r\n", "ignored")
	defer req.Close()

	data, err := req.BodyData()
	require.NoError(t, err)
	assert.Empty(t, data)

	// Unparseable Content-Length reads nothing either.
	req = newTestRequest(t, "/echo", "Content-Length: banana\r\n\r\n", "ignored")
	defer req.Close()
	data, err = req.BodyData()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestBodyReadOnce(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("hello")}
	hdrs, err := headers.Parse([]byte("Content-Length: 5\r\n\r\n"))
	require.NoError(t, err)
	req := New[any](cr, nil, "POST", "/", "HTTP/1.1", hdrs, nil, nil, testSpoolMax)
	defer req.Close()

	first, err := req.Body()
	require.NoError(t, err)
	reads := cr.reads
	assert.Greater(t, reads, 0)

	second, err := req.Body()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, reads, cr.reads)
}

func TestQuery(t *testing.T) {
	req := newTestRequest(t, "/search?a=1&a=2&b=3", "Host: x\r\n\r\n", "")
	defer req.Close()

	q := req.Query()
	assert.Equal(t, []string{"1", "2"}, q["a"])
	assert.Equal(t, []string{"3"}, q["b"])

	// Absent query string yields an empty mapping.
	req = newTestRequest(t, "/search", "Host: x\r\n\r\n", "")
	defer req.Close()
	assert.Empty(t, req.Query())
}

func TestQueryStripsFragment(t *testing.T) {
	req := newTestRequest(t, "/search?a=1#section", "Host: x\r\n\r\n", "")
	defer req.Close()

	// The fragment after the query is not part of the last value.
	assert.Equal(t, []string{"1"}, req.Query()["a"])
}

func TestQueryConcurrentFirstAccess(t *testing.T) {
	req := newTestRequest(t, "/search?a=1", "Host: x\r\n\r\n", "")
	defer req.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"1"}, req.Query()["a"])
		}()
	}
	wg.Wait()
}

func TestCookies(t *testing.T) {
	req := newTestRequest(t, "/", "Cookie: session=abc; theme=dark\r\n\r\n", "")
	defer req.Close()

	c := req.Cookies()
	assert.Equal(t, "abc", c["session"])
	assert.Equal(t, "dark", c["theme"])

	// Absent header yields an empty collection.
	req = newTestRequest(t, "/", "Host: x\r\n\r\n", "")
	defer req.Close()
	assert.Empty(t, req.Cookies())
}

func TestJSON(t *testing.T) {
	body := `{"a":"1"}`
	req := newTestRequest(t, "/", fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body)), body)
	defer req.Close()

	v, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, v)

	// The parsed value is memoized.
	again, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestJSONEmptyObject(t *testing.T) {
	req := newTestRequest(t, "/", "Content-Length: 2\r\n\r\n", "{}")
	defer req.Close()

	v, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, v)
}

func TestJSONMalformed(t *testing.T) {
	req := newTestRequest(t, "/", "Content-Length: 5\r\n\r\n", "{oops")
	defer req.Close()

	_, err := req.JSON()
	assert.Error(t, err)
}

func TestFormURLEncoded(t *testing.T) {
	body := "test=test&multi=1&multi=2"
	block := fmt.Sprintf("Content-Type: application/x-www-form-urlencoded\r\nContent-Length: %d\r\n\r\n", len(body))
	req := newTestRequest(t, "/form", block, body)
	defer req.Close()

	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, form["test"])
	assert.Equal(t, []string{"1", "2"}, form["multi"])

	files, err := req.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFormOtherContentType(t *testing.T) {
	req := newTestRequest(t, "/form", "Content-Type: text/plain\r\nContent-Length: 4\r\n\r\n", "data")
	defer req.Close()

	form, err := req.Form()
	require.NoError(t, err)
	assert.Empty(t, form)
	files, err := req.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFormMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("test", "test"))
	fw, err := mw.CreateFormFile("upload_file", "test_file")
	require.NoError(t, err)
	_, err = fw.Write([]byte("file contents"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	block := fmt.Sprintf("Content-Type: %s\r\nContent-Length: %d\r\n\r\n", mw.FormDataContentType(), buf.Len())
	req := newTestRequest(t, "/upload", block, buf.String())
	defer req.Close()

	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, form["test"])

	files, err := req.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "upload_file", files[0].Field)
	assert.Equal(t, "test_file", files[0].Filename)

	content, err := io.ReadAll(files[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(content))
}

func TestCloseReleasesSpools(t *testing.T) {
	req := newTestRequest(t, "/", "Content-Length: 5\r\n\r\n", "hello")
	body, err := req.Body()
	require.NoError(t, err)

	require.NoError(t, req.Close())
	_, err = body.Read(make([]byte, 1))
	assert.Error(t, err)

	// Close without any materialized view is a no-op.
	req = newTestRequest(t, "/", "Host: x\r\n\r\n", "")
	require.NoError(t, req.Close())
}
