// Command tcplistener is a debugging aid: it accepts raw connections and
// prints the parsed request head without routing or responding beyond a
// fixed acknowledgement.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/go-kit/log/level"

	"github.com/flinthttp/flint/internal/headers"
	"github.com/flinthttp/flint/internal/logging"
	"github.com/flinthttp/flint/internal/request"
)

func main() {
	addr := flag.String("addr", ":42069", "listen address")
	flag.Parse()

	logger := logging.New(os.Stderr, "debug")

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		level.Error(logger).Log("msg", "listen failed", "err", err)
		os.Exit(1)
	}
	defer listener.Close()
	level.Info(logger).Log("msg", "listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			level.Warn(logger).Log("msg", "accept failed", "err", err)
			continue
		}
		go dump(conn)
	}
}

func dump(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	method, path, proto, err := request.ParseStartLine(reader)
	if err != nil {
		fmt.Printf("bad start line: %v\n", err)
		return
	}
	fmt.Printf("%s %s %s\n", method, path, proto)

	block, err := request.ReadHeaderBlock(reader)
	if err != nil {
		fmt.Printf("bad header block: %v\n", err)
		return
	}
	hdrs, err := headers.Parse(block)
	if err != nil {
		fmt.Printf("bad headers: %v\n", err)
		return
	}
	hdrs.Each(func(name, value string) {
		fmt.Printf("  %s: %s\n", name, value)
	})

	body := "request head logged\n"
	fmt.Fprintf(conn,
		"HTTP/1.1 200\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)
}
