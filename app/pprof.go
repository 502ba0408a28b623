//go:build pprof

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
)

const (
	defaultPprofListenAddr = "127.0.0.1:6060"
)

func init() {
	listen := os.Getenv("UDPSOCK_PPROF_LISTEN")
	if listen == "" {
		listen = defaultPprofListenAddr
	}
	fmt.Printf("!!! pprof enabled, listening on %s\n", listen)
	go func() {
		if err := http.ListenAndServe(listen, nil); err != nil {
			panic(err)
		}
	}()
}
