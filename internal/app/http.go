package app

import (
	"net"
	"net/http"
	"time"
)

// newPooledHTTPClient returns the client shared by the page and feed fetchers.
// Idle connections are kept per host since every rating lookup hits the same site.
func newPooledHTTPClient(perHost int) *http.Client {
	if perHost <= 0 {
		perHost = 1
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   perHost,
		MaxConnsPerHost:       perHost * 2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
