package client

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

// readCaPool loads the pem encoded certificate authorities used to verify
// the service
func readCaPool(caFile string) (*x509.CertPool, error) {
	bytes, err := os.ReadFile(caFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read ca file")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bytes) {
		return nil, errors.Errorf("no certificates found in ca file: %s", caFile)
	}
	return pool, nil
}

// tlsTransport returns a transport presenting the client certificate and
// trusting the given ca; without all three files the transport is plain
func tlsTransport(caFile, crtFile, keyFile string) (*http.Transport, error) {
	if caFile == "" || crtFile == "" || keyFile == "" {
		return &http.Transport{}, nil
	}
	rootCAs, err := readCaPool(caFile)
	if err != nil {
		return nil, err
	}
	certificate, err := tls.LoadX509KeyPair(crtFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load client certificate")
	}
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			RootCAs:      rootCAs,
			Certificates: []tls.Certificate{certificate},
		},
	}, nil
}
