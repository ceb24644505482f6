package chassis

import (
	"crypto/tls"
	"fmt"

	"github.com/hazyhaar/touchstone-postal/pkg/mcpquic"
)

// alpnProtocols are offered on the UDP socket: HTTP/3 and MCP share it.
var alpnProtocols = []string{"h3", mcpquic.ALPNProtocolMCP}

// DevelopmentTLSConfig serves a freshly generated self-signed certificate.
// Clients must skip verification (postal call -insecure, curl -k).
func DevelopmentTLSConfig() (*tls.Config, error) {
	cert, err := mcpquic.GenerateSelfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("self-signed cert: %w", err)
	}
	return newTLSConfig(cert), nil
}

// ProductionTLSConfig loads a PEM cert/key pair.
func ProductionTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return newTLSConfig(cert), nil
}

func newTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
		NextProtos:   append([]string(nil), alpnProtocols...),
	}
}

// tcpTLSConfig derives the TCP-side config: same certificate, HTTP/2 and HTTP/1.1 ALPN.
func tcpTLSConfig(base *tls.Config) *tls.Config {
	cfg := base.Clone()
	cfg.NextProtos = []string{"h2", "http/1.1"}
	return cfg
}
