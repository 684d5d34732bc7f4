package tlsroots

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM file holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

// LoadPool builds a certificate pool from one or more PEM files. Every
// file must contribute at least one certificate.
func LoadPool(files ...string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
		}
		if err := appendPEM(pool, data); err != nil {
			return nil, fmt.Errorf("%w (%s)", err, path)
		}
	}
	return pool, nil
}

// appendPEM adds every CERTIFICATE block in data to pool. Other block
// types are skipped.
func appendPEM(pool *x509.CertPool, data []byte) error {
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}
