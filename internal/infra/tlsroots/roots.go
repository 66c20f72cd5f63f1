package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCertsFound is returned when PEM data holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found")

// certExts are the file extensions picked up from a CA directory.
var certExts = map[string]bool{".pem": true, ".crt": true, ".cer": true}

// LoadPool returns the system roots plus every certificate found at paths.
// A path may be a PEM file or a directory of them.
func LoadPool(paths ...string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, p := range paths {
		if err := addPath(pool, p); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func addPath(pool *x509.CertPool, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tlsroots: %w", err)
	}
	if !info.IsDir() {
		return addFile(pool, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", path, err)
	}
	added := 0
	for _, e := range entries {
		if e.IsDir() || !certExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		if err := addFile(pool, filepath.Join(path, e.Name())); err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("%w in %s", ErrNoCertsFound, path)
	}
	return nil
}

func addFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if err := AddPEM(pool, data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddPEM adds every CERTIFICATE block of pemData to pool. Other block
// types are skipped.
func AddPEM(pool *x509.CertPool, pemData []byte) error {
	n := 0
	for {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
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
		n++
	}
	if n == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// ClientConfig returns a client TLS config trusting the system roots and
// caPaths. With no paths it returns nil, meaning Go's defaults.
func ClientConfig(caPaths ...string) (*tls.Config, error) {
	if len(caPaths) == 0 {
		return nil, nil
	}
	pool, err := LoadPool(caPaths...)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
