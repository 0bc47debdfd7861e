package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// certCheckInterval caps how often the certificate files are stat'ed.
const certCheckInterval = time.Minute

// CertLoader serves a TLS certificate pair and reloads it when the files
// change on disk, so renewed certificates are picked up without a restart.
type CertLoader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu        sync.RWMutex
	cert      *tls.Certificate
	loadedAt  time.Time
	lastCheck time.Time
}

// NewCertLoader loads the pair once and fails if it cannot be loaded.
func NewCertLoader(certFile, keyFile string, logger *slog.Logger) (*CertLoader, error) {
	loader := &CertLoader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
	}

	if err := loader.reload(); err != nil {
		return nil, err
	}

	return loader, nil
}

// GetCertificate implements the tls.Config callback. The files are
// re-stat'ed at most once per certCheckInterval; a failed reload keeps
// serving the previous certificate.
func (l *CertLoader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	l.mu.RLock()
	if time.Since(l.lastCheck) < certCheckInterval {
		defer l.mu.RUnlock()
		return l.cert, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeReload()
	return l.cert, nil
}

// maybeReload re-stats the pair and reloads it when either file is newer
// than the loaded certificate. Callers hold the write lock.
func (l *CertLoader) maybeReload() {
	// Another goroutine may have checked while we waited for the lock.
	if time.Since(l.lastCheck) < certCheckInterval {
		return
	}
	l.lastCheck = time.Now()

	changed, err := l.changedSince(l.loadedAt)
	if err != nil {
		l.logger.Error("failed to stat certificate pair", "error", err)
		return
	}
	if !changed {
		return
	}

	if err := l.reload(); err != nil {
		l.logger.Error("failed to reload certificate", "error", err)
	}
}

func (l *CertLoader) changedSince(t time.Time) (bool, error) {
	certStat, err := os.Stat(l.certFile)
	if err != nil {
		return false, err
	}
	keyStat, err := os.Stat(l.keyFile)
	if err != nil {
		return false, err
	}
	return certStat.ModTime().After(t) || keyStat.ModTime().After(t), nil
}

func (l *CertLoader) reload() error {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}

	l.cert = &cert
	l.loadedAt = time.Now()

	attrs := []any{"cert", l.certFile}
	if cert.Leaf != nil {
		attrs = append(attrs, "expires", cert.Leaf.NotAfter)
	}
	l.logger.Info("loaded tls certificate", attrs...)
	return nil
}
