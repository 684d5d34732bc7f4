package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

// KeyPair serves a certificate that is reloaded when its files change.
// A failed reload keeps the previous certificate.
type KeyPair struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	logger   *slog.Logger
	debounce time.Duration

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a KeyPair.
type Option func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *KeyPair) {
		k.logger = logger
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(k *KeyPair) {
		k.debounce = d
	}
}

// LoadKeyPair loads certFile and keyFile. Call Watch to follow changes.
func LoadKeyPair(certFile, keyFile string, opts ...Option) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	if err := k.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

// Watch starts following the directories holding the key pair. Editors
// and secret mounts replace files by rename, so the directory is watched
// rather than the file.
func (k *KeyPair) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	dirs := map[string]struct{}{
		filepath.Dir(k.certFile): {},
		filepath.Dir(k.keyFile):  {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	k.watcher = w

	k.wg.Add(1)
	go k.loop()
	return nil
}

func (k *KeyPair) loop() {
	defer k.wg.Done()

	names := map[string]struct{}{
		filepath.Clean(k.certFile): {},
		filepath.Clean(k.keyFile):  {},
	}
	timer := time.NewTimer(k.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-k.watcher.Events:
			if !ok {
				return
			}
			if _, ours := names[filepath.Clean(event.Name)]; !ours {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(k.debounce)

		case <-timer.C:
			if err := k.reload(); err != nil {
				k.logger.Error("certificate reload failed",
					"error", err,
					"cert_file", k.certFile)
			}

		case err, ok := <-k.watcher.Errors:
			if !ok {
				return
			}
			k.logger.Error("certificate watcher error", "error", err)

		case <-k.done:
			timer.Stop()
			return
		}
	}
}

// Stop ends watching. It is safe to call more than once and without
// Watch.
func (k *KeyPair) Stop() error {
	var err error
	k.stopOnce.Do(func() {
		close(k.done)
		k.wg.Wait()
		if k.watcher != nil {
			err = k.watcher.Close()
		}
	})
	return err
}

// Certificate returns the current certificate.
func (k *KeyPair) Certificate() *tls.Certificate {
	return k.cert.Load()
}

// ServerConfig returns a TLS config that always presents the current
// certificate. A non-nil clientCAs requires and verifies client
// certificates against it.
func (k *KeyPair) ServerConfig(clientCAs *x509.CertPool) *tls.Config {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return k.cert.Load(), nil
		},
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}

func (k *KeyPair) reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	k.cert.Store(&cert)
	k.logger.Info("certificate loaded", "cert_file", k.certFile)
	return nil
}
