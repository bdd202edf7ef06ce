package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/project-odysseus/odyctl/internal/logger"
)

const (
	// Artifact names under the certificate directory.
	CAKeyFile    = "ca.key"
	CACertFile   = "ca.crt"
	LeafKeyFile  = "odysseus.key"
	LeafCSRFile  = "odysseus.csr"
	LeafCertFile = "odysseus.crt"

	// Proxy-consumable names the nginx container mounts.
	ServerCertFile = "server.crt"
	ServerKeyFile  = "server.key"

	caValidity   = 10 * 365 * 24 * time.Hour
	leafValidity = 2 * 365 * 24 * time.Hour

	caKeyBits   = 4096
	leafKeyBits = 2048
)

// SANs covered by the leaf certificate: wildcard + bare local domain,
// loopback hostname and loopback address.
var (
	leafDNSNames = []string{"odysseus.local", "*.odysseus.local", "localhost"}
	leafIPs      = []net.IP{net.ParseIP("127.0.0.1")}
)

// Provisioner creates the local certificate authority and the leaf
// certificate the reverse proxy serves. Existing artifacts are never
// silently replaced; regeneration means deleting them first.
type Provisioner struct {
	dir string
	log logger.Logger
	now func() time.Time
}

func NewProvisioner(dir string, log logger.Logger) *Provisioner {
	return &Provisioner{dir: dir, log: log, now: time.Now}
}

// EnsureAuthority generates the root key and self-signed certificate unless
// both already exist. Returns whether new artifacts were created.
func (p *Provisioner) EnsureAuthority() (bool, error) {
	switch state := p.pairState(CAKeyFile, CACertFile); state {
	case pairComplete:
		p.log.Info("certificate authority already present, keeping it",
			logger.String("dir", p.dir))
		return false, nil
	case pairPartial:
		return false, p.partialPairError(CAKeyFile, CACertFile)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create cert dir: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, caKeyBits)
	if err != nil {
		return false, fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return false, fmt.Errorf("failed to generate CA serial: %w", err)
	}
	now := p.now()
	tpl := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "Odysseus Local CA",
			Organization: []string{"Project Odysseus"},
		},
		NotBefore:             now.Add(-1 * time.Hour),
		NotAfter:              now.Add(caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, &key.PublicKey, key)
	if err != nil {
		return false, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	if err := p.writeKey(CAKeyFile, key); err != nil {
		return false, err
	}
	if err := p.writePEM(CACertFile, "CERTIFICATE", der, 0o644); err != nil {
		return false, err
	}

	p.log.Info("generated certificate authority",
		logger.String("cert", filepath.Join(p.dir, CACertFile)))
	return true, nil
}

// EnsureLeaf generates the leaf key, a CSR carrying the SAN set, and a
// certificate signed by the authority, unless the leaf already exists.
// The authority must exist first.
func (p *Provisioner) EnsureLeaf() (bool, error) {
	switch state := p.pairState(LeafKeyFile, LeafCertFile); state {
	case pairComplete:
		p.log.Info("leaf certificate already present, keeping it",
			logger.String("dir", p.dir))
		return false, nil
	case pairPartial:
		return false, p.partialPairError(LeafKeyFile, LeafCertFile)
	}

	caCert, caKey, err := p.loadAuthority()
	if err != nil {
		return false, err
	}

	key, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return false, fmt.Errorf("failed to generate leaf key: %w", err)
	}

	csrTpl := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName:   "odysseus.local",
			Organization: []string{"Project Odysseus"},
		},
		DNSNames:    leafDNSNames,
		IPAddresses: leafIPs,
	}
	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &csrTpl, key)
	if err != nil {
		return false, fmt.Errorf("failed to create CSR: %w", err)
	}
	csr, err := x509.ParseCertificateRequest(csrDER)
	if err != nil {
		return false, fmt.Errorf("failed to parse CSR: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return false, fmt.Errorf("failed to generate leaf serial: %w", err)
	}
	now := p.now()
	tpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      csr.Subject,
		NotBefore:    now.Add(-1 * time.Hour),
		NotAfter:     now.Add(leafValidity),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     csr.DNSNames,
		IPAddresses:  csr.IPAddresses,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tpl, caCert, csr.PublicKey, caKey)
	if err != nil {
		return false, fmt.Errorf("failed to sign leaf certificate: %w", err)
	}

	if err := p.writeKey(LeafKeyFile, key); err != nil {
		return false, err
	}
	if err := p.writePEM(LeafCSRFile, "CERTIFICATE REQUEST", csrDER, 0o644); err != nil {
		return false, err
	}
	if err := p.writePEM(LeafCertFile, "CERTIFICATE", der, 0o644); err != nil {
		return false, err
	}

	p.log.Info("generated leaf certificate",
		logger.String("cert", filepath.Join(p.dir, LeafCertFile)),
		logger.Strings("sans", leafDNSNames))
	return true, nil
}

// Install copies the leaf artifacts to the fixed server.crt/server.key names
// the proxy config references.
func (p *Provisioner) Install() error {
	pairs := []struct {
		src, dst string
		perm     os.FileMode
	}{
		{LeafCertFile, ServerCertFile, 0o644},
		{LeafKeyFile, ServerKeyFile, 0o600},
	}
	for _, pair := range pairs {
		data, err := os.ReadFile(filepath.Join(p.dir, pair.src))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", pair.src, err)
		}
		if err := os.WriteFile(filepath.Join(p.dir, pair.dst), data, pair.perm); err != nil {
			return fmt.Errorf("failed to install %s: %w", pair.dst, err)
		}
	}
	p.log.Info("installed proxy certificate pair",
		logger.String("cert", filepath.Join(p.dir, ServerCertFile)),
		logger.String("key", filepath.Join(p.dir, ServerKeyFile)))
	return nil
}

// VerifyChain checks that the leaf certificate validates against the
// authority. Used by `odyctl ssl` and the tests.
func (p *Provisioner) VerifyChain() error {
	caCert, err := p.readCert(CACertFile)
	if err != nil {
		return err
	}
	leaf, err := p.readCert(LeafCertFile)
	if err != nil {
		return err
	}

	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:   roots,
		DNSName: "odysseus.local",
	}); err != nil {
		return fmt.Errorf("leaf does not verify against authority: %w", err)
	}
	return nil
}

func (p *Provisioner) exists(name string) bool {
	_, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil
}

type pairState int

const (
	pairAbsent pairState = iota
	pairPartial
	pairComplete
)

// pairState classifies a key/cert pair. A half-present pair is never
// regenerated: that would silently replace the surviving artifact.
func (p *Provisioner) pairState(keyFile, certFile string) pairState {
	key, cert := p.exists(keyFile), p.exists(certFile)
	switch {
	case key && cert:
		return pairComplete
	case key || cert:
		return pairPartial
	default:
		return pairAbsent
	}
}

func (p *Provisioner) partialPairError(keyFile, certFile string) error {
	present, missing := keyFile, certFile
	if p.exists(certFile) {
		present, missing = certFile, keyFile
	}
	return fmt.Errorf("found %s without %s in %s: restore the missing file, or delete %s to regenerate the pair",
		present, missing, p.dir, present)
}

func (p *Provisioner) loadAuthority() (*x509.Certificate, *rsa.PrivateKey, error) {
	cert, err := p.readCert(CACertFile)
	if err != nil {
		return nil, nil, fmt.Errorf("certificate authority missing, run EnsureAuthority first: %w", err)
	}

	keyPEM, err := os.ReadFile(filepath.Join(p.dir, CAKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA key: %w", err)
	}
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, nil, fmt.Errorf("failed to decode CA key PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA key: %w", err)
	}
	return cert, key, nil
}

func (p *Provisioner) readCert(name string) (*x509.Certificate, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode %s PEM", name)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return cert, nil
}

func (p *Provisioner) writeKey(name string, key *rsa.PrivateKey) error {
	return p.writePEM(name, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), 0o600)
}

func (p *Provisioner) writePEM(name, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(filepath.Join(p.dir, name), data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
