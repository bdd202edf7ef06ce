package hostsfile

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/project-odysseus/odyctl/internal/logger"
)

const (
	// Suffix is the local domain suffix every managed entry ends in.
	Suffix = "odysseus.local"

	// Loopback is the address every managed domain maps to.
	Loopback = "127.0.0.1"

	beginMarker = "# BEGIN odyctl managed block"
	endMarker   = "# END odyctl managed block"

	resolveTimeout = 2 * time.Second
)

// Domains is the full set of local domains the stack uses, in the order
// they are written to the hosts table.
var Domains = []string{
	"odysseus.local",
	"dashboard.odysseus.local",
	"api.odysseus.local",
	"grafana.odysseus.local",
	"prometheus.odysseus.local",
}

// DomainStatus is one entry of a Verify() report.
type DomainStatus struct {
	Domain   string
	Resolved bool   // resolved to the loopback address
	Address  string // first resolved address, when any
}

// Manager owns the marker-bounded block of the system hosts table. Lines
// outside the block are preserved byte for byte.
type Manager struct {
	path string
	eol  string
	log  logger.Logger
}

// NewManager builds a manager for the given platform's hosts table.
func NewManager(p Platform, log logger.Logger) *Manager {
	return &Manager{path: p.HostsPath(), eol: p.EOL(), log: log}
}

// Setup removes every stale entry ending in the managed suffix (marker-bounded
// or not), then appends the full domain set as a fresh marker-bounded block.
// Running it twice yields the same final content.
func (m *Manager) Setup() error {
	lines, err := m.read()
	if err != nil {
		return err
	}

	kept := stripManaged(lines)

	cr := strings.TrimSuffix(m.eol, "\n")
	block := make([]string, 0, len(Domains)+2)
	block = append(block, beginMarker+cr)
	for _, domain := range Domains {
		block = append(block, fmt.Sprintf("%s\t%s%s", Loopback, domain, cr))
	}
	block = append(block, endMarker+cr)

	m.log.Info("writing local domains to hosts table",
		logger.String("path", m.path),
		logger.Int("domains", len(Domains)))
	return m.write(append(kept, block...))
}

// Remove deletes only the marker-bounded block. Entries someone added by
// hand outside the markers are left alone.
func (m *Manager) Remove() error {
	lines, err := m.read()
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		switch {
		case trimmed == beginMarker:
			inBlock = true
		case trimmed == endMarker:
			inBlock = false
		case !inBlock:
			kept = append(kept, line)
		}
	}

	m.log.Info("removed managed block from hosts table",
		logger.String("path", m.path))
	return m.write(kept)
}

// Verify resolves every managed domain and reports whether it maps to
// loopback. Purely observational.
func (m *Manager) Verify(ctx context.Context) []DomainStatus {
	statuses := make([]DomainStatus, 0, len(Domains))
	for _, domain := range Domains {
		rctx, cancel := context.WithTimeout(ctx, resolveTimeout)
		addrs, err := net.DefaultResolver.LookupHost(rctx, domain)
		cancel()

		status := DomainStatus{Domain: domain}
		if err == nil && len(addrs) > 0 {
			status.Address = addrs[0]
			for _, addr := range addrs {
				if ip := net.ParseIP(addr); ip != nil && ip.IsLoopback() {
					status.Resolved = true
					break
				}
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// CheckWritable is the pre-flight privilege gate. Mutating the hosts table
// needs elevation; surfacing that before any read/modify/write keeps the
// failure clean.
func (m *Manager) CheckWritable() error {
	f, err := os.OpenFile(m.path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("no write access to %s: run with elevated privileges (sudo): %w", m.path, err)
		}
		return fmt.Errorf("cannot open hosts table %s: %w", m.path, err)
	}
	return f.Close()
}

// stripManaged drops the marker-bounded block and any loose line whose
// domain column ends in the managed suffix. Everything else is kept as-is.
func stripManaged(lines []string) []string {
	kept := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		switch {
		case trimmed == beginMarker:
			inBlock = true
			continue
		case trimmed == endMarker:
			inBlock = false
			continue
		case inBlock:
			continue
		}
		if ownsLine(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// ownsLine reports whether a non-comment hosts line maps a domain under the
// managed suffix.
func ownsLine(line string) bool {
	content := line
	if idx := strings.Index(content, "#"); idx >= 0 {
		content = content[:idx]
	}
	fields := strings.Fields(content)
	if len(fields) < 2 {
		return false
	}
	for _, domain := range fields[1:] {
		if domain == Suffix || strings.HasSuffix(domain, "."+Suffix) {
			return true
		}
	}
	return false
}

func (m *Manager) read() ([]string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts table %s: %w", m.path, err)
	}
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

func (m *Manager) write(lines []string) error {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(m.path, []byte(content), 0o644); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("no write access to %s: run with elevated privileges (sudo): %w", m.path, err)
		}
		return fmt.Errorf("failed to write hosts table %s: %w", m.path, err)
	}
	return nil
}
