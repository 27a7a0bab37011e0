package server

import (
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"time"
)

// ScanVerdict is the outcome of an antivirus check on a stored file.
type ScanVerdict int

const (
	// ScanClean means the scanner ran and found nothing.
	ScanClean ScanVerdict = iota
	// ScanInfected means the scanner matched a signature.
	ScanInfected
	// ScanUnavailable means no scanner is installed on the host. Callers
	// treat this like ScanClean; the upload proceeds unscanned.
	ScanUnavailable
	// ScanError means a scanner is installed but the invocation failed or
	// timed out. Non-fatal: callers proceed, but log distinctly.
	ScanError
)

func (v ScanVerdict) String() string {
	switch v {
	case ScanClean:
		return "clean"
	case ScanInfected:
		return "infected"
	case ScanUnavailable:
		return "unavailable"
	case ScanError:
		return "error"
	default:
		return "unknown"
	}
}

// Scanner checks a file on disk for malware.
type Scanner interface {
	Scan(ctx context.Context, path string) ScanVerdict
}

// ClamAVScanner shells out to clamscan. The executable is probed on every
// scan so a scanner installed after startup is picked up without a restart.
type ClamAVScanner struct {
	// Candidates is the ordered list of executables to probe; the first
	// one that answers a version check wins.
	Candidates []string

	ProbeTimeout time.Duration
	ScanTimeout  time.Duration
}

// defaultClamscanCandidates mirrors the probe order used in production
// deployments: PATH lookup first, then the usual absolute location.
var defaultClamscanCandidates = []string{"clamscan", "/usr/bin/clamscan"}

// NewClamAVScanner builds the production scanner. CLAMSCAN_PATH overrides
// the probe list with a single explicit binary.
func NewClamAVScanner(scanTimeout time.Duration) *ClamAVScanner {
	candidates := defaultClamscanCandidates
	if p := os.Getenv("CLAMSCAN_PATH"); p != "" {
		candidates = []string{p}
	}
	return &ClamAVScanner{
		Candidates:   candidates,
		ProbeTimeout: 10 * time.Second,
		ScanTimeout:  scanTimeout,
	}
}

// locate returns the first candidate that responds to --version.
func (c *ClamAVScanner) locate(ctx context.Context) (string, bool) {
	for _, bin := range c.Candidates {
		probeCtx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
		err := exec.CommandContext(probeCtx, bin, "--version").Run()
		cancel()
		if err == nil {
			return bin, true
		}
	}
	return "", false
}

// Scan runs clamscan against path. Exit status 1 is clamscan's signature
// match; any other failure, including a timeout, is reported as ScanError
// and must not fail the upload.
func (c *ClamAVScanner) Scan(ctx context.Context, path string) ScanVerdict {
	bin, ok := c.locate(ctx)
	if !ok {
		return ScanUnavailable
	}

	scanCtx, cancel := context.WithTimeout(ctx, c.ScanTimeout)
	defer cancel()

	err := exec.CommandContext(scanCtx, bin, path).Run()
	if err == nil {
		return ScanClean
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return ScanInfected
	}

	log.Printf("service=scan msg=%q bin=%s path=%s err=%v", "scan_failed", bin, path, err)
	return ScanError
}
