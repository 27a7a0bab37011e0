// Package server implements the session-scoped file-intake HTTP service:
// session creation, upload validation and persistence, best-effort virus
// scanning, notification and object-storage mirroring.
package server
