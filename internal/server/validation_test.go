package server

import "testing"

func TestMimeAllowed(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		want     bool
	}{
		{"pdf", "application/pdf", true},
		{"png", "image/png", true},
		{"svg", "image/svg+xml", true},
		{"webm video", "video/webm", true},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"zip", "application/zip", true},
		{"gzip", "application/gzip", true},
		{"plain text", "text/plain", true},

		{"executable", "application/x-msdownload", false},
		{"octet stream", "application/octet-stream", false},
		{"html", "text/html", false},
		{"json", "application/json", false},
		{"empty", "", false},
		{"case sensitivity", "IMAGE/PNG", false},
		{"with parameters", "text/plain; charset=utf-8", false},
		{"leading space", " application/pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mimeAllowed(tt.mimeType); got != tt.want {
				t.Errorf("mimeAllowed(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"unix path", "../../etc/passwd", "passwd"},
		{"windows path", `..\..\boot.ini`, "boot.ini"},
		{"nul byte", "a\x00b.txt", "ab.txt"},
		{"trailing dots", "file.txt...", "file.txt"},
		{"empty", "", "unnamed"},
		{"only dots", "...", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.in); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename_Long(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	got := sanitizeFilename(long + ".txt")
	if len(got) > 255 {
		t.Errorf("Expected sanitized name capped at 255 chars, got %d", len(got))
	}
}
