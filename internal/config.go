package internal

import (
	"strings"
	"time"
)

type Config struct {
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath      string        `env:"BLUGE_FILEPATH,required=true"`
	AttachmentsDir     string        `env:"ATTACHMENTS_DIR,required=true"`
	AttachmentsBaseURL string        `env:"ATTACHMENTS_BASE_URL,required=true"`
	MaxUploadMB        int64         `env:"MAX_UPLOAD_MB,required=true"`
	AllowedImages      string        `env:"ALLOWED_IMAGES,default=png.jpg.jpeg.gif"`
	AllowedFiles       string        `env:"ALLOWED_FILES,default=zip.rar.txt.pdf"`
	PageSize           int           `env:"PAGE_SIZE,default=30"`
	NatsURL            string        `env:"NATS_URL,required=true"`
	GrantSecret        string        `env:"GRANT_SECRET,required=true"`
	GrantTTL           time.Duration `env:"GRANT_TTL,required=true"`
	CensoredWords      string        `env:"CENSORED_WORDS,default="`
	MonitorInterval    time.Duration `env:"MONITOR_INTERVAL,default=30s"`
	LogLevel           string        `env:"LOG_LEVEL,required=true"`
}

// SplitList splits a dot-separated list ("png.jpg.jpeg"). Dots are used
// because commas collide with go-env's default handling. Extension lists
// and the censored-word list both use this format.
func SplitList(list string) []string {
	var out []string
	for _, ext := range strings.Split(list, ".") {
		if ext = strings.TrimSpace(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
