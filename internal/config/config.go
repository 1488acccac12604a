package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Training-management system (registration API)
	TMSBaseURL   string
	TMSBasicAuth string
	TMSUser      string
	TMSPass      string

	// Host LMS web services
	LMSBaseURL string
	LMSToken   string

	// Sync behavior
	SyncMaxWorkers int
	SyncPageSize   int

	// SFTP drop for file-based patch delivery
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
}

func Load() Config {
	return Config{
		TMSBaseURL:   getenv("TMS_BASE_URL", "https://api.trainingmanager.example.com"),
		TMSBasicAuth: os.Getenv("TMS_BASIC_AUTH"),
		TMSUser:      os.Getenv("TMS_USERNAME"),
		TMSPass:      os.Getenv("TMS_PASSWORD"),

		LMSBaseURL: getenv("LMS_BASE_URL", "http://localhost:8080"),
		LMSToken:   os.Getenv("LMS_TOKEN"),

		SyncMaxWorkers: getenvInt("SYNC_MAX_WORKERS", 4),
		SyncPageSize:   getenvInt("SYNC_PAGE_SIZE", 200),

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
