package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enrol-sync/internal/config"
	"enrol-sync/internal/providers/lms"
	"enrol-sync/internal/providers/tms"
	"enrol-sync/internal/sftpclient"
	syncpkg "enrol-sync/internal/sync"
)

func main() {
	var (
		courseRef = flag.String("course", "", "TMS course reference to sync (empty = all registrations)")
		dryRun    = flag.Bool("dry-run", false, "compute patches without pushing them")
		outDir    = flag.String("out", "", "also write generated patches to this directory")
		upload    = flag.Bool("upload", false, "upload written patches to the SFTP drop (requires -out)")
		pageSize  = flag.Int("page-size", 0, "TMS listing page size (0 = config default)")
		maxPages  = flag.Int("max-pages", 0, "max TMS pages to fetch (0 = all)")
		workers   = flag.Int("workers", 0, "parallel sync workers (0 = config default)")
	)
	flag.Parse()

	rootCtx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	cfg := config.Load()

	start := time.Now()
	defer func() {
		log.Printf("job finished in %s", time.Since(start))
	}()

	if cfg.TMSBasicAuth == "" || cfg.TMSUser == "" || cfg.TMSPass == "" {
		log.Fatal("missing env vars: TMS_BASIC_AUTH / TMS_USERNAME / TMS_PASSWORD")
	}

	tmsClient := tms.New(cfg.TMSBaseURL)
	if err := tmsClient.Authenticate(rootCtx, cfg.TMSBasicAuth, tms.AuthRequest{
		GrantType: "password",
		Username:  cfg.TMSUser,
		Password:  cfg.TMSPass,
	}); err != nil {
		log.Fatalf("auth error: %v", err)
	}

	size := *pageSize
	if size <= 0 {
		size = cfg.SyncPageSize
	}

	baselines, err := syncpkg.FetchRegistrations(rootCtx, tmsClient, *courseRef, size, *maxPages)
	if err != nil {
		log.Fatalf("fetch registrations error: %v", err)
	}
	log.Printf("fetched %d registrations", len(baselines))

	nWorkers := *workers
	if nWorkers <= 0 {
		nWorkers = cfg.SyncMaxWorkers
	}

	runner := &syncpkg.Runner{
		Host:       lms.New(cfg.LMSBaseURL, cfg.LMSToken),
		Patcher:    tmsClient,
		MaxWorkers: nWorkers,
		DryRun:     *dryRun,
	}

	outcomes := runner.Sync(rootCtx, baselines)

	var changed, unchanged, failed int
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			log.Printf("WARN: registration %s (course=%d user=%d): %v", o.RegistrationID, o.CourseID, o.UserID, o.Err)
		case o.Changed:
			changed++
		default:
			unchanged++
		}
	}
	log.Printf("sync done: changed=%d unchanged=%d failed=%d dry-run=%v", changed, unchanged, failed, *dryRun)

	if *outDir == "" {
		return
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", *outDir, err)
	}

	var written []string
	for _, o := range outcomes {
		if !o.Changed || o.Err != nil {
			continue
		}
		name := "registration-" + sanitizeName(o.RegistrationID) + ".xml"
		p := filepath.Join(*outDir, name)
		if err := os.WriteFile(p, []byte(o.Patch), 0o644); err != nil {
			log.Fatalf("write %s: %v", p, err)
		}
		written = append(written, p)
	}
	log.Printf("wrote %d patch files to %s", len(written), *outDir)

	if !*upload {
		return
	}

	upCfg := sftpclient.Config{
		Host:                  cfg.SFTPHost,
		Port:                  cfg.SFTPPort,
		User:                  cfg.SFTPUser,
		Pass:                  cfg.SFTPPass,
		RemoteDir:             cfg.SFTPDir,
		InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
	}

	for _, p := range written {
		upCtx, upCancel := context.WithTimeout(rootCtx, 5*time.Minute)
		err := sftpclient.UploadFile(upCtx, upCfg, p, filepath.Base(p))
		upCancel()
		if err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("uploaded %d patch files to sftp://%s:%d%s", len(written), upCfg.Host, upCfg.Port, upCfg.RemoteDir)
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
