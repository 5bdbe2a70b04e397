package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"idlemine.ai/internal/persistence/offsite"
)

// buildOffsiteMirror returns nil unless IM_OFFSITE_MIRROR is set.
func buildOffsiteMirror(dataDir string, logger *log.Logger) (*offsite.Mirror, error) {
	if !envBool("IM_OFFSITE_MIRROR", false) {
		return nil, nil
	}
	cfg := offsite.ClientConfig{
		Endpoint:        strings.TrimSpace(os.Getenv("IM_OFFSITE_ENDPOINT")),
		Bucket:          strings.TrimSpace(os.Getenv("IM_OFFSITE_BUCKET")),
		Region:          strings.TrimSpace(os.Getenv("IM_OFFSITE_REGION")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("IM_OFFSITE_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("IM_OFFSITE_SECRET_ACCESS_KEY")),
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("IM_OFFSITE_MIRROR=true but IM_OFFSITE_ENDPOINT/IM_OFFSITE_BUCKET/IM_OFFSITE_ACCESS_KEY_ID/IM_OFFSITE_SECRET_ACCESS_KEY are not fully set")
	}
	client, err := offsite.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return offsite.NewMirror(client, offsite.MirrorConfig{
		DataDir: dataDir,
		Prefix:  strings.TrimSpace(os.Getenv("IM_OFFSITE_PREFIX")),
		Workers: envInt("IM_OFFSITE_UPLOAD_WORKERS", 2),
		Logger:  logger,
	}), nil
}

func writeOffsiteMetrics(rw http.ResponseWriter, m *offsite.Mirror) {
	if m == nil {
		return
	}
	s := m.Stats()
	fmt.Fprintf(rw, "# HELP idlemine_offsite_queue_depth Files waiting for upload.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_offsite_queue_depth gauge\n")
	fmt.Fprintf(rw, "idlemine_offsite_queue_depth %d\n", s.QueueDepth)
	fmt.Fprintf(rw, "# HELP idlemine_offsite_uploads_total Offsite uploads by result.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_offsite_uploads_total counter\n")
	fmt.Fprintf(rw, "idlemine_offsite_uploads_total{result=%q} %d\n", "ok", s.UploadSuccessTotal)
	fmt.Fprintf(rw, "idlemine_offsite_uploads_total{result=%q} %d\n", "fail", s.UploadFailTotal)
	fmt.Fprintf(rw, "idlemine_offsite_uploads_total{result=%q} %d\n", "dropped", s.DroppedTotal)
	fmt.Fprintf(rw, "# HELP idlemine_offsite_last_success_unix Time of the last successful upload.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_offsite_last_success_unix gauge\n")
	fmt.Fprintf(rw, "idlemine_offsite_last_success_unix %d\n", s.LastSuccessUnix)
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
