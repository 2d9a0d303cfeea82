package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadmatch/internal/dataset"
)

// loadPair reads the sheet and CRM exports concurrently. An empty crmPath
// skips the CRM export.
func loadPair(ctx context.Context, sheetPath, crmPath string, opts dataset.LoadOptions) (*dataset.Dataset, *dataset.Dataset, error) {
	var sheet, crm *dataset.Dataset

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := loadOne(gCtx, "sheet", sheetPath, opts)
		sheet = d
		return err
	})
	if crmPath != "" {
		g.Go(func() error {
			d, err := loadOne(gCtx, "crm", crmPath, opts)
			crm = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sheet, crm, nil
}

func loadOne(ctx context.Context, role, path string, opts dataset.LoadOptions) (*dataset.Dataset, error) {
	d, err := dataset.Load(ctx, path, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s export", role)
	}

	sum, err := fingerprint(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s export", role)
	}
	zap.L().Debug("dataset loaded",
		zap.String("role", role),
		zap.String("file", d.Name),
		zap.String("xxh3", sum),
		zap.Int("rows", d.Len()),
		zap.Int("columns", len(d.ValidHeaders())),
	)
	return d, nil
}

// fingerprint returns the xxh3 hash of the file at path, so that log lines
// identify exactly which export a run read.
func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrap(err, "fingerprint: open")
	}
	defer f.Close() //nolint:errcheck

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrap(err, "fingerprint: read")
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// resolveHeader returns configured when it is a header of d, then the first
// header equal to it ignoring case, then the first header found by pattern.
// The second result is false when none exists.
func resolveHeader(d *dataset.Dataset, configured string) (string, bool) {
	if configured == "" {
		return "", false
	}
	if d.HasColumn(configured) {
		return configured, true
	}
	want := strings.TrimSpace(configured)
	for _, h := range d.ValidHeaders() {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return h, true
		}
	}
	return dataset.FindColumnByPattern(d.ValidHeaders(), []string{configured})
}
