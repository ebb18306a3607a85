package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"a4blend/config"
	"a4blend/services"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// RunScan builds the catalog once and writes it to out as JSON.
// Progress goes to stderr.
func RunScan(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	builder := NewCatalogBuilder(cfg, logger, services.NewLibrary(cfg.LibraryLocation))

	// The total is only known once enumeration is done
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	catalog, err := builder.Build(ctx, func(done, total int, current string) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Scanning library"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Add(1)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.LibraryLocation, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(catalog)
}
