package cmd

import (
	"fmt"

	"repochat/internal/tui"
)

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return tui.Run(newAnswerer(cfg, st, cfg.TopK))
}
