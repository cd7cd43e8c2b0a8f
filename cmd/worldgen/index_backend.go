package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"polyworld.ai/internal/persistence/indexdb"
	"polyworld.ai/internal/sim/tuning"
	"polyworld.ai/internal/sim/worldgen"
)

type passIndex interface {
	worldgen.PassLogger
	Close() error
}

func openPassIndex(dataDir string, disableDB bool, tune tuning.Tuning) (passIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("PW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "worldgen.sqlite"))
		if err != nil {
			return nil, err
		}
		if err := idx.UpsertTuning(tune); err != nil {
			_ = idx.Close()
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported PW_INDEX_BACKEND: %s", backend)
	}
}
