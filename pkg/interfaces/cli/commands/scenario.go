package commands

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/vsinha/csdm/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/csdm/pkg/infrastructure/repositories/memory"
)

// loadRepository reads the scenario tables from dir, or the built-in case
// study when dir is empty
func loadRepository(dir string) (*memory.ScenarioRepository, error) {
	var fsys fs.FS
	if dir == "" {
		fsys = csv.DefaultScenarioFS()
	} else {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("scenario directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("scenario path %s is not a directory", dir)
		}
		fsys = os.DirFS(dir)
	}

	scenario, err := csv.NewLoader(fsys).LoadScenario()
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}

	repo := memory.NewScenarioRepository()
	if err := repo.LoadScenario(scenario); err != nil {
		return nil, fmt.Errorf("failed to load scenario into repository: %w", err)
	}
	return repo, nil
}
