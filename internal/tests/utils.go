package tests

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

func GetProjectRootPath() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	startingPath := ""
	iterations := 0
	for {
		if iterations > 10 {
			panic("Could not find project root path")
		}
		iterations++
		p, err := filepath.Abs(fmt.Sprintf("%s/%s", wd, startingPath))
		if err != nil {
			panic(err)
		}

		match := regexp.MustCompile(`\/rollup-bridge-go([A-Za-z0-9_-]+)?\/?$`)
		if match.MatchString(p) {
			return p
		}
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return p
		}
		startingPath = startingPath + "/.."
	}
}

// ContractPath is where compiled bridge contracts are looked up for deployment tests.
func ContractPath(name string) string {
	return filepath.Join(GetProjectRootPath(), "contracts", name)
}
