package config

import (
	"encoding/json"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

type Detection struct {
	Manager string
	Install string
	Run     string
	Port    int
}

// Detect inspects the generated project tree and returns the package
// manager commands it calls for. Lockfiles decide the manager; the
// package.json scripts decide the run script.
func Detect(t *tree.Tree) Detection {
	checks := []struct {
		file    string
		manager string
		install string
		run     string
	}{
		{"pnpm-lock.yaml", "pnpm", "pnpm install", "pnpm run"},
		{"yarn.lock", "yarn", "yarn install", "yarn run"},
		{"bun.lockb", "bun", "bun install", "bun run"},
		{"bun.lock", "bun", "bun install", "bun run"},
		{"package-lock.json", "npm", "npm install", "npm run"},
		{"package.json", "npm", "npm install", "npm run"},
	}

	det := Detection{Manager: "npm", Install: "npm install", Run: "npm run dev", Port: 5173}
	for _, c := range checks {
		if _, ok := t.Lookup("/" + c.file); ok {
			det.Manager = c.manager
			det.Install = c.install
			det.Run = c.run + " " + runScript(t)
			break
		}
	}
	if isNext(t) {
		det.Port = 3000
	}
	return det
}

type packageJSON struct {
	Scripts      map[string]string `json:"scripts"`
	Dependencies map[string]string `json:"dependencies"`
}

func readPackageJSON(t *tree.Tree) (packageJSON, bool) {
	var pkg packageJSON
	n, ok := t.Lookup("/package.json")
	if !ok || n.IsDir() {
		return pkg, false
	}
	if err := json.Unmarshal([]byte(n.Content), &pkg); err != nil {
		return pkg, false
	}
	return pkg, true
}

// runScript picks the dev script: dev, then start, then serve.
func runScript(t *tree.Tree) string {
	pkg, ok := readPackageJSON(t)
	if ok {
		for _, name := range []string{"dev", "start", "serve"} {
			if _, ok := pkg.Scripts[name]; ok {
				return name
			}
		}
	}
	return "dev"
}

func isNext(t *tree.Tree) bool {
	pkg, ok := readPackageJSON(t)
	if !ok {
		return false
	}
	_, ok = pkg.Dependencies["next"]
	return ok
}

// Apply fills unset sandbox commands in cfg from det.
func (c *Config) Apply(det Detection) {
	if c.Sandbox.Install == "" {
		c.Sandbox.Install = det.Install
	}
	if c.Sandbox.Run == "" {
		c.Sandbox.Run = det.Run
	}
	if len(c.Sandbox.Ports) == 0 && det.Port != 0 {
		c.Sandbox.Ports = []int{det.Port}
	}
}
