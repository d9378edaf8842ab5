package jobs

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seeds lists items per job name, loaded from a YAML file:
//
//	seo-pages:
//	  - ai writing tools
//	discover-tools:
//	  - ai video editing
type Seeds map[string][]string

// LoadSeeds reads a seed file. A missing path yields empty seeds.
func LoadSeeds(path string) (Seeds, error) {
	if path == "" {
		return Seeds{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Seeds{}, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds Seeds
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if seeds == nil {
		seeds = Seeds{}
	}
	return seeds, nil
}

// Registry maps job names to jobs and resolves their item lists.
type Registry struct {
	jobs  map[string]Job
	seeds Seeds
}

func NewRegistry(seeds Seeds, jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs)), seeds: seeds}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

// Get returns the named job.
func (r *Registry) Get(name string) (Job, bool) {
	j, ok := r.jobs[name]
	return j, ok
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Items picks the items for a run: explicit items first, then the seed file,
// then the job's defaults. Blank and repeated items are removed.
func (r *Registry) Items(name string, explicit []string) ([]string, error) {
	j, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	for _, candidate := range [][]string{explicit, r.seeds[name], j.DefaultItems()} {
		if items := dedupe(candidate); len(items) > 0 {
			return items, nil
		}
	}
	return nil, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
