package devtools

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"codequest/internal/grading"
	"codequest/internal/practice"
)

const (
	PackKind               = "problem_pack"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

//go:embed packs/*.yaml
var builtinPacks embed.FS

type Pack struct {
	Kind           string                `yaml:"kind"`
	SchemaVersion  int                   `yaml:"schema_version"`
	PackID         string                `yaml:"pack_id"`
	Name           string                `yaml:"name"`
	Version        string                `yaml:"version"`
	DataStructures []string              `yaml:"data_structures"`
	Problems       []grading.ProblemSpec `yaml:"problems"`

	Source string `yaml:"-"`
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("kind must be %q", PackKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported pack schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(p.PackID) {
		return fmt.Errorf("invalid pack_id %q", p.PackID)
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.DataStructures) == 0 {
		return fmt.Errorf("data_structures is required")
	}
	seen := map[string]struct{}{}
	for i, prob := range p.Problems {
		if err := validateProblem(prob); err != nil {
			return fmt.Errorf("problems[%d]: %w", i, err)
		}
		if _, ok := seen[prob.ID]; ok {
			return fmt.Errorf("duplicate problem id %q", prob.ID)
		}
		seen[prob.ID] = struct{}{}
	}
	return nil
}

func validateProblem(p grading.ProblemSpec) error {
	if !idPattern.MatchString(p.ID) {
		return fmt.Errorf("invalid id %q", p.ID)
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !p.Difficulty.Known() {
		return fmt.Errorf("difficulty must be easy, medium or hard")
	}
	if strings.TrimSpace(p.StarterCode) == "" {
		return fmt.Errorf("starter_code is required")
	}
	if len(p.Examples) == 0 {
		return fmt.Errorf("at least one example is required")
	}
	for _, c := range p.Checks {
		if c.Pattern != "" {
			if _, err := regexp.Compile(c.Pattern); err != nil {
				return fmt.Errorf("check %s: %w", c.ID, err)
			}
		}
	}
	return nil
}

// LoadPacks reads every *.yaml file at the root of fsys.
func LoadPacks(fsys fs.FS) ([]Pack, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	packs := make([]Pack, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || (path.Ext(entry.Name()) != ".yaml" && path.Ext(entry.Name()) != ".yml") {
			continue
		}
		b, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}
		var pack Pack
		if err := yaml.Unmarshal(b, &pack); err != nil {
			return nil, fmt.Errorf("load pack %s: %w", entry.Name(), err)
		}
		for i := range pack.Problems {
			pack.Problems[i].Difficulty = practice.ParseDifficulty(string(pack.Problems[i].Difficulty))
		}
		if err := pack.Validate(); err != nil {
			return nil, fmt.Errorf("load pack %s: %w", entry.Name(), err)
		}
		pack.Source = entry.Name()
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

func LoadDir(dir string) ([]Pack, error) {
	return LoadPacks(os.DirFS(dir))
}

func BuiltinPacks() ([]Pack, error) {
	sub, err := fs.Sub(builtinPacks, "packs")
	if err != nil {
		return nil, err
	}
	return LoadPacks(sub)
}

// Catalog indexes packs by data structure and problem id.
type Catalog struct {
	packs []Pack
	byID  map[string]grading.ProblemSpec
}

func NewCatalog(packs []Pack) (*Catalog, error) {
	c := &Catalog{packs: packs, byID: map[string]grading.ProblemSpec{}}
	for _, p := range packs {
		for _, prob := range p.Problems {
			if _, ok := c.byID[prob.ID]; ok {
				return nil, fmt.Errorf("problem id %q defined in more than one pack", prob.ID)
			}
			c.byID[prob.ID] = prob
		}
	}
	return c, nil
}

func (c *Catalog) Problem(id string) (grading.ProblemSpec, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Size() int { return len(c.byID) }

// Match returns up to limit problems for a data structure and topic. Packs
// are matched by data structure; within a pack, problems tagged with the
// topic come first and the rest of the pack fills the remaining slots.
func (c *Catalog) Match(dataStructure, topic string, limit int) []practice.Problem {
	if limit <= 0 {
		limit = 3
	}
	var tagged, rest []grading.ProblemSpec
	for _, p := range c.packs {
		if !anyFold(p.DataStructures, dataStructure) {
			continue
		}
		for _, prob := range p.Problems {
			if anyFold(prob.Topics, topic) {
				tagged = append(tagged, prob)
			} else {
				rest = append(rest, prob)
			}
		}
	}
	out := make([]practice.Problem, 0, limit)
	for _, prob := range append(tagged, rest...) {
		if len(out) == limit {
			break
		}
		out = append(out, prob.Problem)
	}
	return out
}

func anyFold(values []string, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && (strings.Contains(v, q) || strings.Contains(q, v)) {
			return true
		}
	}
	return false
}
