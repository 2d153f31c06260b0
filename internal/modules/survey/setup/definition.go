package setup

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a survey.
type Definition struct {
	Task      TaskDef       `yaml:"task"`
	Axes      []AxisDef     `yaml:"axes"`
	Questions []QuestionDef `yaml:"questions"`
	Clusters  []ClusterDef  `yaml:"clusters"`
}

type TaskDef struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Network         string `yaml:"network"`
	ContractAddress string `yaml:"contract_address"`
}

type AxisDef struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type QuestionDef struct {
	Text          string   `yaml:"text"`
	ImagePath     string   `yaml:"image_path"`
	ImageIPFSHash string   `yaml:"image_ipfs_hash"`
	Categories    []string `yaml:"categories"`
}

type ClusterDef struct {
	Name          string `yaml:"name"`
	ImageIPFSHash string `yaml:"image_ipfs_hash"`
}

func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey definition: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse survey definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Task.Title) == "" {
		return fmt.Errorf("task.title is required")
	}
	if strings.TrimSpace(d.Task.Network) == "" || strings.TrimSpace(d.Task.ContractAddress) == "" {
		return fmt.Errorf("task.network and task.contract_address are required")
	}
	if len(d.Axes) == 0 {
		return fmt.Errorf("at least one axis is required")
	}

	known := map[string]int{}
	for i, ax := range d.Axes {
		if ax.Left == "" || ax.Right == "" {
			return fmt.Errorf("axis %d: both sides need a name", i+1)
		}
		if ax.Left == ax.Right {
			return fmt.Errorf("axis %d: %q cannot oppose itself", i+1, ax.Left)
		}
		for _, name := range []string{ax.Left, ax.Right} {
			if _, dup := known[name]; dup {
				return fmt.Errorf("category %q appears on more than one axis", name)
			}
			known[name] = i
		}
	}

	if len(d.Questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d: text is required", i+1)
		}
		if len(q.Categories) != 2 {
			return fmt.Errorf("question %d: exactly two categories required, got %d", i+1, len(q.Categories))
		}
		if q.Categories[0] == q.Categories[1] {
			return fmt.Errorf("question %d: categories must differ", i+1)
		}
		for _, c := range q.Categories {
			if _, ok := known[c]; !ok {
				return fmt.Errorf("question %d: unknown category %q", i+1, c)
			}
		}
	}

	want := ClusterNames(d.Axes)
	got := make([]string, 0, len(d.Clusters))
	seen := map[string]bool{}
	for _, c := range d.Clusters {
		if seen[c.Name] {
			return fmt.Errorf("duplicate cluster %q", c.Name)
		}
		seen[c.Name] = true
		got = append(got, c.Name)
	}
	sort.Strings(got)
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	if strings.Join(got, "|") != strings.Join(sorted, "|") {
		return fmt.Errorf("clusters must be exactly %v, got %v", want, got)
	}
	return nil
}

// ClusterNames lists every combination of axis winners, in axis order, as the
// scoring engine names them.
func ClusterNames(axes []AxisDef) []string {
	names := []string{""}
	for _, ax := range axes {
		next := make([]string, 0, len(names)*2)
		for _, prefix := range names {
			for _, side := range []string{ax.Left, ax.Right} {
				if prefix == "" {
					next = append(next, side)
				} else {
					next = append(next, prefix+" "+side)
				}
			}
		}
		names = next
	}
	return names
}
