package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driving"
)

// pathKeys are source configuration keys holding file paths. Relative values
// are resolved against the run file's directory.
var pathKeys = []string{"file_path", "folder_path"}

// RunFile describes one conversion: the output target, the ordered list of
// data interfaces with their source configuration and options, and the
// metadata override.
type RunFile struct {
	Output     Output           `toml:"output" yaml:"output"`
	Interfaces []InterfaceEntry `toml:"interfaces" yaml:"interfaces"`
	Metadata   map[string]any   `toml:"metadata,omitempty" yaml:"metadata,omitempty"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Output names the target document.
type Output struct {
	Path string `toml:"path,omitempty" yaml:"path,omitempty"`
	Mode string `toml:"mode,omitempty" yaml:"mode,omitempty"`
}

// InterfaceEntry binds a plugin name to a kind and its configuration.
type InterfaceEntry struct {
	Name    string         `toml:"name" yaml:"name"`
	Kind    string         `toml:"kind" yaml:"kind"`
	Source  map[string]any `toml:"source" yaml:"source"`
	Options map[string]any `toml:"options,omitempty" yaml:"options,omitempty"`
}

// LoadRunFile reads a TOML (.toml) or YAML (.yaml, .yml) run file.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf RunFile
	switch format(path) {
	case "toml":
		if err := toml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rf); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported run file extension", domain.ErrInvalidInput, path)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	rf.dir = abs

	if err := rf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rf, nil
}

// Save writes the run file as TOML or YAML, chosen by the path extension.
func (rf *RunFile) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "toml":
		data, err = toml.Marshal(rf)
	case "yaml":
		data, err = yaml.Marshal(rf)
	default:
		return fmt.Errorf("%w: %s: unsupported run file extension", domain.ErrInvalidInput, path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks interface names and kinds.
func (rf *RunFile) Validate() error {
	if len(rf.Interfaces) == 0 {
		return fmt.Errorf("%w: no interfaces", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(rf.Interfaces))
	for i, entry := range rf.Interfaces {
		if entry.Name == "" {
			return fmt.Errorf("%w: interface %d has no name", domain.ErrInvalidInput, i+1)
		}
		if entry.Kind == "" {
			return fmt.Errorf("%w: interface %q has no kind", domain.ErrInvalidInput, entry.Name)
		}
		if seen[entry.Name] {
			return fmt.Errorf("%w: interface name %q used twice", domain.ErrInvalidInput, entry.Name)
		}
		seen[entry.Name] = true
	}
	if rf.Output.Mode != "" {
		if _, err := domain.ParseMode(rf.Output.Mode); err != nil {
			return err
		}
	}
	return nil
}

// SourceData returns the source configuration in file order. Relative file
// paths are resolved against the run file's directory.
func (rf *RunFile) SourceData() domain.SourceData {
	sd := make(domain.SourceData, 0, len(rf.Interfaces))
	for _, entry := range rf.Interfaces {
		sd = append(sd, domain.SourceEntry{Name: entry.Name, Config: rf.resolvePaths(entry.Source)})
	}
	return sd
}

// Bindings returns the name to kind bindings in file order.
func (rf *RunFile) Bindings() []driving.Binding {
	out := make([]driving.Binding, 0, len(rf.Interfaces))
	for _, entry := range rf.Interfaces {
		out = append(out, driving.Binding{Name: entry.Name, Kind: entry.Kind})
	}
	return out
}

// ConversionOptions returns the options of every interface that sets any.
func (rf *RunFile) ConversionOptions() domain.ConversionOptions {
	out := domain.ConversionOptions{}
	for _, entry := range rf.Interfaces {
		if len(entry.Options) > 0 {
			out[entry.Name] = entry.Options
		}
	}
	return out
}

// Override returns the metadata override tree.
func (rf *RunFile) Override() (domain.Metadata, error) {
	return domain.NormaliseMetadata(rf.Metadata)
}

// Target returns the output descriptor. path and mode, when non-empty,
// replace the values of the file.
func (rf *RunFile) Target(path, mode string) (domain.TargetDescriptor, error) {
	if mode == "" {
		mode = rf.Output.Mode
	}
	m, err := domain.ParseMode(mode)
	if err != nil {
		return domain.TargetDescriptor{}, err
	}

	if path == "" {
		path = rf.resolve(rf.Output.Path)
	}
	desc := domain.TargetDescriptor{Path: path, Mode: m}
	if err := desc.Validate(); err != nil {
		return domain.TargetDescriptor{}, err
	}
	return desc, nil
}

// Paths returns every file the run reads: the resolved source file paths.
func (rf *RunFile) Paths() []string {
	var paths []string
	for _, entry := range rf.SourceData() {
		cfg, ok := entry.Config.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range pathKeys {
			if p, ok := cfg[key].(string); ok && p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func (rf *RunFile) resolvePaths(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}
	out := make(map[string]any, len(source))
	for k, v := range source {
		out[k] = v
	}
	for _, key := range pathKeys {
		if p, ok := out[key].(string); ok {
			out[key] = rf.resolve(p)
		}
	}
	return out
}

func (rf *RunFile) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || rf.dir == "" {
		return p
	}
	return filepath.Join(rf.dir, p)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}
