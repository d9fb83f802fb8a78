package tools

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"orlop/internal/config"
	"orlop/internal/paths"
	"orlop/internal/platform"
)

//go:embed tools.yaml
var embeddedCatalog []byte

// Catalog is the ordered, immutable table of managed tools.
type Catalog struct {
	tools   []ToolMetadata
	index   map[string]int
	aliases map[string]string
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
})

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

// LoadCatalog returns the embedded catalog with overrides merged over it.
func LoadCatalog(overrides []config.ToolEntry) (*Catalog, error) {
	base, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	merged, err := base.Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("apply tool overrides: %w", err)
	}
	return merged, nil
}

// ParseCatalog decodes a YAML document with a top-level tools list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Tools []config.ToolEntry `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tool catalog: %w", err)
	}
	return NewCatalog(doc.Tools)
}

// NewCatalog builds a catalog from entries, keeping their order.
func NewCatalog(entries []config.ToolEntry) (*Catalog, error) {
	c := &Catalog{
		index:   make(map[string]int, len(entries)),
		aliases: make(map[string]string),
	}
	for _, entry := range entries {
		meta, err := metadataFromEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := c.index[meta.Name]; dup {
			return nil, fmt.Errorf("tool %q defined twice", meta.Name)
		}
		c.index[meta.Name] = len(c.tools)
		c.tools = append(c.tools, meta)
	}
	if err := c.buildAliases(); err != nil {
		return nil, err
	}
	return c, nil
}

func metadataFromEntry(entry config.ToolEntry) (ToolMetadata, error) {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return ToolMetadata{}, fmt.Errorf("tool entry missing name")
	}
	if strings.TrimSpace(entry.Repo) == "" {
		return ToolMetadata{}, fmt.Errorf("tool %q missing repo", name)
	}
	binary := strings.TrimSpace(entry.Binary)
	if binary == "" {
		binary = name
	}
	meta := ToolMetadata{
		Name:        name,
		Repo:        strings.TrimSpace(entry.Repo),
		Binary:      binary,
		Description: entry.Description,
		Aliases:     append([]string(nil), entry.Aliases...),
		Platforms:   make(map[platform.Key]PlatformConfig, len(entry.Platforms)),
	}
	for key, pe := range entry.Platforms {
		pc, err := platformConfigFromEntry(name, key, pe)
		if err != nil {
			return ToolMetadata{}, err
		}
		meta.Platforms[platform.Key(key)] = pc
	}
	return meta, nil
}

func platformConfigFromEntry(tool, key string, pe config.PlatformEntry) (PlatformConfig, error) {
	if _, err := ParsePattern(pe.Pattern); err != nil {
		return PlatformConfig{}, fmt.Errorf("tool %q platform %s: %w", tool, key, err)
	}
	return PlatformConfig{
		Pattern:     pe.Pattern,
		ExtractPath: pe.ExtractPath,
		NoExtract:   pe.NoExtract,
	}, nil
}

func (c *Catalog) buildAliases() error {
	c.aliases = make(map[string]string)
	claim := func(alias, tool string) error {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			return nil
		}
		if owner, ok := c.aliases[alias]; ok && owner != tool {
			return fmt.Errorf("alias %q claimed by both %s and %s", alias, owner, tool)
		}
		c.aliases[alias] = tool
		return nil
	}
	for _, t := range c.tools {
		if err := claim(t.Name, t.Name); err != nil {
			return err
		}
	}
	for _, t := range c.tools {
		for _, alias := range append([]string{t.Binary}, t.Aliases...) {
			if _, isTool := c.index[strings.ToLower(alias)]; isTool && !strings.EqualFold(alias, t.Name) {
				continue
			}
			if err := claim(alias, t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Merge returns a new catalog with overrides applied by tool name. Known tools
// keep fields the override leaves empty, and platform entries are replaced key
// by key. Unknown names are appended and must be complete.
func (c *Catalog) Merge(overrides []config.ToolEntry) (*Catalog, error) {
	if len(overrides) == 0 {
		return c, nil
	}
	merged := &Catalog{index: make(map[string]int, len(c.tools))}
	for _, t := range c.tools {
		merged.index[t.Name] = len(merged.tools)
		merged.tools = append(merged.tools, cloneMetadata(t))
	}

	for _, o := range overrides {
		name := strings.TrimSpace(o.Name)
		idx, known := merged.index[name]
		if !known {
			meta, err := metadataFromEntry(o)
			if err != nil {
				return nil, fmt.Errorf("override: %w", err)
			}
			merged.index[meta.Name] = len(merged.tools)
			merged.tools = append(merged.tools, meta)
			continue
		}

		t := &merged.tools[idx]
		if v := strings.TrimSpace(o.Repo); v != "" {
			t.Repo = v
		}
		if v := strings.TrimSpace(o.Binary); v != "" {
			t.Binary = v
		}
		if o.Description != "" {
			t.Description = o.Description
		}
		if len(o.Aliases) > 0 {
			t.Aliases = append([]string(nil), o.Aliases...)
		}
		for key, pe := range o.Platforms {
			pc, err := platformConfigFromEntry(name, key, pe)
			if err != nil {
				return nil, fmt.Errorf("override: %w", err)
			}
			t.Platforms[platform.Key(key)] = pc
		}
	}

	if err := merged.buildAliases(); err != nil {
		return nil, err
	}
	return merged, nil
}

func cloneMetadata(t ToolMetadata) ToolMetadata {
	out := t
	out.Aliases = append([]string(nil), t.Aliases...)
	out.Platforms = make(map[platform.Key]PlatformConfig, len(t.Platforms))
	for k, v := range t.Platforms {
		out.Platforms[k] = v
	}
	return out
}

// Tools returns the catalog entries in order.
func (c *Catalog) Tools() []ToolMetadata {
	out := make([]ToolMetadata, len(c.tools))
	copy(out, c.tools)
	return out
}

// KnownTools returns the managed tool names in catalog order.
func (c *Catalog) KnownTools() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	return names
}

// Definition returns the metadata for an exact tool name.
func (c *Catalog) Definition(name string) (ToolMetadata, bool) {
	idx, ok := c.index[name]
	if !ok {
		return ToolMetadata{}, false
	}
	return c.tools[idx], true
}

// Resolve looks a tool up by name, binary name or alias, case-insensitively.
func (c *Catalog) Resolve(nameOrAlias string) (ToolMetadata, bool) {
	tool, ok := c.aliases[strings.ToLower(strings.TrimSpace(nameOrAlias))]
	if !ok {
		return ToolMetadata{}, false
	}
	return c.Definition(tool)
}

// WrapperPrefix marks per-binary wrapper executables such as orlop-rg.
const WrapperPrefix = "orlop-"

// ResolveWrapper maps a wrapper executable name like orlop-rg to its tool.
func (c *Catalog) ResolveWrapper(invoked string) (ToolMetadata, bool) {
	if !strings.HasPrefix(invoked, WrapperPrefix) {
		return ToolMetadata{}, false
	}
	bin := strings.TrimPrefix(invoked, WrapperPrefix)
	for _, t := range c.tools {
		if t.Binary == bin {
			return t, true
		}
	}
	return ToolMetadata{}, false
}

// Aliases returns the alternate names for tool, sorted, excluding the tool
// name itself.
func (c *Catalog) Aliases(tool string) []string {
	var out []string
	for alias, owner := range c.aliases {
		if owner == tool && alias != tool {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// ToolPaths maps every catalog tool to its canonical binary path in layout,
// whether or not it is installed.
func (c *Catalog) ToolPaths(layout paths.Layout) map[string]string {
	out := make(map[string]string, len(c.tools))
	for _, t := range c.tools {
		out[t.Name] = layout.ToolPath(t.Name, t.Binary)
	}
	return out
}
