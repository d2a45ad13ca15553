// Package classifier walks a project tree and groups source files by
// language.
package classifier

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
	"github.com/notname9390/lol/pkg/utils"
)

// Options configures a classifier.
type Options struct {
	// Languages restricts discovery to the listed languages. Empty
	// means classify everything the registry knows.
	Languages []types.Language

	IgnorePatterns  []string
	IncludePatterns []string
}

// Discovery is the result of walking one project tree.
type Discovery struct {
	Root       string
	Groups     []types.LanguageGroup
	TotalFiles int
	Warnings   []string
}

// IsEmpty reports whether the walk found no classifiable files.
func (d *Discovery) IsEmpty() bool {
	return d.TotalFiles == 0
}

// Languages returns the discovered languages in group order.
func (d *Discovery) Languages() []types.Language {
	langs := make([]types.Language, 0, len(d.Groups))
	for _, g := range d.Groups {
		langs = append(langs, g.Language)
	}
	return langs
}

// Classifier discovers and classifies source files under a root.
type Classifier struct {
	registry *toolchain.Registry
	log      logger.Logger
	ignore   *utils.PatternMatcher
	include  *utils.PatternMatcher
	selected map[types.Language]bool
}

// New creates a classifier. Pattern compilation errors surface here so
// a bad pattern fails the run before any filesystem work.
func New(registry *toolchain.Registry, log logger.Logger, opts Options) (*Classifier, error) {
	ignore, err := utils.NewPatternMatcher(opts.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}
	include, err := utils.NewPatternMatcher(opts.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}

	selected := make(map[types.Language]bool, len(opts.Languages))
	for _, lang := range opts.Languages {
		selected[lang] = true
	}

	return &Classifier{
		registry: registry,
		log:      log.WithScope("classifier"),
		ignore:   ignore,
		include:  include,
		selected: selected,
	}, nil
}

// Discover walks the tree rooted at root and returns files grouped by
// language. The walk is deterministic: directory entries are visited
// in name order and symlinks are never followed. Hidden entries are
// skipped. An unreadable subdirectory becomes a warning; an unusable
// root is a DiscoveryError.
func (c *Classifier) Discover(root string) (*Discovery, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Path: root, Err: ErrNotDirectory}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}

	d := &Discovery{Root: abs}
	groups := make(map[types.Language]*types.LanguageGroup)

	if err := c.walk(abs, "", groups, d); err != nil {
		return nil, err
	}

	langs := make([]types.Language, 0, len(groups))
	for lang := range groups {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

	for _, lang := range langs {
		d.Groups = append(d.Groups, *groups[lang])
	}

	c.log.Debug(fmt.Sprintf("classified %d files into %d languages", d.TotalFiles, len(d.Groups)))
	return d, nil
}

func (c *Classifier) walk(dir, rel string, groups map[types.Language]*types.LanguageGroup, d *Discovery) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return &DiscoveryError{Path: dir, Err: err}
		}
		warning := fmt.Sprintf("skipping %s: %v", rel, err)
		d.Warnings = append(d.Warnings, warning)
		c.log.Warn(warning)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		entryRel := name
		if rel != "" {
			entryRel = rel + "/" + name
		}

		if entry.IsDir() {
			if c.pruneDir(entryRel) {
				continue
			}
			if err := c.walk(filepath.Join(dir, name), entryRel, groups, d); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		lang, ok := c.registry.ForExtension(filepath.Ext(name))
		if !ok {
			continue
		}
		if len(c.selected) > 0 && !c.selected[lang] {
			continue
		}
		if c.excluded(entryRel) {
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		group, ok := groups[lang]
		if !ok {
			group = &types.LanguageGroup{Language: lang}
			groups[lang] = group
		}
		group.Add(types.SourceFile{
			Path:     filepath.Join(dir, name),
			RelPath:  entryRel,
			Ext:      strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
			Language: lang,
			Size:     size,
		})
		d.TotalFiles++
	}

	return nil
}

// excluded applies ignore-before-include: an ignored file stays
// excluded unless an include pattern matches it more specifically.
// When include patterns exist they also act as an allowlist for files
// the ignore set never touched.
func (c *Classifier) excluded(rel string) bool {
	ignorePat, ignored := c.ignore.BestMatch(rel)
	includePat, included := c.include.BestMatch(rel)

	if ignored {
		rescued := included && len(includePat) > len(ignorePat)
		return !rescued
	}
	if !c.include.Empty() && !included {
		return true
	}
	return false
}

// pruneDir decides whether a directory can be skipped without
// descending. With include patterns in play the walk must descend into
// ignored directories, since a deeper include match can rescue files
// inside them.
func (c *Classifier) pruneDir(rel string) bool {
	if !c.include.Empty() {
		return false
	}
	_, ignored := c.ignore.BestMatch(rel)
	return ignored
}
