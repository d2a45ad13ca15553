// Package toolchain defines the static registry mapping languages to
// their native compiler or checker invocations.
package toolchain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/notname9390/lol/pkg/types"
)

// ErrUnknownLanguage is returned when a language has no registry entry.
var ErrUnknownLanguage = errors.New("unknown language")

// Spec describes how one language's toolchain is invoked. Specs are
// defined once at process start and never mutated.
type Spec struct {
	Language   types.Language
	Name       string
	Extensions []string
	Executable string
	BaseArgs   []string
	ProbeArgs  []string
	Mode       types.InvocationMode
	Invocation types.InvocationStyle
}

// Registry is the read-only language lookup table.
type Registry struct {
	specs  map[types.Language]Spec
	byExt  map[string]types.Language
	sorted []types.Language
}

// NewRegistry builds the registry from the built-in spec table.
func NewRegistry() *Registry {
	r := &Registry{
		specs: make(map[types.Language]Spec),
		byExt: make(map[string]types.Language),
	}

	for _, spec := range specTable() {
		r.specs[spec.Language] = spec
		for _, ext := range spec.Extensions {
			r.byExt[ext] = spec.Language
		}
		r.sorted = append(r.sorted, spec.Language)
	}

	sort.Slice(r.sorted, func(i, j int) bool {
		return r.sorted[i] < r.sorted[j]
	})

	return r
}

// SpecFor returns the toolchain spec for a language.
func (r *Registry) SpecFor(lang types.Language) (Spec, error) {
	spec, ok := r.specs[lang]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	return spec, nil
}

// Known reports whether the language is in the registry.
func (r *Registry) Known(lang types.Language) bool {
	_, ok := r.specs[lang]
	return ok
}

// ForExtension maps a file extension (with or without a leading dot,
// any case) to its language.
func (r *Registry) ForExtension(ext string) (types.Language, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	lang, ok := r.byExt[ext]
	return lang, ok
}

// Languages returns every registered language in sorted order.
func (r *Registry) Languages() []types.Language {
	out := make([]types.Language, len(r.sorted))
	copy(out, r.sorted)
	return out
}

// specTable holds the supported toolchains. Group invocation is declared
// only where the tool accepts several files in one command line; check
// mode marks syntax-only tools that produce no artifact.
func specTable() []Spec {
	return []Spec{
		{
			Language:   types.LanguageC,
			Name:       "C",
			Extensions: []string{"c", "h"},
			Executable: "gcc",
			BaseArgs:   []string{"-c"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationGroup,
		},
		{
			Language:   types.LanguageCpp,
			Name:       "C++",
			Extensions: []string{"cpp", "cc", "cxx", "c++", "hpp", "hxx", "h++"},
			Executable: "g++",
			BaseArgs:   []string{"-c"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationGroup,
		},
		{
			Language:   types.LanguagePython,
			Name:       "Python",
			Extensions: []string{"py", "pyw", "pyx", "pxd"},
			Executable: "python3",
			BaseArgs:   []string{"-m", "py_compile"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeCheck,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageJava,
			Name:       "Java",
			Extensions: []string{"java"},
			Executable: "javac",
			BaseArgs:   nil,
			ProbeArgs:  []string{"-version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationGroup,
		},
		{
			Language:   types.LanguageRust,
			Name:       "Rust",
			Extensions: []string{"rs"},
			Executable: "rustc",
			BaseArgs:   nil,
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageGo,
			Name:       "Go",
			Extensions: []string{"go"},
			Executable: "go",
			BaseArgs:   []string{"build"},
			ProbeArgs:  []string{"version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationGroup,
		},
		{
			Language:   types.LanguageJavaScript,
			Name:       "JavaScript",
			Extensions: []string{"js", "mjs", "cjs"},
			Executable: "node",
			BaseArgs:   []string{"--check"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeCheck,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageTypeScript,
			Name:       "TypeScript",
			Extensions: []string{"ts", "tsx"},
			Executable: "tsc",
			BaseArgs:   []string{"--noEmit"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeCheck,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageCSharp,
			Name:       "C#",
			Extensions: []string{"cs"},
			Executable: "dotnet",
			BaseArgs:   []string{"build"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageSwift,
			Name:       "Swift",
			Extensions: []string{"swift"},
			Executable: "swiftc",
			BaseArgs:   nil,
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageKotlin,
			Name:       "Kotlin",
			Extensions: []string{"kt", "kts"},
			Executable: "kotlinc",
			BaseArgs:   nil,
			ProbeArgs:  []string{"-version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageScala,
			Name:       "Scala",
			Extensions: []string{"scala", "sc"},
			Executable: "scalac",
			BaseArgs:   nil,
			ProbeArgs:  []string{"-version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageHaskell,
			Name:       "Haskell",
			Extensions: []string{"hs", "lhs"},
			Executable: "ghc",
			BaseArgs:   []string{"-c"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageFSharp,
			Name:       "F#",
			Extensions: []string{"fs", "fsx", "fsi"},
			Executable: "fsharpc",
			BaseArgs:   nil,
			ProbeArgs:  []string{"--help"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageOCaml,
			Name:       "OCaml",
			Extensions: []string{"ml", "mli"},
			Executable: "ocamlc",
			BaseArgs:   []string{"-c"},
			ProbeArgs:  []string{"-version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageNim,
			Name:       "Nim",
			Extensions: []string{"nim"},
			Executable: "nim",
			BaseArgs:   []string{"compile"},
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageZig,
			Name:       "Zig",
			Extensions: []string{"zig"},
			Executable: "zig",
			BaseArgs:   []string{"build-exe"},
			ProbeArgs:  []string{"version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageV,
			Name:       "V",
			Extensions: []string{"v"},
			Executable: "v",
			BaseArgs:   nil,
			ProbeArgs:  []string{"version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageOdin,
			Name:       "Odin",
			Extensions: []string{"odin"},
			Executable: "odin",
			BaseArgs:   []string{"build"},
			ProbeArgs:  []string{"version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
		{
			Language:   types.LanguageJai,
			Name:       "Jai",
			Extensions: []string{"jai"},
			Executable: "jai",
			BaseArgs:   nil,
			ProbeArgs:  []string{"--version"},
			Mode:       types.ModeBuild,
			Invocation: types.InvocationPerFile,
		},
	}
}
