package toolchain

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/notname9390/lol/pkg/types"
)

const probeTimeout = 5 * time.Second

// Availability is the result of probing one toolchain on the local
// system.
type Availability struct {
	Language types.Language `json:"language"`
	Name     string         `json:"name"`
	Command  string         `json:"command"`

	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Probe checks whether the spec's executable is on PATH and, when it
// is, runs the version probe to capture a banner line. A tool counts as
// available as soon as it can be spawned; a non-zero probe exit does
// not disqualify it, since several compilers print their version to
// stderr or exit non-zero on --help.
func Probe(ctx context.Context, spec Spec) Availability {
	avail := Availability{
		Language: spec.Language,
		Name:     spec.Name,
		Command:  spec.Executable,
	}

	path, err := exec.LookPath(spec.Executable)
	if err != nil {
		avail.Reason = "not found on PATH"
		return avail
	}
	avail.Path = path

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(probeCtx, path, spec.ProbeArgs...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		avail.Reason = err.Error()
		return avail
	}
	_ = cmd.Wait()

	avail.Available = true
	avail.Version = firstLine(output.String())
	return avail
}

// ProbeAll probes every given language known to the registry and
// returns the results in the order requested.
func ProbeAll(ctx context.Context, registry *Registry, langs []types.Language) []Availability {
	results := make([]Availability, 0, len(langs))
	for _, lang := range langs {
		spec, err := registry.SpecFor(lang)
		if err != nil {
			continue
		}
		results = append(results, Probe(ctx, spec))
	}
	return results
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
