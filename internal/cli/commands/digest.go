package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"etlrun/internal/cache"
	"etlrun/internal/digest"
	e "etlrun/pkg/errors"
	"etlrun/pkg/terminal"
)

// digestReport is the --json shape of the digest command.
type digestReport struct {
	Manifest *digest.Manifest `json:"manifest"`
	Stamp    *cache.Stamp     `json:"stamp,omitempty"`
	Status   string           `json:"status"`
}

// Stamp comparison states.
const (
	stampNone     = "none"
	stampMatch    = "unchanged"
	stampChanged  = "changed"
	stampOtherAlg = "other-algorithm"
)

// Digest prints the requirements manifest digest and whether it matches the
// last successful install.
// Supports flags: --algorithm, --requirements, --json
func Digest(app *App, args []string) error {
	fs := newFlagSet("digest", app.Stderr)
	algo := fs.StringP("algorithm", "a", string(digest.Blake3), "hash algorithm (blake3, sha256)")
	list := fs.BoolP("requirements", "r", false, "list the normalized requirement lines")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	layout, err := app.layout()
	if err != nil {
		return err
	}
	m, err := digest.ManifestDigest(layout.Requirements.Path, digest.Algorithm(*algo))
	if err != nil {
		return e.Wrap(err, e.ErrInvalidUsage, "Failed to calculate digest").
			WithContext("manifest", layout.Requirements.Path)
	}
	st, err := cache.NewStampStore(layout.Base).Load()
	if err != nil {
		return err
	}
	rep := digestReport{Manifest: m, Stamp: st, Status: compareStamp(m, st)}

	if *asJSON {
		enc := json.NewEncoder(app.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	displayDigest(app.Stdout, rep, *list)
	return nil
}

func compareStamp(m *digest.Manifest, st *cache.Stamp) string {
	switch {
	case st == nil:
		return stampNone
	case st.Algorithm != string(m.Algorithm):
		return stampOtherAlg
	case st.ManifestHash == m.Hash:
		return stampMatch
	default:
		return stampChanged
	}
}

func displayDigest(out io.Writer, rep digestReport, list bool) {
	m := rep.Manifest
	fmt.Fprintf(out, "%s Manifest: %s\n", terminal.IconBox, m.Path)
	if m.Hash == digest.NoManifest {
		fmt.Fprintf(out, "   %s\n", terminal.Warning("not found"))
		return
	}
	fmt.Fprintf(out, "   Algorithm:    %s\n", m.Algorithm)
	fmt.Fprintf(out, "   Digest:       %s\n", m.Hash)
	fmt.Fprintf(out, "   Requirements: %d\n", len(m.Requirements))
	if list {
		for _, r := range m.Requirements {
			fmt.Fprintf(out, "     %s %s\n", terminal.IconDot, r)
		}
		for _, o := range m.Options {
			fmt.Fprintf(out, "     %s %s\n", terminal.IconDot, o)
		}
	}
	if len(m.Includes) > 0 {
		fmt.Fprintf(out, "   Includes:     %s\n", strings.Join(m.Includes, ", "))
	}

	switch rep.Status {
	case stampNone:
		fmt.Fprintln(out, "   Last install: none recorded")
	case stampOtherAlg:
		fmt.Fprintf(out, "   Last install: recorded with %s, rerun with --algorithm %s to compare\n", rep.Stamp.Algorithm, rep.Stamp.Algorithm)
	case stampMatch:
		fmt.Fprintf(out, "   Last install: %s (%s, %s)\n", terminal.Success("unchanged"),
			rep.Stamp.InstalledAt.Format(time.RFC3339), rep.Stamp.Interpreter)
	case stampChanged:
		fmt.Fprintf(out, "   Last install: %s since %s\n", terminal.Warning("changed"),
			rep.Stamp.InstalledAt.Format(time.RFC3339))
	}
}
