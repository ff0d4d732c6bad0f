package upgrade

import (
	"bytes"
	"fmt"

	"bsdata-go/internal/datafile"
)

// Result is the outcome of an upgrade.
type Result struct {
	// Data is the upgraded document. It is the input itself when no
	// transform applied.
	Data []byte

	// FromVersion is the version the input declared.
	FromVersion string

	// Version is the version Data now declares.
	Version string

	// Applied lists the checkpoint versions that ran, in order.
	Applied []string
}

// Changed reports whether any transform ran.
func (r *Result) Changed() bool { return len(r.Applied) > 0 }

// Upgrader applies a Registry's transform chains. It holds no mutable state
// and is safe for concurrent use.
type Upgrader struct {
	registry *Registry
}

// New returns an Upgrader over registry.
func New(registry *Registry) *Upgrader {
	return &Upgrader{registry: registry}
}

// NewDefault returns an Upgrader over the embedded transform definitions.
func NewDefault() (*Upgrader, error) {
	r, err := DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading transforms: %w", err)
	}
	return New(r), nil
}

// RequiresUpgrade reports whether Upgrade would change data of the given
// kind, that is whether some checkpoint of the kind's chain is newer than the
// document. Kinds without a chain never need an upgrade. It fails with an
// UnsupportedVersionError when data is too old to upgrade at all.
func (u *Upgrader) RequiresUpgrade(kind datafile.Kind, data []byte) (bool, string, error) {
	version, err := u.supportedVersion(data)
	if err != nil {
		return false, version, err
	}
	if CompareVersions(version, CurrentVersion) >= 0 {
		return false, version, nil
	}
	for _, cp := range u.registry.Chain(kind) {
		if CompareVersions(version, cp.Version) < 0 {
			return true, version, nil
		}
	}
	return false, version, nil
}

// Upgrade brings data of the given kind up to the newest checkpoint for that
// kind. Each checkpoint newer than the document runs in ascending order and
// the document's declared version advances after each one. Kinds without a
// chain pass through unchanged once the version gate is satisfied.
func (u *Upgrader) Upgrade(kind datafile.Kind, data []byte) (*Result, error) {
	version, err := u.supportedVersion(data)
	if err != nil {
		return nil, err
	}

	res := &Result{Data: data, FromVersion: version, Version: version}
	if CompareVersions(version, CurrentVersion) >= 0 {
		return res, nil
	}

	body := bytes.TrimPrefix(data, utf8BOM)
	for _, cp := range u.registry.Chain(kind) {
		if CompareVersions(res.Version, cp.Version) >= 0 {
			continue
		}
		out, err := cp.Transform.Apply(body)
		if err != nil {
			return nil, fmt.Errorf("upgrading %s to %s: %w", kind, cp.Version, err)
		}
		body = out
		res.Version = cp.Version
		res.Applied = append(res.Applied, cp.Version)
	}
	if res.Changed() {
		res.Data = body
	}
	return res, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (u *Upgrader) supportedVersion(data []byte) (string, error) {
	version, found, err := datafile.ProbeVersionBytes(data)
	if err != nil {
		return "", err
	}
	if !found || version == "" || CompareVersions(version, MinVersion) < 0 {
		return version, &datafile.UnsupportedVersionError{Version: version, Minimum: MinVersion}
	}
	return version, nil
}
