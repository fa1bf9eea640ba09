package permissions

// Kind identifies a class of privileged operation subject to authorization.
type Kind string

const (
	// KindRead covers filesystem reads, optionally scoped to a path.
	KindRead Kind = "read"
	// KindWrite covers filesystem writes, optionally scoped to a path.
	KindWrite Kind = "write"
	// KindNet covers network access, optionally scoped to a host.
	KindNet Kind = "net"
	// KindEnv covers environment variable access.
	KindEnv Kind = "env"
	// KindRun covers subprocess spawning.
	KindRun Kind = "run"
	// KindFFI covers dynamic library loading.
	KindFFI Kind = "ffi"
	// KindHrtime covers high resolution timing.
	KindHrtime Kind = "hrtime"
)

// Kinds returns all recognized capability kinds.
func Kinds() []Kind {
	return []Kind{KindRead, KindWrite, KindNet, KindEnv, KindRun, KindFFI, KindHrtime}
}

// Validate returns an error if the kind is not one of the recognized
// capability kinds.
func (k Kind) Validate() error {
	switch k {
	case KindRead, KindWrite, KindNet, KindEnv, KindRun, KindFFI, KindHrtime:
		return nil
	default:
		return &DescriptorError{Field: "kind", Value: string(k)}
	}
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Descriptor names a single capability check. It is a pure value object:
// callers construct it, the core derives a cache key from it, and it is
// never stored.
//
// Path is meaningful only for read/write kinds, Host only for net. Extraneous
// scope fields on other kinds are ignored rather than rejected, matching the
// authority's contract.
type Descriptor struct {
	Kind Kind   `yaml:"kind" json:"kind"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	Host string `yaml:"host,omitempty" json:"host,omitempty"`
}

// Validate checks that the descriptor is well formed. It has no side
// effects.
func (d Descriptor) Validate() error {
	return d.Kind.Validate()
}

// CacheKey derives the identity under which the status cache interns this
// descriptor. Derivation is a pure function of the descriptor: the kind
// alone, suffixed with the path for scoped read/write checks and with the
// host for scoped net checks.
//
// Net keying is by host only. Port-qualified scoping is deliberately not
// distinguished here; the authority sees the full descriptor and can be
// stricter than the cache.
func (d Descriptor) CacheKey() string {
	switch d.Kind {
	case KindRead, KindWrite:
		if d.Path != "" {
			return string(d.Kind) + ":" + d.Path
		}
	case KindNet:
		if d.Host != "" {
			return string(d.Kind) + ":" + d.Host
		}
	}
	return string(d.Kind)
}

// Scope returns the sub-scope carried by the descriptor, if any.
func (d Descriptor) Scope() string {
	switch d.Kind {
	case KindRead, KindWrite:
		return d.Path
	case KindNet:
		return d.Host
	default:
		return ""
	}
}

// Equals checks if two descriptors are equal (value object equality).
func (d Descriptor) Equals(other Descriptor) bool {
	return d.Kind == other.Kind && d.Path == other.Path && d.Host == other.Host
}

// String returns a human-readable representation of the descriptor.
func (d Descriptor) String() string {
	if scope := d.Scope(); scope != "" {
		return string(d.Kind) + ":" + scope
	}
	return string(d.Kind)
}

// DescriptorError indicates a malformed descriptor. It names the offending
// field so callers can surface precise diagnostics.
type DescriptorError struct {
	Field string
	Value string
}

func (e *DescriptorError) Error() string {
	return "invalid permission descriptor: field " + e.Field + " has unrecognized value " + `"` + e.Value + `"`
}
