package multivm

import (
	"fmt"
)

// Config selects the VM versions the node executes blocks with
type Config struct {
	// EnabledVersions are the VM versions adapters are registered for, by name
	EnabledVersions []VmVersion `mapstructure:"EnabledVersions"`
	// DefaultProtocolVersion is used for blocks opened by this node
	DefaultProtocolVersion ProtocolVersionID `mapstructure:"DefaultProtocolVersion"`
}

// Validate checks that the default protocol version runs on an enabled VM
func (c Config) Validate() error {
	for _, v := range c.EnabledVersions {
		if !v.IsKnown() {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
		}
	}
	v, err := VmVersionForProtocol(c.DefaultProtocolVersion)
	if err != nil {
		return err
	}
	if !c.IsEnabled(v) {
		return fmt.Errorf("%w: default protocol version %d needs %s, which is not enabled",
			ErrUnsupportedVersion, c.DefaultProtocolVersion, v)
	}
	return nil
}

// IsEnabled reports whether v is part of EnabledVersions
func (c Config) IsEnabled(v VmVersion) bool {
	for _, enabled := range c.EnabledVersions {
		if enabled == v {
			return true
		}
	}
	return false
}

// RegisterEnabled registers the adapters whose version is enabled and returns the enabled
// versions left without an adapter
func (r *Router) RegisterEnabled(cfg Config, adapters ...Adapter) ([]VmVersion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, a := range adapters {
		if !cfg.IsEnabled(a.Version()) {
			r.logger.Debugf("skipping adapter for %s, version not enabled", a.Version())
			continue
		}
		r.Register(a)
	}

	var missing []VmVersion
	for _, v := range cfg.EnabledVersions {
		if _, err := r.Get(v); err != nil {
			missing = append(missing, v)
		}
	}
	return missing, nil
}
