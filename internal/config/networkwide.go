package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OperBlock names one operator credential the network recognizes, per
// spec.md §6's "oper credentials (hashed)". The password hash, never the
// password itself, is what travels in the replicated LoadConfig event
// and what every replica compares an OperUp attempt against.
type OperBlock struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// NetworkWide is the singleton network-wide configuration document
// distributed by a LoadConfig event (spec.md §3, "config is singleton;
// loading replaces the whole value atomically"). It is marshaled to YAML
// and carried as the opaque Payload on event.LoadConfig; no replica
// interprets its fields at apply time beyond recording the bytes, since
// validating and acting on oper credentials is client-session logic that
// consumes the Network snapshot, not core replication state.
type NetworkWide struct {
	Opers               []OperBlock `yaml:"opers"`
	DefaultChannelRoles []string    `yaml:"default_channel_roles"`
	AliasUsers          []string    `yaml:"alias_users"`
	DebugMode           bool        `yaml:"debug_mode"`
}

// Encode marshals nw to the byte form a LoadConfig event carries.
func (nw NetworkWide) Encode() ([]byte, error) {
	data, err := yaml.Marshal(nw)
	if err != nil {
		return nil, fmt.Errorf("config: encode network-wide config: %w", err)
	}
	return data, nil
}

// DecodeNetworkWide reverses Encode, used by a consumer reading
// Network.Config().Payload back into a structured value.
func DecodeNetworkWide(payload []byte) (NetworkWide, error) {
	var nw NetworkWide
	if err := yaml.Unmarshal(payload, &nw); err != nil {
		return NetworkWide{}, fmt.Errorf("config: decode network-wide config: %w", err)
	}
	return nw, nil
}
