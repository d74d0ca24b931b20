package multivm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedVersion is returned when no VM is known or registered for a version
var ErrUnsupportedVersion = errors.New("unsupported vm version")

// VmVersion identifies a generation of the VM. Values are only ever appended, so a
// version compares greater than every version that came before it.
type VmVersion uint8

const (
	VmM5WithoutRefunds VmVersion = iota
	VmM5WithRefunds
	VmM6Initial
	VmM6BugWithCompressionFixed
	Vm1_3_2
)

var vmVersionNames = []string{
	VmM5WithoutRefunds:          "M5WithoutRefunds",
	VmM5WithRefunds:             "M5WithRefunds",
	VmM6Initial:                 "M6Initial",
	VmM6BugWithCompressionFixed: "M6BugWithCompressionFixed",
	Vm1_3_2:                     "Vm1_3_2",
}

// AllVmVersions returns every known version, oldest first
func AllVmVersions() []VmVersion {
	res := make([]VmVersion, len(vmVersionNames))
	for i := range vmVersionNames {
		res[i] = VmVersion(i)
	}
	return res
}

// IsKnown reports whether v is part of the enumeration
func (v VmVersion) IsKnown() bool {
	return int(v) < len(vmVersionNames)
}

func (v VmVersion) String() string {
	if !v.IsKnown() {
		return fmt.Sprintf("VmVersion(%d)", uint8(v))
	}
	return vmVersionNames[v]
}

// ParseVmVersion accepts the names returned by String, case insensitive
func ParseVmVersion(s string) (VmVersion, error) {
	for i, name := range vmVersionNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return VmVersion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
}

// MarshalText implements encoding.TextMarshaler
func (v VmVersion) MarshalText() ([]byte, error) {
	if !v.IsKnown() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used when decoding the config
func (v *VmVersion) UnmarshalText(data []byte) error {
	parsed, err := ParseVmVersion(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ProtocolVersionID is the protocol version a batch was produced with
type ProtocolVersionID uint16

// protocolVms maps each protocol version to the VM that executes it. A protocol version
// keeps its VM forever, replays depend on it.
var protocolVms = []VmVersion{
	0:  VmM5WithoutRefunds,
	1:  VmM5WithoutRefunds,
	2:  VmM5WithRefunds,
	3:  VmM5WithRefunds,
	4:  VmM6Initial,
	5:  VmM6BugWithCompressionFixed,
	6:  VmM6BugWithCompressionFixed,
	7:  Vm1_3_2,
	8:  Vm1_3_2,
	9:  Vm1_3_2,
	10: Vm1_3_2,
	11: Vm1_3_2,
	12: Vm1_3_2,
}

// LatestProtocolVersion is the newest protocol version this node knows about
const LatestProtocolVersion = ProtocolVersionID(12)

// VmVersionForProtocol returns the VM version of a protocol version. Unknown protocol
// versions are never approximated with a neighbouring one.
func VmVersionForProtocol(id ProtocolVersionID) (VmVersion, error) {
	if int(id) >= len(protocolVms) {
		return 0, fmt.Errorf("%w: protocol version %d", ErrUnsupportedVersion, id)
	}
	return protocolVms[id], nil
}

// VersionConstants are the protocol constants a VM generation derives its block context from
type VersionConstants struct {
	MaxGasPerPubdataByte uint64
	L1GasPerPubdataByte  uint64
	BlockGasLimit        uint64
}

const (
	maxGasPerPubdataByte = 50_000
	l1GasPerPubdataByte  = 17
	blockGasLimit        = 1<<32 - 1
)

var defaultConstants = VersionConstants{
	MaxGasPerPubdataByte: maxGasPerPubdataByte,
	L1GasPerPubdataByte:  l1GasPerPubdataByte,
	BlockGasLimit:        blockGasLimit,
}

var versionConstants = map[VmVersion]VersionConstants{
	VmM5WithoutRefunds:          defaultConstants,
	VmM5WithRefunds:             defaultConstants,
	VmM6Initial:                 defaultConstants,
	VmM6BugWithCompressionFixed: defaultConstants,
	Vm1_3_2:                     defaultConstants,
}

// ConstantsFor returns the constants used by version v
func ConstantsFor(v VmVersion) (VersionConstants, error) {
	c, ok := versionConstants[v]
	if !ok {
		return VersionConstants{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
	}
	return c, nil
}
