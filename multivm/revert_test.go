package multivm

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

func encodeErrorString(t *testing.T, msg string) []byte {
	t.Helper()

	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(msg)
	require.NoError(t, err)
	return append(append([]byte{}, errorSelector...), packed...)
}

func TestParseVmRevertReason(t *testing.T) {
	errorPayload := encodeErrorString(t, "insufficient balance")

	tests := []struct {
		name     string
		data     []byte
		expected VmRevertReason
	}{
		{
			name:     "error string",
			data:     errorPayload,
			expected: VmRevertReason{Kind: VmRevertGeneral, Msg: "insufficient balance", Data: errorPayload},
		},
		{
			name: "unknown selector",
			data: []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02},
			expected: VmRevertReason{
				Kind:             VmRevertUnknown,
				FunctionSelector: []byte{0xde, 0xad, 0xbe, 0xef},
				Data:             []byte{0x01, 0x02},
			},
		},
		{
			name:     "shorter than a selector",
			data:     []byte{0x01, 0x02},
			expected: VmRevertReason{Kind: VmRevertUnknown, Data: []byte{0x01, 0x02}},
		},
		{
			name: "error selector with a broken body",
			data: append(append([]byte{}, errorSelector...), 0x01),
			expected: VmRevertReason{
				Kind:             VmRevertUnknown,
				FunctionSelector: errorSelector,
				Data:             []byte{0x01},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseVmRevertReason(tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.expected, parsed)
		})
	}

	_, err := ParseVmRevertReason(nil)
	require.ErrorIs(t, err, ErrEmptyRevertReason)
	_, err = NewVmRevertReasonParsingResult([]byte{})
	require.ErrorIs(t, err, ErrEmptyRevertReason)
}

func TestVmRevertReasonString(t *testing.T) {
	require.Equal(t, "nope", VmRevertReason{Kind: VmRevertGeneral, Msg: "nope"}.String())
	require.Equal(t, "Bootloader-based tx failed", VmRevertReason{Kind: VmRevertInnerTxError}.String())
	require.Equal(t, "VM Error", VmRevertReason{Kind: VmRevertVmError}.String())
	require.Equal(t, "Error function_selector = 0x01020304, data = 0x05",
		VmRevertReason{Kind: VmRevertUnknown, FunctionSelector: []byte{1, 2, 3, 4}, Data: []byte{5}}.String())
}

func TestTxRevertReason(t *testing.T) {
	payload := encodeErrorString(t, "not owner")

	explicit := ExplicitRevert(payload)
	require.Equal(t, RevertExplicit, explicit.Kind)
	require.Equal(t, payload, explicit.Data)
	require.Equal(t, "not owner", explicit.String())

	// an empty payload is still an explicit revert, just without a message
	empty := ExplicitRevert(nil)
	require.Equal(t, RevertExplicit, empty.Kind)
	require.Equal(t, "reverted: 0x", empty.String())

	require.Equal(t, "out of gas", OutOfGasRevert().String())
	require.Equal(t, "validation failed: bad nonce", ValidationFailedRevert("bad nonce").String())
	require.Equal(t, "unknown revert reason: 0x0102", UnknownRevert([]byte{1, 2}).String())
}

func TestTxRevertReasonFromParsing(t *testing.T) {
	payload := encodeErrorString(t, "paused")
	parsed, err := NewVmRevertReasonParsingResult(payload)
	require.NoError(t, err)
	require.Equal(t, payload, parsed.OriginalData)

	r := TxRevertReasonFromParsing(*parsed)
	require.Equal(t, RevertExplicit, r.Kind)
	require.Equal(t, "paused", r.Message)
	require.Equal(t, payload, r.Data)

	r = TxRevertReasonFromParsing(VmRevertReasonParsingResult{Revert: VmRevertReason{Kind: VmRevertInnerTxError}})
	require.Equal(t, RevertValidationFailed, r.Kind)

	r = TxRevertReasonFromParsing(VmRevertReasonParsingResult{
		Revert:       VmRevertReason{Kind: VmRevertUnknown},
		OriginalData: []byte{9},
	})
	require.Equal(t, RevertUnknownVersionSpecific, r.Kind)
	require.Equal(t, []byte{9}, r.Raw)
}
