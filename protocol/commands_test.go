package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPayload(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{
			name: "no arguments",
			cmd:  GenerateImageCmd(),
			want: []byte{CmdGenerateImage},
		},
		{
			name: "password word",
			cmd:  VerifyPasswordCmd([PasswordSize]byte{0x0A, 0x0B, 0x0C, 0x0D}),
			want: []byte{CmdVerifyPassword, 0x0A, 0x0B, 0x0C, 0x0D},
		},
		{
			name: "mixed widths",
			cmd:  FingerprintVerificationCmd(0x01, 0x0002, 0x03E8),
			want: []byte{CmdFingerprintVerification, 0x01, 0x00, 0x02, 0x03, 0xE8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Payload())
		})
	}
}

func TestCommandOperation(t *testing.T) {
	assert.Equal(t, OpVerifyPassword, VerifyPasswordCmd(DefaultPassword).Operation())
	assert.Equal(t, OpReadParameters, ReadParametersCmd().Operation())
	assert.Equal(t, OpUnknown, Command{Code: 0x7F}.Operation())
}

func TestSetPasswordCmd(t *testing.T) {
	tests := []struct {
		name     string
		password []byte
		wantErr  bool
	}{
		{name: "valid 4-byte password", password: []byte{1, 2, 3, 4}},
		{name: "3 bytes", password: []byte{1, 2, 3}, wantErr: true},
		{name: "5 bytes", password: []byte{1, 2, 3, 4, 5}, wantErr: true},
		{name: "nil", password: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := SetPasswordCmd(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Contains(t, err.Error(), "must be exactly 4 bytes")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, append([]byte{CmdSetPassword}, tt.password...), cmd.Payload())
		})
	}
}

func TestSetParameterCmd(t *testing.T) {
	tests := []struct {
		name    string
		param   Parameter
		value   byte
		wantErr bool
	}{
		{name: "baud lower bound", param: ParamBaudRate, value: 1},
		{name: "baud upper bound", param: ParamBaudRate, value: 12},
		{name: "baud zero", param: ParamBaudRate, value: 0, wantErr: true},
		{name: "baud 13", param: ParamBaudRate, value: 13, wantErr: true},
		{name: "security lower bound", param: ParamSecurityLevel, value: 1},
		{name: "security upper bound", param: ParamSecurityLevel, value: 5},
		{name: "security zero", param: ParamSecurityLevel, value: 0, wantErr: true},
		{name: "security six", param: ParamSecurityLevel, value: 6, wantErr: true},
		{name: "packet length zero", param: ParamPacketLength, value: 0},
		{name: "packet length three", param: ParamPacketLength, value: 3},
		{name: "packet length four", param: ParamPacketLength, value: 4, wantErr: true},
		{name: "unknown register", param: Parameter(9), value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := SetParameterCmd(tt.param, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte{CmdSetParameter, byte(tt.param), tt.value}, cmd.Payload())
		})
	}
}

func TestBufferCommands(t *testing.T) {
	for _, id := range []byte{CharBuffer1, CharBuffer2} {
		cmd, err := GenerateCharacteristicsCmd(id)
		require.NoError(t, err)
		assert.Equal(t, []byte{CmdGenerateCharacteristics, id}, cmd.Payload())

		cmd, err = DownloadCharBufferCmd(id)
		require.NoError(t, err)
		assert.Equal(t, []byte{CmdDownloadCharBuffer, id}, cmd.Payload())

		cmd, err = StoreTemplateCmd(id, 0x0102)
		require.NoError(t, err)
		assert.Equal(t, []byte{CmdStoreTemplate, id, 0x01, 0x02}, cmd.Payload())
	}

	for _, id := range []byte{0, 3, 0xFF} {
		_, err := GenerateCharacteristicsCmd(id)
		assert.True(t, IsValidationError(err), "buffer %d", id)
		_, err = DownloadCharBufferCmd(id)
		assert.True(t, IsValidationError(err), "buffer %d", id)
		_, err = StoreTemplateCmd(id, 0)
		assert.True(t, IsValidationError(err), "buffer %d", id)
	}
}

func TestDeleteTemplateCmd(t *testing.T) {
	cmd, err := DeleteTemplateCmd(0x0010, 0x0002)
	require.NoError(t, err)
	assert.Equal(t, []byte{CmdDeleteTemplate, 0x00, 0x10, 0x00, 0x02}, cmd.Payload())

	_, err = DeleteTemplateCmd(0, 0)
	assert.True(t, IsValidationError(err))
}
