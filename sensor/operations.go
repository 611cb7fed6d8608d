package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-r307/protocol"
)

// Handshake verifies the password the Sensor was configured with.
func (s *Sensor) Handshake(ctx context.Context) error {
	return s.VerifyPassword(ctx, s.config.Password)
}

// VerifyPassword performs the module handshake. On success the session
// moves to StatePasswordVerified; a wrong password leaves the state as is
// and returns an error matching protocol.WrongPassword.
func (s *Sensor) VerifyPassword(ctx context.Context, password [protocol.PasswordSize]byte) (err error) {
	defer s.track(protocol.OpVerifyPassword, time.Now(), &err)

	if _, err := s.call(ctx, protocol.VerifyPasswordCmd(password)); err != nil {
		return err
	}

	s.state = StatePasswordVerified
	s.logInfo("password verified")
	return nil
}

// GenerateImage waits for the settle delay, then captures a finger image
// into the module's image buffer.
func (s *Sensor) GenerateImage(ctx context.Context) (err error) {
	defer s.track(protocol.OpGenerateImage, time.Now(), &err)

	if err := s.settle(ctx); err != nil {
		return err
	}

	_, err = s.call(ctx, protocol.GenerateImageCmd())
	return err
}

// DownloadImage transfers the image buffer to the host.
// The raw image packs two 4-bit pixels per byte; see package fpimage.
func (s *Sensor) DownloadImage(ctx context.Context) (image []byte, err error) {
	defer s.track(protocol.OpDownloadImage, time.Now(), &err)

	if _, err := s.call(ctx, protocol.DownloadImageCmd()); err != nil {
		return nil, err
	}

	return s.receiveStream(protocol.OpDownloadImage)
}

// UploadImage transfers image into the module's image buffer as data
// packets of the configured packet size.
func (s *Sensor) UploadImage(ctx context.Context, image []byte) (err error) {
	defer s.track(protocol.OpUploadImage, time.Now(), &err)

	if len(image) == 0 {
		return &protocol.ValidationError{Field: "image", Reason: "must not be empty"}
	}

	if _, err := s.call(ctx, protocol.UploadImageCmd()); err != nil {
		return err
	}

	return s.sendData(protocol.OpUploadImage, image)
}

// GenerateCharacteristics extracts a feature file from the image buffer
// into char buffer bufferID (1 or 2).
func (s *Sensor) GenerateCharacteristics(ctx context.Context, bufferID byte) (err error) {
	defer s.track(protocol.OpGenerateCharacteristics, time.Now(), &err)

	cmd, err := protocol.GenerateCharacteristicsCmd(bufferID)
	if err != nil {
		return err
	}

	_, err = s.call(ctx, cmd)
	return err
}

// GenerateTemplate merges char buffers 1 and 2 into a template. Both
// buffers must come from the same finger.
func (s *Sensor) GenerateTemplate(ctx context.Context) (err error) {
	defer s.track(protocol.OpGenerateTemplate, time.Now(), &err)

	_, err = s.call(ctx, protocol.GenerateTemplateCmd())
	return err
}

// MatchTemplate compares char buffers 1 and 2 and returns the match score.
func (s *Sensor) MatchTemplate(ctx context.Context) (score uint16, err error) {
	defer s.track(protocol.OpMatchTemplate, time.Now(), &err)

	data, err := s.call(ctx, protocol.MatchTemplateCmd())
	if err != nil {
		return 0, err
	}

	return protocol.ParseMatchResponse(data)
}

// DownloadCharBuffer transfers the feature file in char buffer bufferID
// to the host.
func (s *Sensor) DownloadCharBuffer(ctx context.Context, bufferID byte) (char []byte, err error) {
	defer s.track(protocol.OpDownloadCharBuffer, time.Now(), &err)

	cmd, err := protocol.DownloadCharBufferCmd(bufferID)
	if err != nil {
		return nil, err
	}

	if _, err := s.call(ctx, cmd); err != nil {
		return nil, err
	}

	return s.receiveStream(protocol.OpDownloadCharBuffer)
}

// SetPassword changes the module password. newPassword must be exactly
// 4 bytes. The session keeps the password it was created with; open a
// new Sensor with WithPassword to handshake with the new one.
func (s *Sensor) SetPassword(ctx context.Context, newPassword []byte) (err error) {
	defer s.track(protocol.OpSetPassword, time.Now(), &err)

	cmd, err := protocol.SetPasswordCmd(newPassword)
	if err != nil {
		return err
	}

	if _, err := s.call(ctx, cmd); err != nil {
		return err
	}

	s.logInfo("module password changed")
	return nil
}

// SetParameter writes a system parameter register after checking the
// value against the register's range.
func (s *Sensor) SetParameter(ctx context.Context, param protocol.Parameter, value byte) (err error) {
	defer s.track(protocol.OpSetParameter, time.Now(), &err)

	cmd, err := protocol.SetParameterCmd(param, value)
	if err != nil {
		return err
	}

	if _, err := s.call(ctx, cmd); err != nil {
		return err
	}

	s.logInfo("parameter set", "parameter", param.String(), "value", value)
	return nil
}

// ReadParameters reads the system parameter block.
func (s *Sensor) ReadParameters(ctx context.Context) (params *protocol.Parameters, err error) {
	defer s.track(protocol.OpReadParameters, time.Now(), &err)

	data, err := s.call(ctx, protocol.ReadParametersCmd())
	if err != nil {
		return nil, err
	}

	return protocol.ParseReadParametersResponse(data)
}

// FingerprintVerification captures a finger and searches quantity pages of
// the library starting at startPage. A search without a hit returns an
// error matching protocol.NoMatch.
func (s *Sensor) FingerprintVerification(ctx context.Context, captureTime byte, startPage, quantity uint16) (match *protocol.Match, err error) {
	defer s.track(protocol.OpFingerprintVerification, time.Now(), &err)

	data, err := s.call(ctx, protocol.FingerprintVerificationCmd(captureTime, startPage, quantity))
	if err != nil {
		return nil, err
	}

	match, err = protocol.ParseSearchResponse(data)
	if err != nil {
		return nil, err
	}

	if match.PageID == 0 && match.Score == 0 {
		return nil, &protocol.DeviceError{
			Operation: protocol.OpFingerprintVerification,
			Code:      protocol.CodeSuccess,
			Outcome:   protocol.NoMatch,
		}
	}

	return match, nil
}

// StoreTemplate writes char buffer bufferID to library page pageID.
func (s *Sensor) StoreTemplate(ctx context.Context, bufferID byte, pageID uint16) (err error) {
	defer s.track(protocol.OpStoreTemplate, time.Now(), &err)

	cmd, err := protocol.StoreTemplateCmd(bufferID, pageID)
	if err != nil {
		return err
	}

	_, err = s.call(ctx, cmd)
	return err
}

// DeleteTemplate deletes count library pages starting at startPage.
func (s *Sensor) DeleteTemplate(ctx context.Context, startPage, count uint16) (err error) {
	defer s.track(protocol.OpDeleteTemplate, time.Now(), &err)

	cmd, err := protocol.DeleteTemplateCmd(startPage, count)
	if err != nil {
		return err
	}

	_, err = s.call(ctx, cmd)
	return err
}

// call sends cmd and checks the confirmation code against the operation's
// entry in the confirmation table.
func (s *Sensor) call(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	code, data, err := s.SendCommand(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := protocol.CheckConfirmation(cmd.Operation(), code); err != nil {
		return nil, err
	}

	return data, nil
}

// settle blocks for the configured settle delay.
func (s *Sensor) settle(ctx context.Context) error {
	if s.config.SettleDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(s.config.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("settle: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// track reports a finished operation to the observer and logs failures.
func (s *Sensor) track(op protocol.Operation, start time.Time, errp *error) {
	elapsed := time.Since(start)
	if s.config.Observer != nil {
		s.config.Observer.CommandDone(op, *errp, elapsed)
	}
	if *errp != nil {
		s.logError("operation failed",
			"operation", op.String(),
			"error", (*errp).Error(),
			"elapsed", elapsed.String(),
		)
	}
}
