package protocol

import "fmt"

// Operation identifies a device operation in the confirmation code table.
type Operation int

// Device operations.
const (
	OpUnknown Operation = iota
	OpVerifyPassword
	OpGenerateImage
	OpDownloadImage
	OpUploadImage
	OpGenerateCharacteristics
	OpGenerateTemplate
	OpMatchTemplate
	OpDownloadCharBuffer
	OpSetPassword
	OpSetParameter
	OpReadParameters
	OpFingerprintVerification
	OpStoreTemplate
	OpDeleteTemplate
)

var operationNames = map[Operation]string{
	OpUnknown:                 "unknown operation",
	OpVerifyPassword:          "verify password",
	OpGenerateImage:           "generate image",
	OpDownloadImage:           "download image",
	OpUploadImage:             "upload image",
	OpGenerateCharacteristics: "generate characteristics",
	OpGenerateTemplate:        "generate template",
	OpMatchTemplate:           "match template",
	OpDownloadCharBuffer:      "download char buffer",
	OpSetPassword:             "set password",
	OpSetParameter:            "set parameter",
	OpReadParameters:          "read parameters",
	OpFingerprintVerification: "fingerprint verification",
	OpStoreTemplate:           "store template",
	OpDeleteTemplate:          "delete template",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation %d", int(o))
}

var operationCodes = map[byte]Operation{
	CmdVerifyPassword:          OpVerifyPassword,
	CmdGenerateImage:           OpGenerateImage,
	CmdDownloadImage:           OpDownloadImage,
	CmdUploadImage:             OpUploadImage,
	CmdGenerateCharacteristics: OpGenerateCharacteristics,
	CmdGenerateTemplate:        OpGenerateTemplate,
	CmdMatchTemplate:           OpMatchTemplate,
	CmdDownloadCharBuffer:      OpDownloadCharBuffer,
	CmdSetPassword:             OpSetPassword,
	CmdSetParameter:            OpSetParameter,
	CmdReadParameters:          OpReadParameters,
	CmdFingerprintVerification: OpFingerprintVerification,
	CmdStoreTemplate:           OpStoreTemplate,
	CmdDeleteTemplate:          OpDeleteTemplate,
}

func operationForCode(code byte) Operation {
	if op, ok := operationCodes[code]; ok {
		return op
	}
	return OpUnknown
}

// Outcome is the classified meaning of a confirmation code.
// Every outcome other than Success is an error value, so a classified
// failure can be matched with errors.Is through a *DeviceError.
type Outcome int

// Confirmation outcomes.
const (
	Success Outcome = iota
	GenericError
	FingerNotDetected
	FailedToCollectFinger
	DisorderedFingerprint
	VerySmallFingerprint
	UnmatchedTemplates
	NoMatch
	CharacteristicsMismatch
	WrongPageID
	TemplateDownloadError
	FailedDownloadImage
	FailTransferPacket
	FailedDelete
	WrongPassword
	InvalidPrimaryImage
	FlashWriteError
	WrongRegisterNumber
	Unrecognised
)

var outcomeNames = [...]string{
	Success:                 "success",
	GenericError:            "error receiving package",
	FingerNotDetected:       "finger not detected",
	FailedToCollectFinger:   "failed to collect finger",
	DisorderedFingerprint:   "fingerprint image too disordered",
	VerySmallFingerprint:    "fingerprint image too small",
	UnmatchedTemplates:      "templates do not match",
	NoMatch:                 "no matching fingerprint",
	CharacteristicsMismatch: "characteristics belong to different fingers",
	WrongPageID:             "page id beyond library",
	TemplateDownloadError:   "error uploading template",
	FailedDownloadImage:     "failed to transfer image",
	FailTransferPacket:      "failed to receive data packets",
	FailedDelete:            "failed to delete template",
	WrongPassword:           "wrong password",
	InvalidPrimaryImage:     "no valid primary image",
	FlashWriteError:         "error writing flash",
	WrongRegisterNumber:     "wrong register number",
	Unrecognised:            "unrecognised confirmation code",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome %d", int(o))
}

func (o Outcome) Error() string {
	return o.String()
}

// universalOutcomes apply to every operation.
var universalOutcomes = map[byte]Outcome{
	CodeSuccess:      Success,
	CodeGenericError: GenericError,
}

// operationOutcomes holds the failure codes specific to each operation.
// Operations without an entry only know the universal codes.
var operationOutcomes = map[Operation]map[byte]Outcome{
	OpVerifyPassword: {
		CodeWrongPassword: WrongPassword,
	},
	OpGenerateImage: {
		CodeFingerNotDetected:     FingerNotDetected,
		CodeFailedToCollectFinger: FailedToCollectFinger,
	},
	OpDownloadImage: {
		CodeFailedDownloadImage: FailedDownloadImage,
	},
	OpUploadImage: {
		CodeFailedDownloadImage: FailTransferPacket,
	},
	OpGenerateCharacteristics: {
		CodeDisorderedFingerprint: DisorderedFingerprint,
		CodeVerySmallFingerprint:  VerySmallFingerprint,
		CodeInvalidPrimaryImage:   InvalidPrimaryImage,
	},
	OpGenerateTemplate: {
		CodeCharacteristicsMismatch: CharacteristicsMismatch,
	},
	OpMatchTemplate: {
		CodeUnmatchedTemplates: UnmatchedTemplates,
	},
	OpDownloadCharBuffer: {
		CodeTemplateDownloadError: TemplateDownloadError,
	},
	OpSetParameter: {
		CodeWrongRegisterNumber: WrongRegisterNumber,
	},
	OpFingerprintVerification: {
		CodeDisorderedFingerprint: DisorderedFingerprint,
		CodeVerySmallFingerprint:  VerySmallFingerprint,
		CodeNoMatch:               NoMatch,
	},
	OpStoreTemplate: {
		CodeWrongPageID:     WrongPageID,
		CodeFlashWriteError: FlashWriteError,
	},
	OpDeleteTemplate: {
		CodeFailedDelete: FailedDelete,
	},
}

// Classify maps a confirmation code to its outcome for op.
func Classify(op Operation, code byte) Outcome {
	if o, ok := universalOutcomes[code]; ok {
		return o
	}
	if o, ok := operationOutcomes[op][code]; ok {
		return o
	}
	return Unrecognised
}

// CheckConfirmation returns nil when code means success for op and a
// *DeviceError carrying the classified outcome otherwise.
func CheckConfirmation(op Operation, code byte) error {
	outcome := Classify(op, code)
	if outcome == Success {
		return nil
	}
	return &DeviceError{Operation: op, Code: code, Outcome: outcome}
}
