package basicnfc

import "fmt"

// TagFound reports a tag in the field.
type TagFound struct {
	TagType int
	TagCode []byte
}

// NdefFound reports a tag together with the NDEF message read from it.
type NdefFound struct {
	TagType int
	TagCode []byte
	Message []byte
}

// ScanTimeout reports that the requested scan period elapsed.
type ScanTimeout struct{}

// ApplicationError is the family's error report.
type ApplicationError struct {
	ErrorCode         byte
	InternalErrorCode byte
	ReaderStatus      byte
	Message           string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("basic nfc application error 0x%02X (internal 0x%02X, reader status 0x%02X): %s",
			e.ErrorCode, e.InternalErrorCode, e.ReaderStatus, e.Message)
	}
	return fmt.Sprintf("basic nfc application error 0x%02X (internal 0x%02X, reader status 0x%02X)",
		e.ErrorCode, e.InternalErrorCode, e.ReaderStatus)
}
