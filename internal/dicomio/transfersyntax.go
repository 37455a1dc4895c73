package dicomio

// Uncompressed transfer syntaxes. Compressed syntaxes are out of scope for
// the pixel pipeline; their files still parse but fail at the pixel stage.
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
)

// SyntaxFlags maps a transfer syntax UID to its VR explicitness and byte
// order. Unknown syntaxes report explicit VR, little endian, which covers
// every encapsulated syntax.
func SyntaxFlags(uid string) (implicitVR, littleEndian bool) {
	switch uid {
	case ImplicitVRLittleEndian:
		return true, true
	case ExplicitVRBigEndian:
		return false, false
	default:
		return false, true
	}
}

// SyntaxForFlags is the inverse of SyntaxFlags, used when a record carries
// flags but no transfer syntax UID.
func SyntaxForFlags(implicitVR, littleEndian bool) string {
	switch {
	case implicitVR:
		return ImplicitVRLittleEndian
	case !littleEndian:
		return ExplicitVRBigEndian
	default:
		return ExplicitVRLittleEndian
	}
}
