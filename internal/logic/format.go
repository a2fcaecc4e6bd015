package logic

// Fixed strings of the serial protocol and display.
const (
	HeartbeatMessage = "Checking \n\r"
	ImpactMessage    = "impact detected!!"
	ResetMessage     = "\r\nImpact counter RESET\r\n"
	ResetCaption     = "Count= 000"
	StartupTitle     = "impact sensor"
)

// Digits renders n as exactly three decimal digits. Values above 999 are
// clamped so the rendering never wraps.
func Digits(n uint16) string {
	if n > MaxCount {
		n = MaxCount
	}
	return string([]byte{
		byte('0' + n/100),
		byte('0' + (n/10)%10),
		byte('0' + n%10),
	})
}

// ReportMessage is the reply to a report command.
func ReportMessage(count uint16) string {
	return "\r\nImpact Count = " + Digits(count) + "\r\n"
}

// CountCaption is the display row-1 caption after an impact.
func CountCaption(count uint16) string {
	return "Count= " + Digits(count)
}

// SampleCaption is the display row-2 text showing the latest sample.
// The trailing spaces erase leftovers from longer text.
func SampleCaption(sample uint8) string {
	return "Impact =" + Digits(uint16(sample)) + "  "
}

// ParseCommand maps a received byte to a command. Any byte other than
// c, C, r or R (including NUL) is not a command.
func ParseCommand(b byte) (Command, bool) {
	switch b {
	case 'c', 'C':
		return CommandReport, true
	case 'r', 'R':
		return CommandReset, true
	}
	return 0, false
}
