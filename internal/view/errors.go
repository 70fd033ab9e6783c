package view

// ErrorKind classifies what went wrong for the user-facing message.
type ErrorKind int

const (
	Denied ErrorKind = iota + 1
	MissingData
	NetworkUnreachable
	ServerRejected
	MalformedResponse
)

// FallbackServerMessage is shown when the service rejects a request without saying why.
const FallbackServerMessage = "Server error"

func (k ErrorKind) String() string {
	switch k {
	case Denied:
		return "denied"
	case MissingData:
		return "missing_data"
	case NetworkUnreachable:
		return "network_unreachable"
	case ServerRejected:
		return "server_rejected"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Message returns the notification text for kind. detail is only used for
// server rejections, where it is the message the service sent.
func Message(kind ErrorKind, detail string) string {
	switch kind {
	case Denied:
		return "Photo access is needed to diagnose a leaf. Allow access in your settings and try again."
	case MissingData:
		return "The selected photo could not be read. Please pick another image."
	case NetworkUnreachable:
		return "Could not reach the diagnosis server. Check your connection and make sure the server is running."
	case ServerRejected:
		if detail == "" {
			return FallbackServerMessage
		}
		return detail
	case MalformedResponse:
		return "The diagnosis server sent a response that could not be read."
	default:
		return FallbackServerMessage
	}
}
