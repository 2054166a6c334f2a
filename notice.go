package auth

// NoticeKind identifies why a notice was raised
type NoticeKind string

const (
	NoticeSessionExpired     NoticeKind = "session_expired"
	NoticeInvalidCredentials NoticeKind = "invalid_credentials"
	NoticeForbidden          NoticeKind = "forbidden"
	NoticeNotFound           NoticeKind = "not_found"
	NoticeValidation         NoticeKind = "validation"
	NoticeServerError        NoticeKind = "server_error"
	NoticeRequestFailed      NoticeKind = "request_failed"
	NoticeNetwork            NoticeKind = "network"
	NoticeRequestSetup       NoticeKind = "request_setup"
)

// Default user facing messages
const (
	MessageSessionExpired     = "Your session has expired, please log in again"
	MessageInvalidCredentials = "Invalid nickname or password"
	MessageForbidden          = "You do not have permission to access this resource"
	MessageNotFound           = "The requested resource does not exist"
	MessageValidation         = "Input validation failed"
	MessageServerError        = "Internal server error"
	MessageRequestFailed      = "Request failed"
	MessageNetwork            = "Network error, please check your connection"
	MessageRequestSetup       = "Request configuration error"
)

// Notice is a transient message for the user
type Notice struct {
	Kind    NoticeKind
	Message string
	Status  int
}

type logNotifier struct {
	logger Logger
}

// LogNotifier writes notices to logger at warn level
func LogNotifier(logger Logger) Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return logNotifier{logger: logger}
}

func (n logNotifier) Notify(notice Notice) {
	n.logger.Warn(notice.Message, "kind", notice.Kind, "status", notice.Status)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
