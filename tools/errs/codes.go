package errs

// Wire codes. These values are part of the client protocol: every inbound
// event that expects a reply is acknowledged with {"error": <code>, ...} and
// 0 means success. Keep them stable.
const (
	NoErr      = 0
	ErrUnknown = 500

	// chat
	ErrInvalidChatroom  = 600
	ErrReceiverRequired = 601
	ErrMessageSend      = 602
	ErrUserNotConnected = 603
	ErrHistoryFetch     = 604
	ErrChatroomConflict = 605

	// account
	ErrInvalidAccessToken = 1000
	ErrInvalidCredentials = 1001
	ErrInvalidRole        = 1002
	ErrInvalidAuthServer  = 1003
	ErrAuthServerFailure  = 1004
)

// ===== predefined errors =====

var (
	ErrRoomNotFound    = NewCodeError(ErrInvalidChatroom, "chatroom not found")
	ErrNotAMember      = NewCodeError(ErrInvalidChatroom, "not a chatroom member")
	ErrRoomConflict    = NewCodeError(ErrChatroomConflict, "chatroom name already registered")
	ErrSendMessage     = NewCodeError(ErrMessageSend, "message can't be sent")
	ErrHistory         = NewCodeError(ErrHistoryFetch, "history can't be retrieved")
	ErrToken           = NewCodeError(ErrInvalidAccessToken, "invalid access token")
	ErrRole            = NewCodeError(ErrInvalidRole, "missing required role")
	ErrAuthServer      = NewCodeError(ErrInvalidAuthServer, "invalid auth server configuration")
	ErrAuthUnreachable = NewCodeError(ErrAuthServerFailure, "auth server unreachable")
	ErrMalformed       = NewCodeError(ErrUnknown, "malformed payload")
)
