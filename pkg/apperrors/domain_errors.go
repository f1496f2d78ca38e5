package apperrors

// Sentinel errors returned by services and mapped to HTTP status codes in handlers.
var (
	ErrUserNotFound          = NotFound("user not found")
	ErrSelfConnection        = InvalidArg("cannot send a connection request to yourself")
	ErrAlreadyConnected      = AlreadyExists("users are already connected")
	ErrRequestPending        = AlreadyExists("a connection request between these users is already pending")
	ErrRequestNotFound       = NotFound("no pending connection request from this user")
	ErrRequestNotPending     = FailedPrecondition("connection request is no longer pending")
	ErrNotificationNotFound  = NotFound("notification not found")
	ErrNotificationOwner     = Forbidden("notification belongs to another user")
	ErrPostNotFound          = NotFound("post not found")
	ErrPostOwnerOnly         = Forbidden("only the post author can do this")
	ErrCommentNotFound       = NotFound("comment not found")
	ErrCommentOwnerOnly      = Forbidden("only the comment author can do this")
	ErrAlreadyLiked          = AlreadyExists("you have already liked this post")
	ErrLikeNotFound          = NotFound("you have not liked this post")
	ErrJobNotFound           = NotFound("job not found")
	ErrJobOwnerOnly          = Forbidden("only the job poster can do this")
	ErrJobClosed             = FailedPrecondition("this job posting is closed")
	ErrOwnJobApplication     = InvalidArg("cannot apply to your own job posting")
	ErrAlreadyApplied        = AlreadyExists("you have already applied to this job")
	ErrApplicationNotFound   = NotFound("application not found")
	ErrJobAlreadySaved       = AlreadyExists("job is already in your saved list")
	ErrJobNotSaved           = NotFound("job is not in your saved list")
	ErrConversationNotFound  = NotFound("conversation not found")
	ErrNotConversationMember = Forbidden("you are not a member of this conversation")
	ErrGroupAdminOnly        = Forbidden("only a group admin can do this")
	ErrSelfConversation      = InvalidArg("cannot start a conversation with yourself")
	ErrNotGroupConversation  = InvalidArg("this operation applies to group conversations only")
	ErrAlreadyGroupMember    = AlreadyExists("user is already in this group")
	ErrMemberNotInGroup      = NotFound("user is not in this group")
)
