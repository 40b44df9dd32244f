package service

// Client-facing messages. They are part of the HTTP contract.
const (
	msgRegisterMissingFields = "Please fill in all the fields."
	msgRegisterBadUsername   = `Your username cannot contain "@" or a whitespace.`
	msgRegisterBadEmail      = "Please provide a valid email address."
	msgPasswordTooShort      = "Your password needs to be at least 6 characters long."
	msgPasswordTooLong       = "Your password cannot be longer than 72 bytes."
	msgPasswordMismatch      = "Passwords do not match."
	msgUsernameTakenFmt      = "Username '%s' is already in use, please register with a different one."
	msgEmailTakenFmt         = "Email address '%s' is already in use, please register with a different one."
	msgRegisterFailed        = "Could not register."

	msgLoginMissingFields = "Please provide both email and password in order to login."
	msgInvalidCredentials = "Invalid credentials."
	msgLoginFailed        = "Could not sign you in."

	msgForgotMissingIdentifier = "Please provide your email address or username."
	msgEmailNotFound           = "Email address could not be found."
	msgUsernameNotFound        = "Username could not be found."
	msgEmailNotSent            = "Email could not be sent."

	msgResetMissingPassword = "Please provide a new password."
	msgResetTokenInvalid    = "The token to reset your password is wrong or has expired. Please reset your password within 15 minutes of sending the reset request."
	msgResetFailed          = "Could not reset your password."

	// MsgUserInfoFailed is shared with the bearer middleware.
	MsgUserInfoFailed = "Could not get user info, please try again or sign out then in again."
)

const minPasswordLength = 6
