package i18n

// Message keys used by the login engine and the login page. Hosts may
// override any of them or add more languages via WithTranslations.
const (
	KeyLoginPageTitle               = "login_page_title"
	KeyLoginTitle                   = "login_title"
	KeyLoginDescription             = "login_description"
	KeyEmailLabel                   = "email"
	KeyPasswordLabel                = "password"
	KeyLoginButton                  = "login"
	KeyClose                        = "close"
	KeyEmailVerificationTitle       = "email_verification_title"
	KeyEmailVerificationDescription = "email_verification_description"
	KeyCompleteTitle                = "complete_title"
	KeyCompleteDescription          = "complete_description"
	KeyCompleteNoCallback           = "complete_description_no_callback"
	KeyFieldsEmpty                  = "fields_empty"
	KeyInvalidRequestTitle          = "invalid_request_body_title"
	KeyInvalidRequestMessage        = "invalid_request_body_message"
	KeyLoginFailedTitle             = "login_failed_title"
	KeyLoginFailedMessage           = "login_failed_message"
	KeyVerificationFailedTitle      = "email_verification_failed_title"
	KeyVerificationFailedMessage    = "email_verification_failed_message"
	KeyDefaultErrorTitle            = "default_error_title"
	KeyDefaultErrorMessage          = "default_error_message"
	KeySessionExpiredTitle          = "session_expired_title"
	KeySessionExpiredMessage        = "session_expired_message"
)

var defaultCatalog = map[string]string{
	KeyLoginPageTitle:               "Login page",
	KeyLoginTitle:                   "Login with HoYoLab",
	KeyLoginDescription:             "<span>Note:</span> We are not affiliated with HoYoLab.",
	KeyEmailLabel:                   "Email",
	KeyPasswordLabel:                "Password",
	KeyLoginButton:                  "Login",
	KeyClose:                        "Close",
	KeyEmailVerificationTitle:       "Email verification",
	KeyEmailVerificationDescription: "Enter the code sent to your email.",
	KeyCompleteTitle:                "Authorized",
	KeyCompleteDescription:          "Redirecting you in {seconds} seconds...",
	KeyCompleteNoCallback:           "You can now close this window.",
	KeyFieldsEmpty:                  "Some fields are empty.",
	KeyInvalidRequestTitle:          "Invalid request body.",
	KeyInvalidRequestMessage:        "Request body is invalid. Please report this error to the developer or try again later.",
	KeyLoginFailedTitle:             "Login failed.",
	KeyLoginFailedMessage:           "Could not login into your account. Please check your credentials and try again.",
	KeyVerificationFailedTitle:      "Email verification failed.",
	KeyVerificationFailedMessage:    "Could not verify your email. Please check the code and try again.",
	KeyDefaultErrorTitle:            "Something went wrong",
	KeyDefaultErrorMessage:          "Unexpected error occurred when requesting the server. Status - {status}.",
	KeySessionExpiredTitle:          "Session expired.",
	KeySessionExpiredMessage:        "This login session has expired. Please start over.",
}
