package handler

const (
	jsonKeyMessage = "message"

	paramID = "id"

	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidUserID           = "user id must be a positive integer"
	msgGenerateTokenFail       = "failed to generate token"

	msgUserRegistered   = "User registered successfully"
	msgUserSelfUpdated  = "User details updated successfully"
	msgUserAdminUpdated = "User updated successfully by Admin"
	msgUserDeleted      = "User deleted successfully"
)
