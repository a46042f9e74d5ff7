package authapi

import (
	"encoding/json"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/core"
)

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type activateRequest struct {
	ActivationCode json.RawMessage `json:"activationCode"`
}

type revokeRequest struct {
	SessionID json.RawMessage `json:"sessionId"`
}

type loginResponse struct {
	Message   string        `json:"message"`
	Session   string        `json:"session"`
	SessionID int64         `json:"sessionId"`
	User      core.UserView `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var okResponse = messageResponse{Message: "OK"}
