package http

import (
	"net/http"

	"github.com/stockdeck/stockdeck/internal/application"
)

// recoveryAck is returned for every forgot-password request, known address or
// not, so responses never reveal whether an account exists.
const recoveryAck = "If an account with this email exists, a password reset code has been sent."

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ForgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), req); err != nil {
		writeMappedError(w, "forgot_password", err)
		return
	}
	writeMessage(w, http.StatusOK, recoveryAck)
}

func (h *Handler) verifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyResetCodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if err := h.service.VerifyResetCode(r.Context(), req); err != nil {
		writeMappedError(w, "verify_reset_code", err)
		return
	}
	writeMessage(w, http.StatusOK, "Code verified successfully.")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeMappedError(w, "reset_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset successfully.")
}
