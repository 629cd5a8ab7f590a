package care

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

// ErrMissingToken marks a 200 verify response that did not contain an access
// token under either of the field names the upstream has been seen using.
var ErrMissingToken = errors.New("verification succeeded but no access token was returned")

// AuthResult is the outcome of a successful OTP verification.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

// decodeAuthResult accepts both token field names the upstream uses. A
// response without a token is a failure even on HTTP 200.
func decodeAuthResult(body []byte) (AuthResult, error) {
	var payload struct {
		AccessToken  string `json:"accessToken"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		Role         string `json:"role"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return AuthResult{}, ErrMissingToken
	}

	token := payload.AccessToken
	if token == "" {
		token = payload.Token
	}
	if token == "" {
		return AuthResult{}, ErrMissingToken
	}
	return AuthResult{
		AccessToken:  token,
		RefreshToken: payload.RefreshToken,
		Role:         payload.Role,
	}, nil
}

// RequestPatientOTP asks the upstream to send a login code to a patient's
// phone.
func (s *Service) RequestPatientOTP(ctx context.Context, sess *session.Session, phone upstream.Phone) error {
	_, err := s.api.Do(ctx, sess, "/auth/user/request-otp", upstream.Options{
		Method:    http.MethodPost,
		Anonymous: true,
		Body:      map[string]any{"phone": phone},
	})
	return err
}

// VerifyPatientOTP completes a patient login with phone and code.
func (s *Service) VerifyPatientOTP(ctx context.Context, sess *session.Session, phone upstream.Phone, otp string) (AuthResult, error) {
	body, err := s.api.Do(ctx, sess, "/auth/user/verify-otp", upstream.Options{
		Method:    http.MethodPost,
		Anonymous: true,
		Body:      map[string]any{"phone": phone, "otp": otp},
	})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// RequestStaffOTP asks the upstream to send a login code to a staff phone.
func (s *Service) RequestStaffOTP(ctx context.Context, sess *session.Session, phone upstream.Phone) error {
	_, err := s.api.Do(ctx, sess, "/auth/non-user/request-otp", upstream.Options{
		Method:    http.MethodPost,
		Anonymous: true,
		Body:      map[string]any{"phone": phone},
	})
	return err
}

// VerifyStaffOTP completes a staff login. Staff verification carries only
// the code and the account password; the upstream correlates the code with
// the phone it was sent to.
func (s *Service) VerifyStaffOTP(ctx context.Context, sess *session.Session, otp, password string) (AuthResult, error) {
	body, err := s.api.Do(ctx, sess, "/auth/non-user/verify-otp", upstream.Options{
		Method:    http.MethodPost,
		Anonymous: true,
		Body:      map[string]any{"otp": otp, "password": password},
	})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// Logout tells the upstream to invalidate the session's tokens. Best effort:
// the local session is destroyed regardless.
func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	_, err := s.api.Do(ctx, sess, "/auth/logout", upstream.Options{Method: http.MethodPost})
	return err
}
