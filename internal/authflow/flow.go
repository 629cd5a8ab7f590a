// Package authflow implements the two-step phone login: request an OTP,
// then verify it (plus a password for staff). The verify step exists only
// while the session carries a pending login, so the machine cannot reach
// "verify" without a phone number to verify against.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/limiter"
	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

// Mode selects which population is logging in.
type Mode int

const (
	ModePatient Mode = iota
	ModeStaff
)

var ErrUnknownMode = errors.New("unknown login mode")

// ParseMode accepts the mode strings the front-end sends.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient", "user":
		return ModePatient, nil
	case "staff", "admin", "non-user":
		return ModeStaff, nil
	default:
		return 0, ErrUnknownMode
	}
}

// State of the login machine, derived from the session rather than stored
// beside it.
type State int

const (
	StatePhone State = iota
	StateVerify
)

func StateOf(sess *session.Session) State {
	if sess != nil && sess.Login != nil {
		return StateVerify
	}
	return StatePhone
}

// Validation failures surface before any upstream call is made.
var (
	ErrPhoneRequired    = errors.New("phone number is required")
	ErrOTPRequired      = errors.New("otp is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrNoPendingLogin   = errors.New("no login in progress")
	ErrResendCooldown   = errors.New("please wait before requesting another code")
)

const defaultCountryCode = "+91"

type Flow struct {
	care     *care.Service
	sessions *session.Manager
	cooldown *limiter.Cooldown
}

func New(careSvc *care.Service, sessions *session.Manager, cooldown *limiter.Cooldown) *Flow {
	return &Flow{care: careSvc, sessions: sessions, cooldown: cooldown}
}

func cooldownKey(p *session.PendingLogin) string {
	return p.CountryCode + p.Phone
}

// RequestOTP validates the phone, asks the upstream to send a code, records
// the pending login and opens the resend cooldown.
func (f *Flow) RequestOTP(ctx context.Context, sess *session.Session, mode Mode, countryCode, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneRequired
	}
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	wire := upstream.Phone{CountryCode: countryCode, Number: phone}
	var err error
	switch mode {
	case ModePatient:
		err = f.care.RequestPatientOTP(ctx, sess, wire)
	case ModeStaff:
		err = f.care.RequestStaffOTP(ctx, sess, wire)
	default:
		return ErrUnknownMode
	}
	if err != nil {
		return err
	}

	pending := &session.PendingLogin{
		Phone:       phone,
		CountryCode: countryCode,
		Staff:       mode == ModeStaff,
		RequestedAt: time.Now().UTC(),
	}
	if err := f.sessions.SetPendingLogin(ctx, sess, pending); err != nil {
		return fmt.Errorf("record pending login: %w", err)
	}
	if err := f.cooldown.Start(ctx, cooldownKey(pending)); err != nil {
		// A broken cooldown store should not block logins.
		return nil
	}
	return nil
}

// ResendOTP re-requests a code for the pending login once the cooldown has
// elapsed.
func (f *Flow) ResendOTP(ctx context.Context, sess *session.Session) error {
	pending := sess.Login
	if pending == nil {
		return ErrNoPendingLogin
	}

	active, err := f.cooldown.Active(ctx, cooldownKey(pending))
	if err == nil && active {
		return ErrResendCooldown
	}

	wire := upstream.Phone{CountryCode: pending.CountryCode, Number: pending.Phone}
	if pending.Staff {
		err = f.care.RequestStaffOTP(ctx, sess, wire)
	} else {
		err = f.care.RequestPatientOTP(ctx, sess, wire)
	}
	if err != nil {
		return err
	}

	pending.RequestedAt = time.Now().UTC()
	if err := f.sessions.SetPendingLogin(ctx, sess, pending); err != nil {
		return fmt.Errorf("record pending login: %w", err)
	}
	f.cooldown.Start(ctx, cooldownKey(pending))
	return nil
}

// VerifyOTP completes the pending login. On success the session holds the
// tokens and normalized role, the pending state is gone, and the returned
// role tells the caller which dashboard to send the user to. On failure the
// pending login stays so the user can resubmit.
func (f *Flow) VerifyOTP(ctx context.Context, sess *session.Session, otp, password string) (roles.ID, error) {
	pending := sess.Login
	if pending == nil {
		return "", ErrNoPendingLogin
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return "", ErrOTPRequired
	}
	if pending.Staff && strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}

	var (
		result care.AuthResult
		err    error
	)
	if pending.Staff {
		result, err = f.care.VerifyStaffOTP(ctx, sess, otp, password)
	} else {
		wire := upstream.Phone{CountryCode: pending.CountryCode, Number: pending.Phone}
		result, err = f.care.VerifyPatientOTP(ctx, sess, wire, otp)
	}
	if err != nil {
		return "", err
	}

	if err := f.sessions.SetTokens(ctx, sess, result.AccessToken, result.RefreshToken); err != nil {
		return "", fmt.Errorf("store tokens: %w", err)
	}
	if err := f.sessions.SetIdentity(ctx, sess, result.Role, pending.Phone); err != nil {
		return "", fmt.Errorf("store identity: %w", err)
	}
	if err := f.sessions.SetPendingLogin(ctx, sess, nil); err != nil {
		return "", fmt.Errorf("clear pending login: %w", err)
	}
	return sess.Role, nil
}
