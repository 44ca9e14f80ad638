// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchkit/launchkit/internal/platform/middleware"
	requestutil "github.com/launchkit/launchkit/internal/platform/request"
	"github.com/launchkit/launchkit/internal/platform/respond"
	"github.com/launchkit/launchkit/internal/platform/validate"
	"github.com/launchkit/launchkit/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the account HTTP endpoints.
//
// # Scope
//
// This layer is strictly responsible for transport concerns (status codes,
// headers, JSON shapes). All business rules live in [Service].
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the account lifecycle endpoints.
//
// # Endpoints
//   - POST /register             : Creates a new account with its profile.
//   - POST /login                : Authenticates and returns a token pair.
//   - POST /token/refresh        : Rotates the refresh token.
//   - POST /logout               : Revokes the presented refresh token.
//   - POST /reset-password-email : Starts the forgot-password flow.
//   - POST /reset-password       : Completes the forgot-password flow.
//   - PUT/PATCH /change-password : Authenticated password rotation.
//   - GET /profile               : Own account and profile.
//   - PUT/PATCH /profile/update  : Partial update of own profile.
//
// The authThrottle middleware is applied to the anonymous credential
// endpoints only, so authenticated profile traffic is never throttled by it.
func (handler *Handler) Routes(authThrottle func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	// Public endpoints, throttled per client IP
	router.Group(func(r chi.Router) {
		if authThrottle != nil {
			r.Use(authThrottle)
		}
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/token/refresh", handler.refresh)
		r.Post("/logout", handler.logout)
		r.Post("/reset-password-email", handler.requestPasswordReset)
		r.Post("/reset-password", handler.confirmPasswordReset)
	})

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/change-password", handler.changePassword)
		r.Patch("/change-password", handler.changePassword)
		r.Get("/profile", handler.profile)
		r.Put("/profile/update", handler.updateProfile)
		r.Patch("/profile/update", handler.updateProfile)
	})

	return router
}

// RegisterAdminRoutes attaches the staff-only audit endpoints to the given
// router. The caller is expected to guard it with [middleware.RequireStaff].
func (handler *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/login-attempts", handler.loginAttempts)
}

// # Request Payloads

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type changePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	UID       string `json:"uid"`
	Token     string `json:"token"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	PhoneNumber *string `json:"phone_number"`
}

// # Account Lifecycle

/*
Register creates a new account.

POST /api/v1/register

Response:
  - 201: Account: Created account fields
  - 400: Validation failure, including duplicate username/email field errors
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	account, err := handler.accountService.Register(request.Context(), RegisterInput{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
		Password2: input.Password2,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

/*
Login authenticates an account and issues a token pair.

POST /api/v1/login

Response:
  - 200: access/refresh tokens plus the account
  - 401: Invalid credentials
  - 429: Locked out after repeated failures
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.accountService.Login(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"access":  session.AccessToken,
		"refresh": session.RefreshToken,
		"user":    session.Account,
	})
}

/*
Refresh rotates a refresh token and issues a fresh pair.

POST /api/v1/token/refresh

Response:
  - 200: New access/refresh tokens
  - 401: Expired, revoked, or unknown refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := (&validate.Validator{}).Required(FieldRefresh, input.Refresh)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.accountService.RefreshSession(
		request.Context(),
		input.Refresh,
		request.UserAgent(),
		middleware.RealIP(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"access":  session.AccessToken,
		"refresh": session.RefreshToken,
	})
}

/*
Logout revokes the presented refresh token. Always succeeds, even when the
token is unknown or already revoked.

POST /api/v1/logout

Response:
  - 204: Session revoked or already gone
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Refresh != "" {
		if err := handler.accountService.Logout(request.Context(), input.Refresh); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	respond.NoContent(writer)
}

// # Password Endpoints

/*
ChangePassword rotates the caller's password after checking the old one.

PUT|PATCH /api/v1/change-password

Response:
  - 200: Detail message
  - 400: old_password wrong, policy failure, or mismatch
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err = handler.accountService.ChangePassword(request.Context(), claims.UserID, claims.ID, ChangePasswordInput{
		OldPassword:  input.OldPassword,
		NewPassword:  input.NewPassword,
		NewPassword2: input.NewPassword2,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password changed successfully.")
}

/*
RequestPasswordReset starts the forgot-password flow.

POST /api/v1/reset-password-email

The success body is identical whether or not the account exists.

Response:
  - 200: Generic detail message
  - 400: Missing or malformed email
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input resetRequestRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.accountService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, ResetRequestedMessage)
}

/*
ConfirmPasswordReset completes the forgot-password flow.

POST /api/v1/reset-password

Response:
  - 200: Detail message
  - 400: INVALID_TOKEN or policy failure
*/
func (handler *Handler) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input resetConfirmRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.accountService.ConfirmPasswordReset(request.Context(), ConfirmResetInput{
		UID:       input.UID,
		Token:     input.Token,
		Password:  input.Password,
		Password2: input.Password2,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password has been reset successfully.")
}

// # Profile Endpoints

/*
Profile returns the caller's account and profile.

GET /api/v1/profile

Response:
  - 200: user + profile
  - 401: Unauthenticated
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	accountProfile, err := handler.accountService.GetProfile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"user":    accountProfile.Account,
		"profile": accountProfile.Profile,
	})
}

/*
UpdateProfile applies a partial update to the caller's own profile. The
target account always comes from the access token, never from the body.

PUT|PATCH /api/v1/profile/update

Response:
  - 200: Updated user + profile
  - 400: Validation failure
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	accountProfile, err := handler.accountService.UpdateProfile(request.Context(), accountID, UpdateProfileInput{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Bio:         input.Bio,
		AvatarURL:   input.AvatarURL,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"user":    accountProfile.Account,
		"profile": accountProfile.Profile,
	})
}

// # Admin Endpoints

/*
LoginAttempts lists the login audit log newest-first.

GET /api/v1/admin/login-attempts

Response:
  - 200: Paginated audit rows
  - 403: Caller is not staff
*/
func (handler *Handler) loginAttempts(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	attempts, total, err := handler.accountService.LoginAttempts(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, attempts, pagination.NewMeta(page.Page, page.Limit, total))
}
