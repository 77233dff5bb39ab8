package portal

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// Banner and feedback texts. The login failure text is deliberately shared
// between unknown email and wrong password so the response cannot be used
// to enumerate accounts.
const (
	msgFillAllFields        = "Please fill in all fields"
	msgInvalidCredentials   = "Invalid email or password"
	msgEmailExists          = "Email already exists"
	msgRegistrationFailed   = "Registration failed. Please try again."
	msgProfileUpdateFailed  = "Failed to update profile. Please try again."
	msgPasswordUpdateFailed = "Failed to update password. Please try again."
	msgProfileUpdated       = "Profile updated successfully!"
	msgPasswordUpdated      = "Password updated successfully!"
	msgTryAgain             = "Something went wrong. Please try again."
	msgPasswordRequired     = "Password is required"
	msgCurrentPasswordOK    = "✓ Current password is correct"
	msgCurrentPasswordBad   = "✗ Current password is incorrect"
	msgCurrentPasswordWrong = "Current password is incorrect"
)

type AuthControllerRoutes struct {
	Home      string
	Login     string
	Logout    string
	Register  string
	Dashboard string
	Profile   string
}

type AuthControllerViews struct {
	Home      string
	Login     string
	Register  string
	Dashboard string
	Profile   string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Users    Users
	Sessions *SessionManager
	Routes   *AuthControllerRoutes
	Views    *AuthControllerViews
}

type AuthControllerOption func(*AuthController) *AuthController

// WithLogger replaces the fallback logger.
func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Home:      "/",
			Login:     "/login",
			Logout:    "/logout",
			Register:  "/register",
			Dashboard: "/dashboard",
			Profile:   "/profile",
		},
		Views: &AuthControllerViews{
			Home:      "index",
			Login:     "login",
			Register:  "register",
			Dashboard: "dashboard",
			Profile:   "edit_profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts every portal route, with the access guard in
// front of the session-gated ones.
func RegisterAuthRoutes(app *fiber.App, opts ...AuthControllerOption) *AuthController {
	c := NewAuthController(opts...)
	guard := c.Sessions

	app.Get(c.Routes.Home, c.HomeShow)

	app.Get(c.Routes.Login, c.LoginShow)
	app.Post(c.Routes.Login, c.LoginPost)
	app.Get(c.Routes.Logout, c.LogOut)

	app.Get(c.Routes.Register, c.RegistrationShow)
	app.Post(c.Routes.Register, c.RegistrationCreate)

	app.Get(c.Routes.Dashboard, guard.Protect(RouteAuthenticated), c.DashboardShow)

	app.Get(c.Routes.Profile, guard.Protect(RouteProfileEdit), c.ProfileShow)
	app.Post(c.Routes.Profile, guard.Protect(RouteProfileEdit), c.ProfilePost)

	return c
}

func (a *AuthController) HomeShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Home, fiber.Map{})
}

// LoginPayload is the login form payload
type LoginPayload struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (a *AuthController) LoginShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Login, fiber.Map{
		"email_value": "",
	})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render(a.Views.Login, fiber.Map{
			"error_message": msgTryAgain,
			"email_value":   "",
		})
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		return a.renderLogin(c, msgFillAllFields, email)
	}

	user, err := a.Users.GetByEmail(c.Context(), email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		a.Logger.Error("login lookup", "error", err)
		return a.renderLogin(c, msgTryAgain, email)
	}

	if err != nil {
		// unknown emails pay the same bcrypt cost as wrong passwords
		_ = ComparePasswordAndHash(payload.Password, RandomPasswordHash())
		return a.renderLogin(c, msgInvalidCredentials, email)
	}

	if ComparePasswordAndHash(payload.Password, user.PasswordHash) != nil {
		return a.renderLogin(c, msgInvalidCredentials, email)
	}

	// the session caches the stored record, not the submitted form, so the
	// dashboard always mirrors the credential store
	if err := a.Sessions.Establish(c, user.ID, user.Name, user.Email, user.Role); err != nil {
		a.Logger.Error("login establish session", "error", err)
		return a.renderLogin(c, msgTryAgain, email)
	}

	return c.Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *AuthController) renderLogin(c *fiber.Ctx, message, email string) error {
	return c.Render(a.Views.Login, fiber.Map{
		"error_message": message,
		"email_value":   email,
	})
}

func (a *AuthController) LogOut(c *fiber.Ctx) error {
	if err := a.Sessions.Destroy(c); err != nil {
		a.Logger.Error("logout destroy session", "error", err)
	}
	return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

// RegisterPayload is the registration form payload
type RegisterPayload struct {
	Role            string `form:"role"`
	Name            string `form:"name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

// Validate will run validation rules, collecting every field failure
func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("Name is required"),
		),
		validation.Field(&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email format"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must be at least 6 characters long"),
		),
		validation.Field(&p.ConfirmPassword,
			validation.Required.Error("Please confirm your password"),
			validation.By(ValidateStringEquals(p.Password, "Passwords do not match")),
		),
		validation.Field(&p.Role,
			validation.Required.Error("Invalid account type selected"),
			validation.In("admin", "user", "guest").Error("Invalid account type selected"),
		),
	)
}

func (a *AuthController) RegistrationShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Register, fiber.Map{
		"record": RegisterPayload{Role: string(RoleUser)},
	})
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render(a.Views.Register, fiber.Map{
			"error_message": msgRegistrationFailed,
			"record":        RegisterPayload{Role: string(RoleUser)},
		})
	}

	if payload.Role == "" {
		payload.Role = string(RoleUser)
	}

	// guest access skips validation and persistence entirely
	if role, ok := ParseRole(payload.Role); ok && role == RoleGuest {
		if err := a.Sessions.Establish(c, GuestUserID, GuestName, GuestEmail, RoleGuest); err != nil {
			a.Logger.Error("guest establish session", "error", err)
			return c.Render(a.Views.Register, fiber.Map{
				"error_message": msgRegistrationFailed,
				"record":        payload,
			})
		}
		return c.Redirect(a.Routes.Dashboard+"?welcome=guest", fiber.StatusSeeOther)
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)

	errs := validationMessages(payload.Validate(), registerFieldOrder)

	if len(errs) == 0 {
		taken, err := a.Users.EmailTaken(c.Context(), payload.Email, 0)
		if err != nil {
			a.Logger.Error("register uniqueness check", "error", err)
			return c.Render(a.Views.Register, fiber.Map{
				"error_message": msgRegistrationFailed,
				"record":        payload,
			})
		}
		if taken {
			errs = append(errs, msgEmailExists)
		}
	}

	if len(errs) > 0 {
		return c.Render(a.Views.Register, fiber.Map{
			"errors": errs,
			"record": payload,
		})
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		a.Logger.Error("register hash password", "error", err)
		return c.Render(a.Views.Register, fiber.Map{
			"error_message": msgRegistrationFailed,
			"record":        payload,
		})
	}

	role, _ := ParseRole(payload.Role)
	_, err = a.Users.Create(c.Context(), &User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		// the constraint is the authority; the pre-check above only
		// catches the easy case
		if errors.Is(err, ErrDuplicateEmail) {
			return c.Render(a.Views.Register, fiber.Map{
				"errors": []string{msgEmailExists},
				"record": payload,
			})
		}
		a.Logger.Error("register create user", "error", err)
		return c.Render(a.Views.Register, fiber.Map{
			"error_message": msgRegistrationFailed,
			"record":        payload,
		})
	}

	a.Logger.Info("user registered", "email", payload.Email, "role", payload.Role)

	return c.Render(a.Views.Register, fiber.Map{
		"success": true,
		"record":  RegisterPayload{Role: string(RoleUser)},
	})
}

func (a *AuthController) DashboardShow(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	return c.Render(a.Views.Dashboard, fiber.Map{
		"user_id":          user.ID,
		"user_name":        user.Name,
		"user_email":       user.Email,
		"user_role":        string(user.Role),
		"is_guest":         user.IsGuest(),
		"session_started":  user.StartedAt.Format("15:04:05"),
		"welcome_guest":    c.Query("welcome") == "guest",
		"guest_restricted": c.Query("error") == "guest_restricted",
	})
}

// UpdateProfilePayload is the update_profile form payload
type UpdateProfilePayload struct {
	Name  string `form:"name"`
	Email string `form:"email"`
}

func (p UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("Name is required"),
		),
		validation.Field(&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email format"),
		),
	)
}

// UpdatePasswordPayload is the update_password form payload
type UpdatePasswordPayload struct {
	CurrentPassword string `form:"current_password"`
	NewPassword     string `form:"new_password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (p UpdatePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword,
			validation.Required.Error("Current password is required"),
		),
		validation.Field(&p.NewPassword,
			validation.Required.Error("New password is required"),
			validation.Length(6, 0).Error("New password must be at least 6 characters long"),
			validation.By(ValidateStringDiffers(p.CurrentPassword, "New password must be different from current password")),
		),
		validation.Field(&p.ConfirmPassword,
			validation.Required.Error("Please confirm your new password"),
			validation.By(ValidateStringEquals(p.NewPassword, "New passwords do not match")),
		),
	)
}

func (a *AuthController) ProfileShow(c *fiber.Ctx) error {
	return a.profileWithRecord(c, fiber.Map{})
}

// ProfilePost dispatches the profile page's three sub-operations: the live
// AJAX password check first, then the action discriminator.
func (a *AuthController) ProfilePost(c *fiber.Ctx) error {
	if c.FormValue("ajax_action") == "verify_current_password" {
		return a.verifyCurrentPassword(c)
	}

	switch c.FormValue("action") {
	case "update_profile":
		return a.updateProfile(c)
	case "update_password":
		return a.updatePassword(c)
	default:
		return a.ProfileShow(c)
	}
}

// verifyCurrentPassword answers the live UI check. It never mutates state.
func (a *AuthController) verifyCurrentPassword(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	current := c.FormValue("current_password")
	if current == "" {
		// no store read for empty input
		return c.JSON(fiber.Map{"valid": false, "message": msgPasswordRequired})
	}

	record, err := a.Users.GetByID(c.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			a.Logger.Error("verify password lookup", "error", err)
		}
		return c.JSON(fiber.Map{"valid": false, "message": msgCurrentPasswordBad})
	}

	if ComparePasswordAndHash(current, record.PasswordHash) != nil {
		return c.JSON(fiber.Map{"valid": false, "message": msgCurrentPasswordBad})
	}

	return c.JSON(fiber.Map{"valid": true, "message": msgCurrentPasswordOK})
}

func (a *AuthController) updateProfile(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	payload := new(UpdateProfilePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("profile parse payload", "error", err)
		return a.profileWithRecord(c, fiber.Map{"error_message": msgProfileUpdateFailed})
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)

	errs := validationMessages(payload.Validate(), profileFieldOrder)

	if len(errs) == 0 {
		taken, err := a.Users.EmailTaken(c.Context(), payload.Email, user.ID)
		if err != nil {
			a.Logger.Error("profile uniqueness check", "error", err)
			return a.profileWithRecord(c, fiber.Map{"error_message": msgProfileUpdateFailed})
		}
		if taken {
			errs = append(errs, msgEmailExists)
		}
	}

	if len(errs) > 0 {
		return a.profileWithRecord(c, fiber.Map{"error_messages": errs})
	}

	updated, err := a.Users.UpdateProfile(c.Context(), user.ID, payload.Name, payload.Email)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return a.profileWithRecord(c, fiber.Map{"error_messages": []string{msgEmailExists}})
		}
		a.Logger.Error("profile update", "error", err)
		return a.profileWithRecord(c, fiber.Map{"error_message": msgProfileUpdateFailed})
	}

	// the store accepted the change; only now overwrite the session cache
	if err := a.Sessions.UpdateCachedProfile(c, updated.Name, updated.Email); err != nil {
		a.Logger.Error("profile session cache update", "error", err)
	}
	user.Name, user.Email = updated.Name, updated.Email

	return a.renderProfile(c, updated, fiber.Map{"success_message": msgProfileUpdated})
}

func (a *AuthController) updatePassword(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	payload := new(UpdatePasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("password parse payload", "error", err)
		return a.profileWithRecord(c, fiber.Map{"error_message": msgPasswordUpdateFailed})
	}

	errs := validationMessages(payload.Validate(), passwordFieldOrder)

	var record *User
	if len(errs) == 0 {
		var err error
		record, err = a.Users.GetByID(c.Context(), user.ID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				_ = a.Sessions.Destroy(c)
				return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
			}
			a.Logger.Error("password lookup", "error", err)
			return a.profileWithRecord(c, fiber.Map{"error_message": msgPasswordUpdateFailed})
		}

		// a wrong current password joins the validation errors rather
		// than getting a status of its own
		if ComparePasswordAndHash(payload.CurrentPassword, record.PasswordHash) != nil {
			errs = append(errs, msgCurrentPasswordWrong)
		}
	}

	if len(errs) > 0 {
		return a.profileWithRecord(c, fiber.Map{"error_messages": errs})
	}

	hash, err := HashPassword(payload.NewPassword)
	if err != nil {
		a.Logger.Error("password hash", "error", err)
		return a.profileWithRecord(c, fiber.Map{"error_message": msgPasswordUpdateFailed})
	}

	if err := a.Users.UpdatePassword(c.Context(), user.ID, hash); err != nil {
		a.Logger.Error("password update", "error", err)
		return a.profileWithRecord(c, fiber.Map{"error_message": msgPasswordUpdateFailed})
	}

	return a.renderProfile(c, record, fiber.Map{"success_message": msgPasswordUpdated})
}

// profileWithRecord re-reads the current user's row for display. A session
// whose row vanished is torn down instead of rendered.
func (a *AuthController) profileWithRecord(c *fiber.Ctx, data fiber.Map) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	record, err := a.Users.GetByID(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = a.Sessions.Destroy(c)
			return c.Redirect(a.Routes.Login, fiber.StatusSeeOther)
		}
		a.Logger.Error("profile lookup", "error", err)
		record = &User{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
		if _, hasBanner := data["error_message"]; !hasBanner {
			data["error_message"] = msgTryAgain
		}
	}

	return a.renderProfile(c, record, data)
}

func (a *AuthController) renderProfile(c *fiber.Ctx, record *User, data fiber.Map) error {
	user, _ := CurrentUser(c)

	vc := fiber.Map{
		"session_name":   user.Name,
		"session_role":   string(user.Role),
		"record":         record,
		"record_role":    string(record.Role),
		"from_dashboard": c.Query("from") == "dashboard",
	}
	for k, v := range data {
		vc[k] = v
	}

	return c.Render(a.Views.Profile, vc)
}

// field display order for aggregated validation banners
var (
	registerFieldOrder = []string{"Name", "Email", "Password", "ConfirmPassword", "Role"}
	profileFieldOrder  = []string{"Name", "Email"}
	passwordFieldOrder = []string{"CurrentPassword", "NewPassword", "ConfirmPassword"}
)

// validationMessages flattens an ozzo validation result into banner lines,
// in a stable field order.
func validationMessages(err error, order []string) []string {
	if err == nil {
		return nil
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{err.Error()}
	}

	var out []string
	for _, field := range order {
		if ferr, found := errs[field]; found && ferr != nil {
			out = append(out, ferr.Error())
		}
	}
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(message)
		}
		return nil
	}
}

// ValidateStringDiffers will check that the values do not match
func ValidateStringDiffers(str, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == str {
			return errors.New(message)
		}
		return nil
	}
}
