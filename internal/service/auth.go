package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/learning-platform/internal/logging"
	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/repository"
	"github.com/iliyamo/learning-platform/internal/utils"
)

// UserStore is the credential store.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id, hash string, now time.Time) error
}

// SessionStore persists sessions by token hash.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID, exceptID string) (int64, error)
}

// ResetStore persists password reset codes.
type ResetStore interface {
	Create(ctx context.Context, pr model.PasswordReset) error
	Latest(ctx context.Context, userID, code string) (model.PasswordReset, error)
	MarkUsed(ctx context.Context, id string, now time.Time) error
	Release(ctx context.Context, id string) error
}

// IssuedSession is what the handler needs to set the session cookie.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

type Options struct {
	BcryptCost int
	SessionTTL time.Duration
	ResetTTL   time.Duration
	Now        func() time.Time
}

// AuthService orchestrates the credential, session and reset stores.  It
// holds no mutable state of its own; the database is the only
// synchronization point between concurrent requests.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	resets   ResetStore
	audit    Auditor
	notifier ResetNotifier
	log      logging.Logger

	cost       int
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time

	// dummyHash is compared against for unknown emails so a miss costs the
	// same bcrypt work as a wrong password.  Built once, at cost.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, sessions SessionStore, resets ResetStore, audit Auditor, notifier ResetNotifier, log logging.Logger, opts Options) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	return &AuthService{
		users: users, sessions: sessions, resets: resets,
		audit: audit, notifier: notifier, log: log,
		cost: opts.BcryptCost, sessionTTL: opts.SessionTTL, resetTTL: opts.ResetTTL, now: opts.Now,
	}
}

func (s *AuthService) clock() time.Time { return s.now().UTC() }

type SignupInput struct {
	Email    string
	Password string
	Name     *string
	IP       string
}

// Signup creates the account and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (model.User, IssuedSession, error) {
	email, err := ValidateEmail(in.Email)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}
	if err := ValidatePassword("password", in.Password); err != nil {
		return model.User{}, IssuedSession{}, err
	}
	name, err := NormalizeName(in.Name)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return model.User{}, IssuedSession{}, dependency("hash password", err)
	}
	now := s.clock()
	u := model.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, IssuedSession{}, ErrConflict
		}
		return model.User{}, IssuedSession{}, dependency("create user", err)
	}

	sess, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}
	s.audit.Record(ctx, model.AuditEntry{UserID: u.ID, Action: model.AuditSignup, Details: map[string]any{"email": email}, IP: in.IP, CreatedAt: now})
	return u, sess, nil
}

// Signin verifies the password and issues a new session.  Additional
// sessions of the same user stay valid.
func (s *AuthService) Signin(ctx context.Context, email, password, ip string) (model.User, IssuedSession, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}
	if password == "" {
		return model.User{}, IssuedSession{}, invalid("password", "missing")
	}

	u, err := s.VerifyPassword(ctx, email, password)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}
	sess, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return model.User{}, IssuedSession{}, err
	}
	s.audit.Record(ctx, model.AuditEntry{UserID: u.ID, Action: model.AuditSignin, Details: map[string]any{"email": email}, IP: ip, CreatedAt: s.clock()})
	return u, sess, nil
}

// VerifyPassword returns the user when email and password match, and
// ErrInvalidCredentials for an unknown email or a wrong password alike.
func (s *AuthService) VerifyPassword(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnCompare(password)
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, dependency("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		if h, err := utils.HashPassword("not-a-real-password", s.cost); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_ = utils.VerifyPassword(s.dummyHash, password)
	}
}

// Signout deletes the session behind token.  An empty, unknown or expired
// token is not an error.
func (s *AuthService) Signout(ctx context.Context, token, ip string) error {
	if !wellFormedToken(token) {
		return nil
	}
	id := utils.HashToken(token)
	sess, lookupErr := s.sessions.Get(ctx, id)
	if err := s.sessions.Delete(ctx, id); err != nil {
		return dependency("delete session", err)
	}
	if lookupErr == nil {
		s.audit.Record(ctx, model.AuditEntry{UserID: sess.UserID, Action: model.AuditSignout, IP: ip, CreatedAt: s.clock()})
	}
	return nil
}

// ResolveSession maps a cookie token to its live session.  It returns
// ErrUnauthenticated for anything that is not a live session and a
// *DependencyError when the store fails.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (model.Session, error) {
	if !wellFormedToken(token) {
		return model.Session{}, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Session{}, ErrUnauthenticated
		}
		return model.Session{}, dependency("load session", err)
	}
	if s.clock().After(sess.ExpiresAt) {
		return model.Session{}, ErrUnauthenticated
	}
	return sess, nil
}

// CurrentUser resolves token to the owning user.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (model.User, error) {
	sess, err := s.ResolveSession(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUnauthenticated
		}
		return model.User{}, dependency("load user", err)
	}
	return u, nil
}

// RequestReset issues a reset code when email belongs to an account and
// returns it; for unknown addresses it returns "" and no error, so the
// caller answers identically either way.
func (s *AuthService) RequestReset(ctx context.Context, email, ip string) (string, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", dependency("load user", err)
	}
	code, err := utils.NewResetCode()
	if err != nil {
		return "", dependency("generate code", err)
	}
	now := s.clock()
	pr := model.PasswordReset{ID: uuid.NewString(), UserID: u.ID, Code: code, CreatedAt: now, ExpiresAt: now.Add(s.resetTTL)}
	if err := s.resets.Create(ctx, pr); err != nil {
		return "", dependency("store reset code", err)
	}
	s.notifier.ResetCodeIssued(ctx, u.Email, code, pr.ExpiresAt)
	s.audit.Record(ctx, model.AuditEntry{UserID: u.ID, Action: model.AuditResetRequested, IP: ip, CreatedAt: now})
	return code, nil
}

type ResetInput struct {
	Email       string
	Code        string
	NewPassword string
	IP          string
}

// ConsumeReset sets a new password using a reset code, revokes every
// existing session of the user and signs the user in.
func (s *AuthService) ConsumeReset(ctx context.Context, in ResetInput) (IssuedSession, error) {
	email, err := ValidateEmail(in.Email)
	if err != nil {
		return IssuedSession{}, err
	}
	if !validResetCode(in.Code) {
		return IssuedSession{}, invalid("code", "invalid")
	}
	if err := ValidatePassword("password", in.NewPassword); err != nil {
		return IssuedSession{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return IssuedSession{}, ErrInvalidOrExpired
		}
		return IssuedSession{}, dependency("load user", err)
	}
	pr, err := s.resets.Latest(ctx, u.ID, in.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return IssuedSession{}, ErrInvalidOrExpired
		}
		return IssuedSession{}, dependency("load reset code", err)
	}
	now := s.clock()
	if pr.Used || pr.Expired(now) {
		return IssuedSession{}, ErrInvalidOrExpired
	}
	// Claim the code before touching the password so two concurrent
	// requests cannot both succeed.
	if err := s.resets.MarkUsed(ctx, pr.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return IssuedSession{}, ErrInvalidOrExpired
		}
		return IssuedSession{}, dependency("mark reset code used", err)
	}

	hash, err := utils.HashPassword(in.NewPassword, s.cost)
	if err == nil {
		err = s.users.UpdatePassword(ctx, u.ID, hash, now)
	}
	if err != nil {
		// The password is unchanged, so the code stays usable.
		if rerr := s.resets.Release(context.WithoutCancel(ctx), pr.ID); rerr != nil {
			s.log.Error(ctx, "release reset code", "user_id", u.ID, "err", rerr)
		}
		return IssuedSession{}, dependency("update password", err)
	}
	if _, err := s.sessions.DeleteAllForUser(ctx, u.ID, ""); err != nil {
		return IssuedSession{}, dependency("revoke sessions", err)
	}
	sess, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return IssuedSession{}, err
	}
	s.audit.Record(ctx, model.AuditEntry{UserID: u.ID, Action: model.AuditPasswordReset, IP: in.IP, CreatedAt: now})
	return sess, nil
}

type ChangePasswordInput struct {
	UserID          string
	SessionToken    string
	CurrentPassword string
	NewPassword     string
	IP              string
}

// ChangePassword replaces the password after checking the current one.
// Every other session of the user is revoked; the calling session stays.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return invalid("password", "missing")
	}
	if err := ValidatePassword("newPassword", in.NewPassword); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return dependency("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := utils.HashPassword(in.NewPassword, s.cost)
	if err != nil {
		return dependency("hash password", err)
	}
	now := s.clock()
	if err := s.users.UpdatePassword(ctx, u.ID, hash, now); err != nil {
		return dependency("update password", err)
	}
	if _, err := s.sessions.DeleteAllForUser(ctx, u.ID, utils.HashToken(in.SessionToken)); err != nil {
		return dependency("revoke sessions", err)
	}
	s.audit.Record(ctx, model.AuditEntry{UserID: u.ID, Action: model.AuditPasswordChange, Details: map[string]any{"success": true}, IP: in.IP, CreatedAt: now})
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (IssuedSession, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return IssuedSession{}, dependency("generate session token", err)
	}
	now := s.clock()
	row := model.Session{ID: utils.HashToken(token), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.sessionTTL)}
	if err := s.sessions.Create(ctx, row); err != nil {
		return IssuedSession{}, dependency("create session", err)
	}
	return IssuedSession{Token: token, ExpiresAt: row.ExpiresAt}, nil
}

// wellFormedToken rejects values that could never have been issued, so
// garbage cookies cost no query.
func wellFormedToken(token string) bool {
	if len(token) != utils.SessionTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
