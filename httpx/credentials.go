package httpx

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/pak-it/checkin/config"
	"github.com/pak-it/checkin/phone"
	"github.com/pak-it/checkin/settings"
	"github.com/pak-it/checkin/store"
)

// AdminUsername is the credential name for administrator logins; any
// other username is treated as a staff phone number.
const AdminUsername = "admin"

type credentialsVerifier struct {
	db        *sql.DB
	employees *store.Employees
	settings  *settings.Store
	adminHash []byte
	staffHash []byte
}

// NewBearerServer builds the oauth bearer server over the shared
// admin/staff passwords from config and the employee roster.
func NewBearerServer(db *sql.DB, cfg config.Config) (*oauth.BearerServer, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	staffHash, err := bcrypt.GenerateFromPassword([]byte(cfg.StaffPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifier := &credentialsVerifier{
		db:        db,
		employees: &store.Employees{DB: db},
		settings:  &settings.Store{DB: db},
		adminHash: adminHash,
		staffHash: staffHash,
	}
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, verifier, nil), nil
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	if username == AdminUsername {
		return bcrypt.CompareHashAndPassword(cs.adminHash, []byte(password))
	}

	if err := bcrypt.CompareHashAndPassword(cs.staffHash, []byte(password)); err != nil {
		return err
	}

	cfg, err := cs.settings.PollConfig(r.Context())
	if err != nil {
		return err
	}
	canonical := phone.Canonicalize(username)
	if !phone.Validate(canonical, cfg.ValidationMode) {
		return errors.New("invalid phone number format")
	}
	emp, err := cs.employees.Find(r.Context(), canonical)
	if err != nil {
		return err
	}
	if emp == nil {
		return errors.New("phone number not registered")
	}
	return nil
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	_, err := cs.db.Exec(
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(8760*time.Hour),
	)
	return err
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	var expiration time.Time
	var ok bool

	cs.db.
		QueryRow(`
			DELETE FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?
			RETURNING expiration, 1`,
			credential,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration, &ok)
	if !ok {
		return errors.New("could not refresh")
	}

	if expiration.Before(time.Now()) {
		return errors.New("could not refresh")
	}
	return nil
}

// AddClaims attaches the role, and for staff the canonical roster
// phone the response will be keyed by.
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	if credential == AdminUsername {
		return map[string]string{"roles": "admin"}, nil
	}

	claims := map[string]string{"roles": "staff"}
	emp, err := cs.employees.Find(r.Context(), phone.Canonicalize(credential))
	if err != nil {
		return nil, err
	}
	if emp != nil {
		claims["phone"] = emp.Phone
	}
	return claims, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
