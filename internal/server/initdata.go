package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidInitData means the init data failed signature validation.
var ErrInvalidInitData = errors.New("invalid init data")

// MiniAppUser is the Telegram user carried inside validated init data.
type MiniAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// ValidateInitData verifies a mini-app initData blob against the bot
// token and returns the embedded user. Validation follows the Bot API
// scheme: the secret key is HMAC-SHA256 of the token keyed with
// "WebAppData", the signature covers the remaining fields as sorted
// key=value pairs joined with newlines.
func ValidateInitData(initData, botToken string) (MiniAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return MiniAppUser{}, ErrInvalidInitData
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return MiniAppUser{}, ErrInvalidInitData
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	sig := hmac.New(sha256.New, secret.Sum(nil))
	sig.Write([]byte(checkString))
	want := hex.EncodeToString(sig.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return MiniAppUser{}, ErrInvalidInitData
	}

	var user MiniAppUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return MiniAppUser{}, ErrInvalidInitData
		}
	}
	if user.ID == 0 {
		return MiniAppUser{}, ErrInvalidInitData
	}
	return user, nil
}
