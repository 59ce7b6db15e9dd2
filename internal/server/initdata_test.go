package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"
)

const testBotToken = "12345:TEST-TOKEN"

// signInitData builds a valid initData blob the way Telegram does.
func signInitData(token string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))

	sig := hmac.New(sha256.New, secret.Sum(nil))
	sig.Write([]byte(strings.Join(pairs, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(sig.Sum(nil)))
	return values.Encode()
}

func TestValidateInitData_Valid(t *testing.T) {
	t.Parallel()

	initData := signInitData(testBotToken, map[string]string{
		"auth_date": "1756380000",
		"query_id":  "AAF9",
		"user":      `{"id":100,"first_name":"Иван","last_name":"Петров","username":"ivan"}`,
	})

	user, err := ValidateInitData(initData, testBotToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.ID != 100 || user.FirstName != "Иван" || user.Username != "ivan" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestValidateInitData_TamperedField(t *testing.T) {
	t.Parallel()

	initData := signInitData(testBotToken, map[string]string{
		"auth_date": "1756380000",
		"user":      `{"id":100,"first_name":"Иван"}`,
	})
	tampered := strings.Replace(initData, "100", "200", 1)

	if _, err := ValidateInitData(tampered, testBotToken); err == nil {
		t.Fatalf("tampered init data must be rejected")
	}
}

func TestValidateInitData_WrongToken(t *testing.T) {
	t.Parallel()

	initData := signInitData("other:TOKEN", map[string]string{
		"auth_date": "1756380000",
		"user":      `{"id":100,"first_name":"Иван"}`,
	})
	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Fatalf("signature under another token must be rejected")
	}
}

func TestValidateInitData_MissingHashOrUser(t *testing.T) {
	t.Parallel()

	if _, err := ValidateInitData("auth_date=1", testBotToken); err == nil {
		t.Fatalf("missing hash must be rejected")
	}

	initData := signInitData(testBotToken, map[string]string{"auth_date": "1"})
	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Fatalf("init data without a user must be rejected")
	}

	if _, err := ValidateInitData("", testBotToken); err == nil {
		t.Fatalf("empty init data must be rejected")
	}
}
