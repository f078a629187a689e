package util

import (
	"testing"
	"time"

	"workshop_form_backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testPending = model.PendingOverwrite{
	Username:       "alice",
	QuestionIndex:  1,
	Row:            2,
	Column:         2,
	Answer:         "world",
	ExistingAnswer: "hello",
}

func TestOverwriteTokenCarriesPending(t *testing.T) {
	tok, err := GenerateOverwriteToken(testPending, testSecret, time.Minute)
	require.NoError(t, err)

	got, err := ParseOverwriteToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, testPending, *got)
}

func TestOverwriteTokenRejected(t *testing.T) {
	valid, err := GenerateOverwriteToken(testPending, testSecret, time.Minute)
	require.NoError(t, err)
	expired, err := GenerateOverwriteToken(testPending, testSecret, -time.Minute)
	require.NoError(t, err)

	badCell := testPending
	badCell.Column = 1
	wrongColumn, err := GenerateOverwriteToken(badCell, testSecret, time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &OverwriteClaims{Pending: testPending})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		token  string
		secret string
	}{
		"wrong secret":    {valid, "another-secret-another-secret-xx"},
		"expired":         {expired, testSecret},
		"username column": {wrongColumn, testSecret},
		"unsigned":        {unsigned, testSecret},
		"garbage":         {"not-a-token", testSecret},
		"empty":           {"", testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOverwriteToken(tc.token, tc.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNoticesPreserveOrder(t *testing.T) {
	n := NewNotices()
	n.Warn("retrying")
	n.Success("sent")

	assert.Equal(t, []model.Notice{
		{Level: model.NoticeWarning, Message: "retrying"},
		{Level: model.NoticeSuccess, Message: "sent"},
	}, n.List())
}
