package utils_test

import (
	"strings"
	"testing"

	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmoji(t *testing.T) {
	accepted := []string{"👍", "❤️", "🎉", "👍🏽", "👨‍👩‍👧", "🏳️‍🌈"}
	for _, emoji := range accepted {
		assert.True(t, utils.ValidEmoji(emoji), "%q should be accepted", emoji)
	}

	rejected := map[string]string{
		"empty":           "",
		"invalid utf8":    string([]byte{0xff, 0xfe, 0xfd}),
		"two emoji":       "👍🎉",
		"emoji plus text": "👍 nice",
		"plain word":      "up",
		"too long":        strings.Repeat("́", utils.MaxEmojiLength+1),
	}
	for name, emoji := range rejected {
		assert.False(t, utils.ValidEmoji(emoji), "%s: %q should be rejected", name, emoji)
	}
}

func TestValidatorEmojiTag(t *testing.T) {
	v := utils.NewValidator()

	type toggle struct {
		Emoji string `json:"emoji" validate:"required,emoji_grapheme"`
	}

	require.Nil(t, v.Validate(toggle{Emoji: "👍🏽"}))

	errs := v.Validate(toggle{Emoji: "👍👍"})
	require.NotNil(t, errs)
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "emoji", errs.Errors[0].Field)

	errs = v.Validate(toggle{})
	require.NotNil(t, errs)
	assert.Contains(t, errs.Errors[0].Msg, "required")
}

func TestValidatorSlugTag(t *testing.T) {
	v := utils.NewValidator()

	type post struct {
		Slug string `json:"slug" validate:"omitempty,slug"`
	}

	require.Nil(t, v.Validate(post{Slug: "hello-world-42"}))
	assert.NotNil(t, v.Validate(post{Slug: "Hello World"}))
	assert.NotNil(t, v.Validate(post{Slug: "-leading-hyphen"}))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	require.NoError(t, utils.ComparePasswords(hash, "hunter2hunter2"))
	assert.Error(t, utils.ComparePasswords(hash, "wrong"))
}

func TestOTPHashing(t *testing.T) {
	hash, err := utils.HashOTP(12345678)
	require.NoError(t, err)

	require.NoError(t, utils.CompareOTP(hash, 12345678))
	assert.Error(t, utils.CompareOTP(hash, 87654321))
}

func TestGenerateRandomToken(t *testing.T) {
	first, err := utils.GenerateRandomToken(16)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := utils.GenerateRandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := utils.GenerateOTP()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, otp, int64(10000000))
		assert.LessOrEqual(t, otp, int64(99999999))
	}
}

func TestContains(t *testing.T) {
	caps := []string{"react", "create_post"}
	assert.True(t, utils.Contains(caps, "react"))
	assert.False(t, utils.Contains(caps, "admin_site"))
	assert.False(t, utils.Contains(nil, "react"))
}
