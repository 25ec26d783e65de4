package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.True(t, Name("Bob"))
	assert.True(t, Name(strings.Repeat("x", 255)))
	assert.False(t, Name(""))
	assert.False(t, Name(strings.Repeat("x", 300)))
}

func TestRoom(t *testing.T) {
	assert.True(t, Room(0))
	assert.True(t, Room(5))
	assert.True(t, Room(32767))
	assert.False(t, Room(-1))
	assert.False(t, Room(32768))
}

func TestPhone(t *testing.T) {
	assert.True(t, Phone("0123456789"))
	assert.True(t, Phone("+84123456789"))
	assert.False(t, Phone("12-34"))
	assert.False(t, Phone("abcdef"))
	assert.False(t, Phone("+123456789012345678"))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("bob@example.com"))
	assert.False(t, Email("bob@"))
	assert.False(t, Email("not-an-email"))
}

func TestUsername(t *testing.T) {
	assert.True(t, Username("bob"))
	assert.True(t, Username("bob.smith_42"))
	assert.False(t, Username(""))
	assert.False(t, Username("bob smith"))
	assert.False(t, Username(strings.Repeat("a", 256)))
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Str0ng!pwd"))
	assert.False(t, Password("short1A"))
	assert.False(t, Password("alllowercase1"))
	assert.False(t, Password("ALLUPPERCASE1"))
	assert.False(t, Password("NoDigitsHere"))
}
