package netid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashedNickForIsDeterministic(t *testing.T) {
	id := UserId{Sequential{Server: 2, Epoch: 1, Local: 1}}

	a := HashedNickFor(id)
	b := HashedNickFor(id)

	assert.Equal(t, a, b)
	assert.LessOrEqual(t, len(a.String()), MaxNicknameLength)
	assert.NotEmpty(t, a.String())
}

func TestHashedNickForDiffersAcrossUsers(t *testing.T) {
	a := HashedNickFor(UserId{Sequential{Server: 1, Epoch: 1, Local: 1}})
	b := HashedNickFor(UserId{Sequential{Server: 2, Epoch: 1, Local: 1}})

	assert.NotEqual(t, a, b)
}
