package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddr(t *testing.T) {
	t.Parallel()

	valid := []string{
		"127.0.0.1:8080",
		"localhost:8080",
		":8080",
		"0.0.0.0:0",
		"[::1]:8080",
	}
	for _, addr := range valid {
		assert.NoError(t, validateAddr(addr), "addr %q", addr)
	}

	invalid := []string{
		"",
		"8080",
		"127.0.0.1",
		"127.0.0.1:",
		"127.0.0.1:abc",
		"127.0.0.1:99999",
	}
	for _, addr := range invalid {
		assert.Error(t, validateAddr(addr), "addr %q", addr)
	}
}
