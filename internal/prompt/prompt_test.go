package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var p Prompter = New()
	assert.NotNil(t, p)
}

func TestNotEmpty(t *testing.T) {
	assert.NoError(t, NotEmpty("scan.pdf"))
	assert.Error(t, NotEmpty(""))
}
