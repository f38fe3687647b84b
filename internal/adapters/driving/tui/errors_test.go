package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingJobController.Error(), ErrMissingIndexService.Error())
}

func TestErrMissingJobController_Message(t *testing.T) {
	assert.Contains(t, ErrMissingJobController.Error(), "job controller")
}

func TestErrMissingIndexService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingIndexService.Error(), "index service")
}
