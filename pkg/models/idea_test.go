package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchived(t *testing.T) {
	ref := "blob-1"
	empty := ""

	assert.True(t, (&Idea{ArchiveRef: &ref}).Archived())
	assert.False(t, (&Idea{}).Archived(), "nil ref is not archived")
	assert.False(t, (&Idea{ArchiveRef: &empty}).Archived(), "empty ref is not archived")
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusReady.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
