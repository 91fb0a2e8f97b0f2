package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khoahotran/billing-extractor/pkg/logger"
)

func TestAnnounceWritesAddress(t *testing.T) {
	var out bytes.Buffer

	announce(&out, logger.NewNopLogger(), 3000)

	assert.Equal(t, "Server is running on http://localhost:3000\n", out.String())
}
