package business

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSettledRollback(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	cause := errors.New("insert failed")
	err := logSettledRollback(5, "Buyer1111111111111111111111111111", "SettleSig111", cause)
	assert.Equal(t, cause, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SettleSig111", entries[0].Data["signature"])
	assert.Equal(t, uint(5), entries[0].Data["sale_id"])
	assert.Contains(t, entries[0].Message, "reconcile")
}
